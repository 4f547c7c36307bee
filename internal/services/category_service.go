package services

import (
	"context"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
)

// CategoryService отдаёт справочник категорий и ведёт каталог услуг
// исполнителей.
type CategoryService struct {
	Repo      repository.CategoryRepository
	Offerings repository.ProviderServiceRepository
	Accounts  repository.AccountRepository
}

// NewCategoryService создаёт новый экземпляр CategoryService.
func NewCategoryService(repo repository.CategoryRepository, offerings repository.ProviderServiceRepository, accounts repository.AccountRepository) *CategoryService {
	return &CategoryService{Repo: repo, Offerings: offerings, Accounts: accounts}
}

// List возвращает активные категории.
func (s *CategoryService) List(ctx context.Context) ([]models.ServiceCategory, error) {
	return s.Repo.List(ctx)
}

// AddProviderService добавляет категорию в каталог услуг исполнителя;
// не более одной записи на пару (исполнитель, категория).
func (s *CategoryService) AddProviderService(ctx context.Context, providerID string, input models.ProviderServiceInput) (*models.ProviderService, error) {
	if input.CategoryID == "" {
		return nil, models.NewValidationError("missing required fields", map[string]string{"category_id": "required"})
	}
	if input.BasePrice != nil && *input.BasePrice <= 0 {
		return nil, models.NewValidationError("base price must be positive", map[string]string{"base_price": "must be greater than zero"})
	}

	provider, err := s.Accounts.GetByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider.UserType != models.ProviderAccount {
		return nil, models.NewForbiddenError("only providers can offer services")
	}

	if _, err := s.Repo.GetByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	service := &models.ProviderService{
		ID:          uuid.New().String(),
		ProviderID:  providerID,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Offerings.Create(ctx, service); err != nil {
		return nil, err
	}
	return service, nil
}

// ListProviderServices возвращает активные услуги исполнителя.
func (s *CategoryService) ListProviderServices(ctx context.Context, providerID string) ([]models.ProviderService, error) {
	return s.Offerings.ListForProvider(ctx, providerID)
}
