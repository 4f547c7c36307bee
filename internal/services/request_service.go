package services

import (
	"context"
	"fmt"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
)

var allowedUrgencies = map[models.RequestUrgency]bool{
	models.LowUrgency:    true,
	models.NormalUrgency: true,
	models.HighUrgency:   true,
	models.UrgentUrgency: true,
}

// RequestService отвечает за создание и чтение заявок. Смена статуса
// делегируется LifecycleService.
type RequestService struct {
	Repo       repository.RequestRepository
	Categories repository.CategoryRepository
	Accounts   repository.AccountRepository
}

// NewRequestService создаёт новый экземпляр RequestService.
func NewRequestService(repo repository.RequestRepository, categories repository.CategoryRepository, accounts repository.AccountRepository) *RequestService {
	return &RequestService{Repo: repo, Categories: categories, Accounts: accounts}
}

func validateRequestInput(input models.ServiceRequestInput) map[string]string {
	fields := make(map[string]string)
	if input.Title == "" {
		fields["title"] = "required"
	}
	if input.Description == "" {
		fields["description"] = "required"
	}
	if input.CategoryID == "" {
		fields["category_id"] = "required"
	}
	if input.Address == "" {
		fields["address"] = "required"
	}
	if input.City == "" {
		fields["city"] = "required"
	}
	if input.State == "" {
		fields["state"] = "required"
	}
	if input.ZipCode == "" {
		fields["zip_code"] = "required"
	}
	if input.Urgency != "" && !allowedUrgencies[input.Urgency] {
		fields["urgency"] = fmt.Sprintf("unsupported urgency: %s", input.Urgency)
	}
	if input.BudgetMin != nil && input.BudgetMax != nil && *input.BudgetMin > *input.BudgetMax {
		fields["budget_min"] = "must not exceed budget_max"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// CreateRequest создает новую заявку в статусе open.
func (s *RequestService) CreateRequest(ctx context.Context, clientID string, input models.ServiceRequestInput) (*models.ServiceRequest, error) {
	if fields := validateRequestInput(input); fields != nil {
		return nil, models.NewValidationError("invalid request fields", fields)
	}

	client, err := s.Accounts.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.UserType != models.ClientAccount {
		return nil, models.NewForbiddenError("only clients can create service requests")
	}

	exists, err := s.Categories.Exists(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewValidationError("invalid request fields", map[string]string{"category_id": "unknown category"})
	}

	urgency := input.Urgency
	if urgency == "" {
		urgency = models.NormalUrgency
	}

	now := time.Now().UTC()
	request := &models.ServiceRequest{
		ID:            uuid.New().String(),
		ClientID:      clientID,
		CategoryID:    input.CategoryID,
		Title:         input.Title,
		Description:   input.Description,
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		ZipCode:       input.ZipCode,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Urgency:       urgency,
		BudgetMin:     input.BudgetMin,
		BudgetMax:     input.BudgetMax,
		PreferredDate: input.PreferredDate,
		Status:        models.OpenRequest,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Repo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// GetRequestDetail возвращает заявку вместе с данными клиента и категории.
func (s *RequestService) GetRequestDetail(ctx context.Context, requestID string) (*models.ServiceRequestDetail, error) {
	request, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	detail := &models.ServiceRequestDetail{ServiceRequest: *request}
	client, err := s.Accounts.GetByID(ctx, request.ClientID)
	if err != nil {
		return nil, err
	}
	detail.Client = client.Summary()

	if category, err := s.Categories.GetByID(ctx, request.CategoryID); err == nil {
		detail.Category = category
	}
	return detail, nil
}

// ListRequests возвращает заявки в зависимости от роли: клиент видит свои,
// исполнитель - открытые с фильтрами.
func (s *RequestService) ListRequests(ctx context.Context, actorID string, actorType models.AccountType, filter models.RequestFilter) ([]models.ServiceRequest, error) {
	for _, urgency := range filter.Urgencies {
		if !allowedUrgencies[models.RequestUrgency(urgency)] {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported urgency: %s", urgency), nil)
		}
	}
	if actorType == models.ClientAccount {
		return s.Repo.ListForClient(ctx, actorID, filter.Limit, filter.Offset)
	}
	return s.Repo.ListOpen(ctx, filter)
}

// UpdateRequest меняет редактируемые поля заявки, пока она открыта.
func (s *RequestService) UpdateRequest(ctx context.Context, requestID, actorID string, update models.ServiceRequestUpdate) (*models.ServiceRequest, error) {
	request, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != actorID {
		return nil, models.NewForbiddenError("only the request owner can edit the request")
	}
	if request.Status != models.OpenRequest {
		return nil, models.NewInvalidStateError("only open requests can be edited")
	}

	if update.Title != nil {
		if *update.Title == "" {
			return nil, models.NewValidationError("invalid request fields", map[string]string{"title": "must not be empty"})
		}
		request.Title = *update.Title
	}
	if update.Description != nil {
		if *update.Description == "" {
			return nil, models.NewValidationError("invalid request fields", map[string]string{"description": "must not be empty"})
		}
		request.Description = *update.Description
	}
	if update.Urgency != nil {
		if !allowedUrgencies[*update.Urgency] {
			return nil, models.NewValidationError("invalid request fields", map[string]string{"urgency": fmt.Sprintf("unsupported urgency: %s", *update.Urgency)})
		}
		request.Urgency = *update.Urgency
	}
	if update.BudgetMin != nil {
		request.BudgetMin = update.BudgetMin
	}
	if update.BudgetMax != nil {
		request.BudgetMax = update.BudgetMax
	}
	if request.BudgetMin != nil && request.BudgetMax != nil && *request.BudgetMin > *request.BudgetMax {
		return nil, models.NewValidationError("invalid request fields", map[string]string{"budget_min": "must not exceed budget_max"})
	}
	if update.PreferredDate != nil {
		request.PreferredDate = update.PreferredDate
	}

	request.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}
