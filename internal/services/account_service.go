package services

import (
	"context"
	"regexp"
	"time"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// TokenIssuer выпускает bearer-токены для аккаунтов.
type TokenIssuer interface {
	Issue(accountID string, userType models.AccountType) (string, error)
}

// AccountService отвечает за регистрацию, вход и профили аккаунтов.
type AccountService struct {
	Repo   repository.AccountRepository
	Tokens TokenIssuer
}

// NewAccountService создаёт новый экземпляр AccountService.
func NewAccountService(repo repository.AccountRepository, tokens TokenIssuer) *AccountService {
	return &AccountService{Repo: repo, Tokens: tokens}
}

// Register создает новый аккаунт и возвращает его вместе с токеном доступа.
func (s *AccountService) Register(ctx context.Context, input models.RegisterRequest) (*models.Account, string, error) {
	fields := make(map[string]string)
	if input.Name == "" {
		fields["name"] = "required"
	}
	if input.Email == "" {
		fields["email"] = "required"
	} else if !emailPattern.MatchString(input.Email) {
		fields["email"] = "invalid email"
	}
	if len(input.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if input.UserType != models.ClientAccount && input.UserType != models.ProviderAccount {
		fields["user_type"] = "must be 'client' or 'provider'"
	}
	if len(fields) > 0 {
		return nil, "", models.NewValidationError("invalid registration fields", fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	account := &models.Account{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Email:           input.Email,
		PasswordHash:    string(hash),
		Phone:           input.Phone,
		UserType:        input.UserType,
		Address:         input.Address,
		City:            input.City,
		State:           input.State,
		ZipCode:         input.ZipCode,
		Bio:             input.Bio,
		ExperienceYears: input.ExperienceYears,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, account); err != nil {
		return nil, "", err
	}

	token, err := s.Tokens.Issue(account.ID, account.UserType)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login проверяет учётные данные и возвращает аккаунт с токеном доступа.
func (s *AccountService) Login(ctx context.Context, input models.LoginRequest) (*models.Account, string, error) {
	if input.Email == "" || input.Password == "" {
		return nil, "", models.NewValidationError("email and password are required", nil)
	}

	account, err := s.Repo.GetByEmail(ctx, input.Email)
	if err != nil {
		if _, ok := models.AsAppError(err); ok {
			return nil, "", models.NewUnauthorizedError("invalid email or password")
		}
		return nil, "", err
	}
	if !account.IsActive {
		return nil, "", models.NewUnauthorizedError("account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
		return nil, "", models.NewUnauthorizedError("invalid email or password")
	}

	token, err := s.Tokens.Issue(account.ID, account.UserType)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// GetAccount возвращает аккаунт по ID.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*models.Account, error) {
	return s.Repo.GetByID(ctx, accountID)
}

// UpdateProfile меняет поля профиля владельца.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, update models.ProfileUpdate) (*models.Account, error) {
	account, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, models.NewValidationError("invalid profile fields", map[string]string{"name": "must not be empty"})
		}
		account.Name = *update.Name
	}
	if update.Phone != nil {
		account.Phone = *update.Phone
	}
	if update.Address != nil {
		account.Address = *update.Address
	}
	if update.City != nil {
		account.City = *update.City
	}
	if update.State != nil {
		account.State = *update.State
	}
	if update.ZipCode != nil {
		account.ZipCode = *update.ZipCode
	}
	if update.Bio != nil {
		account.Bio = *update.Bio
	}
	if update.ExperienceYears != nil {
		account.ExperienceYears = *update.ExperienceYears
	}

	if err := s.Repo.UpdateProfile(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
