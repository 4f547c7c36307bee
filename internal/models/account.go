package models

import "time"

type AccountType string // Роль аккаунта в маркетплейсе

const (
	ClientAccount   AccountType = "client"
	ProviderAccount AccountType = "provider"
)

// Account представляет учётную запись клиента или исполнителя.
type Account struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	PasswordHash    string      `json:"-"`
	Phone           string      `json:"phone,omitempty"`
	UserType        AccountType `json:"user_type"`
	Address         string      `json:"address,omitempty"`
	City            string      `json:"city,omitempty"`
	State           string      `json:"state,omitempty"`
	ZipCode         string      `json:"zip_code,omitempty"`
	Bio             string      `json:"bio,omitempty"`
	ExperienceYears int         `json:"experience_years,omitempty"`
	IsActive        bool        `json:"is_active"`
	RatingSum       int64       `json:"-"`
	RatingCount     int64       `json:"total_evaluations"`
	AverageRating   float64     `json:"average_rating"`
	CreatedAt       time.Time   `json:"created_at"`
}

// RegisterRequest представляет структуру запроса для регистрации аккаунта.
type RegisterRequest struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	UserType        AccountType `json:"user_type"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	ZipCode         string      `json:"zip_code"`
	Bio             string      `json:"bio"`
	ExperienceYears int         `json:"experience_years"`
}

// LoginRequest представляет структуру запроса для входа.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate перечисляет поля профиля, доступные владельцу для изменения.
type ProfileUpdate struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	City            *string `json:"city"`
	State           *string `json:"state"`
	ZipCode         *string `json:"zip_code"`
	Bio             *string `json:"bio"`
	ExperienceYears *int    `json:"experience_years"`
}

// AccountSummary - публичная проекция аккаунта, встраиваемая в ответы.
type AccountSummary struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	UserType      AccountType `json:"user_type"`
	AverageRating float64     `json:"average_rating"`
	RatingCount   int64       `json:"total_evaluations"`
}

// Summary возвращает публичную проекцию аккаунта.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:            a.ID,
		Name:          a.Name,
		UserType:      a.UserType,
		AverageRating: a.AverageRating,
		RatingCount:   a.RatingCount,
	}
}
