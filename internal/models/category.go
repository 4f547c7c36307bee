package models

import "time"

// ServiceCategory представляет категорию услуг из справочника.
type ServiceCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderService представляет услугу из каталога исполнителя: категорию,
// которую он предлагает, с описанием и базовой ценой.
type ProviderService struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	CategoryID  string    `json:"category_id"`
	Description string    `json:"description,omitempty"`
	BasePrice   *float64  `json:"base_price,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProviderServiceInput представляет структуру запроса для добавления услуги
// в каталог исполнителя.
type ProviderServiceInput struct {
	CategoryID  string   `json:"category_id"`
	Description string   `json:"description"`
	BasePrice   *float64 `json:"base_price"`
}
