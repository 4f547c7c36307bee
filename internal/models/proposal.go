package models

import "time"

type ProposalStatus string // Статус предложения исполнителя

const (
	PendingProposal  ProposalStatus = "pending"  // Предложение ожидает решения клиента
	AcceptedProposal ProposalStatus = "accepted" // Предложение принято
	RejectedProposal ProposalStatus = "rejected" // Предложение отклонено
)

// Proposal представляет модель предложения исполнителя по заявке.
type Proposal struct {
	ID                 string         `json:"id"`
	RequestID          string         `json:"request_id"`
	ProviderID         string         `json:"provider_id"`
	Price              float64        `json:"price"`
	EstimatedDuration  string         `json:"estimated_duration,omitempty"`
	Description        string         `json:"description,omitempty"`
	MaterialsIncluded  bool           `json:"materials_included"`
	Availability       string         `json:"availability,omitempty"`
	Status             ProposalStatus `json:"status"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// ProposalInput представляет структуру запроса для подачи предложения.
type ProposalInput struct {
	RequestID         string  `json:"request_id"`
	Price             float64 `json:"price"`
	EstimatedDuration string  `json:"estimated_duration"`
	Description       string  `json:"description"`
	MaterialsIncluded bool    `json:"materials_included"`
	Availability      string  `json:"availability"`
}

// ProposalWithProvider - предложение вместе с публичными данными исполнителя.
type ProposalWithProvider struct {
	Proposal
	Provider AccountSummary `json:"provider"`
}

// ProposalWithRequest - предложение вместе с краткими данными заявки.
type ProposalWithRequest struct {
	Proposal
	Request RequestSummary `json:"service_request"`
}

// AcceptResult - результат принятия предложения: обновлённая заявка и все
// затронутые предложения, включая отклонённые каскадом.
type AcceptResult struct {
	Request  *ServiceRequest `json:"request"`
	Accepted *Proposal       `json:"proposal"`
	Rejected []Proposal      `json:"rejected_proposals"`
}

// IsActive сообщает, блокирует ли предложение повторную подачу от того же
// исполнителя по той же заявке.
func (s ProposalStatus) IsActive() bool {
	return s == PendingProposal || s == AcceptedProposal
}
