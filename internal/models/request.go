package models

import "time"

type (
	RequestStatus  string // Статус заявки на услугу
	RequestUrgency string // Срочность заявки
)

const (
	OpenRequest       RequestStatus = "open"        // Заявка открыта для предложений
	InProgressRequest RequestStatus = "in_progress" // Предложение принято, работа идёт
	CompletedRequest  RequestStatus = "completed"   // Работа завершена
	CancelledRequest  RequestStatus = "cancelled"   // Заявка отменена

	LowUrgency    RequestUrgency = "low"
	NormalUrgency RequestUrgency = "normal"
	HighUrgency   RequestUrgency = "high"
	UrgentUrgency RequestUrgency = "urgent"
)

// ServiceRequest представляет модель заявки клиента на услугу.
type ServiceRequest struct {
	ID            string         `json:"id"`
	ClientID      string         `json:"client_id"`
	CategoryID    string         `json:"category_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	ZipCode       string         `json:"zip_code"`
	Latitude      *float64       `json:"latitude,omitempty"`
	Longitude     *float64       `json:"longitude,omitempty"`
	Urgency       RequestUrgency `json:"urgency"`
	BudgetMin     *float64       `json:"budget_min,omitempty"`
	BudgetMax     *float64       `json:"budget_max,omitempty"`
	PreferredDate *time.Time     `json:"preferred_date,omitempty"`
	Status        RequestStatus  `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ServiceRequestInput представляет структуру запроса для создания заявки.
type ServiceRequestInput struct {
	CategoryID    string         `json:"category_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	State         string         `json:"state"`
	ZipCode       string         `json:"zip_code"`
	Latitude      *float64       `json:"latitude"`
	Longitude     *float64       `json:"longitude"`
	Urgency       RequestUrgency `json:"urgency"`
	BudgetMin     *float64       `json:"budget_min"`
	BudgetMax     *float64       `json:"budget_max"`
	PreferredDate *time.Time     `json:"preferred_date"`
}

// ServiceRequestUpdate перечисляет поля заявки, доступные владельцу для
// изменения, пока заявка открыта. Статус сюда не входит: им управляет
// только lifecycle-движок.
type ServiceRequestUpdate struct {
	Title         *string         `json:"title"`
	Description   *string         `json:"description"`
	Urgency       *RequestUrgency `json:"urgency"`
	BudgetMin     *float64        `json:"budget_min"`
	BudgetMax     *float64        `json:"budget_max"`
	PreferredDate *time.Time      `json:"preferred_date"`
}

// RequestFilter - фильтры для выборки открытых заявок.
type RequestFilter struct {
	Categories []string
	Urgencies  []string
	City       string
	Limit      int
	Offset     int
}

// ServiceRequestDetail - заявка вместе с данными клиента и категории.
type ServiceRequestDetail struct {
	ServiceRequest
	Client   AccountSummary   `json:"client"`
	Category *ServiceCategory `json:"category,omitempty"`
}

// RequestSummary - краткая проекция заявки, встраиваемая в ответы по предложениям.
type RequestSummary struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	Status      RequestStatus `json:"status"`
}

// Summary возвращает краткую проекцию заявки.
func (r *ServiceRequest) Summary() RequestSummary {
	return RequestSummary{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		City:        r.City,
		State:       r.State,
		Status:      r.Status,
	}
}

// IsTerminal сообщает, имеет ли статус исходящие переходы.
func (s RequestStatus) IsTerminal() bool {
	return s == CompletedRequest || s == CancelledRequest
}
