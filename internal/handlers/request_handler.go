package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/serviza/serviza-backend/internal/auth"
	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/services"
	"github.com/serviza/serviza-backend/internal/utils"
)

// RequestHandler - структура для обработки HTTP-запросов заявок.
type RequestHandler struct {
	Service   *services.RequestService
	Lifecycle *services.LifecycleService
	Logger    *log.Logger
	Timeout   time.Duration
}

// NewRequestHandler создаёт новый экземпляр RequestHandler.
func NewRequestHandler(service *services.RequestService, lifecycle *services.LifecycleService, logger *log.Logger, timeout time.Duration) *RequestHandler {
	return &RequestHandler{
		Service:   service,
		Lifecycle: lifecycle,
		Logger:    logger,
		Timeout:   timeout,
	}
}

// CreateRequest обрабатывает запросы на создание заявки.
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var input models.ServiceRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	request, err := h.Service.CreateRequest(ctx, identity.AccountID, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to create service request")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, request)
}

// GetRequests возвращает заявки: клиенту - свои, исполнителю - открытые.
func (h *RequestHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	query := r.URL.Query()
	limit, offset, err := utils.ParseLimitOffset(query.Get("limit"), query.Get("offset"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "invalid pagination parameters")
		return
	}

	filter := models.RequestFilter{
		Categories: query["category_id"],
		Urgencies:  query["urgency"],
		City:       query.Get("city"),
		Limit:      limit,
		Offset:     offset,
	}

	requests, err := h.Service.ListRequests(ctx, identity.AccountID, identity.UserType, filter)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch service requests")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// GetRequestDetail возвращает заявку с данными клиента и категории.
func (h *RequestHandler) GetRequestDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	detail, err := h.Service.GetRequestDetail(ctx, r.PathValue("requestId"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch service request")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"request": detail})
}

// UpdateRequest меняет редактируемые поля открытой заявки.
func (h *RequestHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var update models.ServiceRequestUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	request, err := h.Service.UpdateRequest(ctx, r.PathValue("requestId"), identity.AccountID, update)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to update service request")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"request": request})
}

// CancelRequest отменяет заявку; ожидающие предложения отклоняются каскадом.
// DELETE на заявку сводится к той же операции: заявки с предложениями
// не удаляются физически.
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	request, affected, err := h.Lifecycle.CancelRequest(ctx, r.PathValue("requestId"), identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to cancel service request")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"request":            request,
		"rejected_proposals": affected,
	})
}

// CompleteRequest завершает заявку из in_progress.
func (h *RequestHandler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	request, err := h.Lifecycle.CompleteRequest(ctx, r.PathValue("requestId"), identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to complete service request")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"request": request})
}
