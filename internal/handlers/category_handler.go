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

// CategoryHandler - структура для обработки HTTP-запросов справочника категорий.
type CategoryHandler struct {
	Service *services.CategoryService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewCategoryHandler создаёт новый экземпляр CategoryHandler.
func NewCategoryHandler(service *services.CategoryService, logger *log.Logger, timeout time.Duration) *CategoryHandler {
	return &CategoryHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetCategories возвращает активные категории услуг.
func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	categories, err := h.Service.List(ctx)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch categories")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateProviderService добавляет услугу в каталог текущего исполнителя.
func (h *CategoryHandler) CreateProviderService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var input models.ProviderServiceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	service, err := h.Service.AddProviderService(ctx, identity.AccountID, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to add provider service")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"service": service})
}

// GetMyProviderServices возвращает каталог услуг текущего исполнителя.
func (h *CategoryHandler) GetMyProviderServices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	services, err := h.Service.ListProviderServices(ctx, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch provider services")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}
