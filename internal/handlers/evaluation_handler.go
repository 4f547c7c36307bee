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

// EvaluationHandler - структура для обработки HTTP-запросов оценок.
type EvaluationHandler struct {
	Service *services.EvaluationService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewEvaluationHandler создаёт новый экземпляр EvaluationHandler.
func NewEvaluationHandler(service *services.EvaluationService, logger *log.Logger, timeout time.Duration) *EvaluationHandler {
	return &EvaluationHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateEvaluation обрабатывает подачу оценки по завершённой заявке.
func (h *EvaluationHandler) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var input models.EvaluationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	evaluation, err := h.Service.Submit(ctx, identity.AccountID, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to submit evaluation")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"evaluation": evaluation})
}

// GetUserEvaluations возвращает оценки, полученные пользователем.
func (h *EvaluationHandler) GetUserEvaluations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	evaluations, subject, err := h.Service.ListForUser(ctx, r.PathValue("userId"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch evaluations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"evaluations":       evaluations,
		"average_rating":    subject.AverageRating,
		"total_evaluations": subject.RatingCount,
	})
}

// GetMyEvaluations возвращает полученные и выданные оценки текущего пользователя.
func (h *EvaluationHandler) GetMyEvaluations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	evaluations, err := h.Service.ListMine(ctx, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch evaluations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, evaluations)
}

// GetRequestEvaluations возвращает оценки по заявке её участникам.
func (h *EvaluationHandler) GetRequestEvaluations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	evaluations, err := h.Service.ListForRequest(ctx, r.PathValue("requestId"), identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch evaluations")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"evaluations": evaluations})
}
