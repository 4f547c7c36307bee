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

// ProposalHandler - структура для обработки HTTP-запросов предложений.
type ProposalHandler struct {
	Service   *services.ProposalService
	Lifecycle *services.LifecycleService
	Logger    *log.Logger
	Timeout   time.Duration
}

// NewProposalHandler создаёт новый экземпляр ProposalHandler.
func NewProposalHandler(service *services.ProposalService, lifecycle *services.LifecycleService, logger *log.Logger, timeout time.Duration) *ProposalHandler {
	return &ProposalHandler{
		Service:   service,
		Lifecycle: lifecycle,
		Logger:    logger,
		Timeout:   timeout,
	}
}

// CreateProposal обрабатывает подачу предложения по заявке.
func (h *ProposalHandler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var input models.ProposalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	proposal, err := h.Lifecycle.SubmitProposal(ctx, identity.AccountID, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to submit proposal")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"proposal": proposal})
}

// GetRequestProposals возвращает предложения по заявке её владельцу.
func (h *ProposalHandler) GetRequestProposals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	proposals, err := h.Service.ListForRequest(ctx, r.PathValue("requestId"), identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch proposals")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"proposals": proposals})
}

// GetMyProposals возвращает предложения текущего исполнителя.
func (h *ProposalHandler) GetMyProposals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	proposals, err := h.Service.ListForProvider(ctx, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch proposals")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"proposals": proposals})
}

// AcceptProposal принимает предложение; остальные ожидающие предложения
// по заявке отклоняются каскадом.
func (h *ProposalHandler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	proposal, err := h.Service.GetByID(ctx, r.PathValue("proposalId"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch proposal")
		return
	}

	result, err := h.Lifecycle.AcceptProposal(ctx, proposal.RequestID, proposal.ID, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to accept proposal")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// RejectProposal отклоняет ожидающее предложение.
func (h *ProposalHandler) RejectProposal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	proposal, err := h.Service.GetByID(ctx, r.PathValue("proposalId"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch proposal")
		return
	}

	rejected, err := h.Lifecycle.RejectProposal(ctx, proposal.RequestID, proposal.ID, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to reject proposal")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"proposal": rejected})
}
