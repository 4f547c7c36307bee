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

// AccountHandler - структура для обработки HTTP-запросов аккаунтов.
type AccountHandler struct {
	Service *services.AccountService
	Logger  *log.Logger
	Timeout time.Duration
}

// NewAccountHandler создаёт новый экземпляр AccountHandler.
func NewAccountHandler(service *services.AccountService, logger *log.Logger, timeout time.Duration) *AccountHandler {
	return &AccountHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

type authResponse struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"access_token"`
}

// Register обрабатывает запросы на регистрацию аккаунта.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var input models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	account, token, err := h.Service.Register(ctx, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to register account")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, authResponse{Account: account, Token: token})
}

// Login обрабатывает запросы на вход.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var input models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	account, token, err := h.Service.Login(ctx, input)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to log in")
		return
	}
	utils.WriteJSON(w, http.StatusOK, authResponse{Account: account, Token: token})
}

// Me возвращает аккаунт текущего пользователя.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	account, err := h.Service.GetAccount(ctx, identity.AccountID)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch account")
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

// UpdateMe меняет профиль текущего пользователя.
func (h *AccountHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	identity, ok := auth.FromContext(ctx)
	if !ok {
		utils.SendAppError(w, models.NewUnauthorizedError("authentication required"))
		return
	}

	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.SendAppError(w, models.NewValidationError("invalid request body", nil))
		return
	}

	account, err := h.Service.UpdateProfile(ctx, identity.AccountID, update)
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to update profile")
		return
	}
	utils.WriteJSON(w, http.StatusOK, account)
}

// GetProfile возвращает публичный профиль пользователя.
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	account, err := h.Service.GetAccount(ctx, r.PathValue("userId"))
	if err != nil {
		utils.RespondError(w, h.Logger, err, "failed to fetch account")
		return
	}
	utils.WriteJSON(w, http.StatusOK, account.Summary())
}
