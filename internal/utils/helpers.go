package utils

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/serviza/serviza-backend/internal/models"
)

// WriteJSON отправляет ответ в формате JSON.
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println(err)
	}
}

// SendErrorResponse отправляет ошибку в формате JSON.
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// SendAppError отправляет AppError с его кодом и kind; для транспортных
// ошибок, у которых нет логгера под рукой.
func SendAppError(w http.ResponseWriter, appErr *models.AppError) {
	WriteJSON(w, appErr.HTTPStatus(), appErr)
}

// RespondError отправляет AppError с его кодом и kind; прочие ошибки
// логируются и возвращаются как 500 с запасным сообщением.
func RespondError(w http.ResponseWriter, logger *log.Logger, err error, fallback string) {
	if appErr, ok := models.AsAppError(err); ok {
		logger.Println(err)
		WriteJSON(w, appErr.HTTPStatus(), appErr)
		return
	}
	logger.Println(err)
	SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

// ParseLimitOffset обрабатывает limit и offset; ошибки возвращаются как
// validation AppError с детализацией по полю.
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, models.NewValidationError("invalid pagination parameters",
				map[string]string{"limit": "must be a positive integer [1:50]"})
		}
	} else {
		limit = 20
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, models.NewValidationError("invalid pagination parameters",
				map[string]string{"offset": "must be a non-negative integer"})
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}
