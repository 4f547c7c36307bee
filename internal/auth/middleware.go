package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/serviza/serviza-backend/internal/models"
	"github.com/serviza/serviza-backend/internal/utils"
)

type contextKey struct{}

var identityKey contextKey

// Middleware извлекает bearer-токен из заголовка Authorization, проверяет его
// и кладёт личность в контекст запроса. Хэндлеры достают её через FromContext
// и передают в сервисы явными параметрами.
func Middleware(tokens *TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.SendAppError(w, models.NewUnauthorizedError("missing or malformed authorization header"))
			return
		}
		identity, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.SendAppError(w, models.NewUnauthorizedError("invalid or expired token"))
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey, identity)))
	}
}

// FromContext возвращает личность, положенную Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
