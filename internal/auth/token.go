package auth

import (
	"errors"
	"time"

	"github.com/serviza/serviza-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Identity - личность, извлечённая из bearer-токена.
type Identity struct {
	AccountID string
	UserType  models.AccountType
}

type claims struct {
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет HS256 bearer-токены.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт новый экземпляр TokenManager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Issue выпускает токен для аккаунта.
func (m *TokenManager) Issue(accountID string, userType models.AccountType) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserType: string(userType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Parse проверяет токен и возвращает личность.
func (m *TokenManager) Parse(tokenStr string) (Identity, error) {
	var parsed claims
	token, err := jwt.ParseWithClaims(tokenStr, &parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if parsed.Subject == "" {
		return Identity{}, errors.New("invalid token claims")
	}
	userType := models.AccountType(parsed.UserType)
	if userType != models.ClientAccount && userType != models.ProviderAccount {
		return Identity{}, errors.New("invalid token claims")
	}
	return Identity{AccountID: parsed.Subject, UserType: userType}, nil
}
