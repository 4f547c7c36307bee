package models

import (
	"errors"
	"net/http"
)

// ErrorKind - стабильная машинно-читаемая классификация AppError.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindInvalidState ErrorKind = "invalid_state"
	KindConflict     ErrorKind = "conflict"
)

// AppError - ожидаемая ошибка, возвращаемая вызывающему API со стабильным kind.
type AppError struct {
	Kind    ErrorKind         `json:"kind"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

// HTTPStatus возвращает HTTP-статус, соответствующий виду ошибки.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState:
		return http.StatusConflict
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError - некорректный или неполный ввод; fields содержит
// детализацию по полям и может быть nil.
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

// NewUnauthorizedError - личность вызывающего не установлена или учётные
// данные неверны.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewInvalidStateError - операция недопустима в текущем статусе сущности.
func NewInvalidStateError(message string) *AppError {
	return &AppError{Kind: KindInvalidState, Message: message}
}

// NewConflictError - нарушение уникальности или инварианта "не более одного".
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// AsAppError разворачивает err в *AppError, когда это возможно.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
