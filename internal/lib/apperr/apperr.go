// Package apperr описывает доменные ошибки и их отображение в HTTP‑статусы.
package apperr

import (
	"errors"
	"net/http"
)

// Kind — класс доменной ошибки.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindNotAcceptable
	KindAuthenticationFailed
	KindForbidden
)

// Error — ошибка с классом и сообщением для клиента.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound — сущность не найдена (404).
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Validation — некорректные входные данные (400).
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotAcceptable — входные данные отклонены при обновлении или регистрации (406).
func NotAcceptable(msg string) error {
	return &Error{Kind: KindNotAcceptable, Message: msg}
}

// AuthenticationFailed — неверные учётные данные (401).
func AuthenticationFailed(msg string) error {
	return &Error{Kind: KindAuthenticationFailed, Message: msg}
}

// Forbidden — недостаточно прав (403).
func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Wrap добавляет к ошибке класс и сообщение, сохраняя причину.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf возвращает класс ошибки или KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is сообщает, относится ли ошибка к классу kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message возвращает сообщение для клиента. Для внутренних ошибок
// возвращается fallback.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}

// HTTPStatus отображает ошибку в HTTP‑статус.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindNotAcceptable:
		return http.StatusNotAcceptable
	case KindAuthenticationFailed:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
