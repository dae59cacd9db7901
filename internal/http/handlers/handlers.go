// Package handlers содержит общую часть HTTP‑обработчиков: логгер запроса
// и разбор тела с валидацией.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/school-crm/internal/http/request"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/validation"
)

// Base встраивается в обработчики ресурсов.
type Base struct {
	Log      *slog.Logger
	Validate *validator.Validate
}

// NewBase создает Base с валидатором, знающим тег phone.
func NewBase(log *slog.Logger) Base {
	return Base{Log: log, Validate: validation.New()}
}

// Logger возвращает логгер запроса с op и request_id.
func (b Base) Logger(r *http.Request, op string) *slog.Logger {
	return b.Log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Decode читает и проверяет тело запроса. Ошибка валидации отдается
// со статусом status. При false ответ уже записан.
func (b Base) Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any, status int) bool {
	if err := request.DecodeJSON(r, v); err != nil {
		response.WriteError(w, r, log, err)
		return false
	}
	if err := b.Validate.Struct(v); err != nil {
		log.Info("validation failed", slog.String("error", err.Error()))
		response.WriteValidation(w, r, status, err)
		return false
	}
	return true
}

// ID читает параметр пути id. При false ответ уже записан.
func (b Base) ID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, bool) {
	id, err := request.ID(r, "id")
	if err != nil {
		response.WriteError(w, r, log, err)
		return 0, false
	}
	return id, true
}
