// Package notifications реализует HTTP-обработчик отправки push-уведомления.
package notifications

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
)

// Service регистрирует устройство и ставит push в очередь.
type Service interface {
	SendPush(ctx context.Context, userID int64, registrationID string) (string, error)
}

// SendRequest — токен устройства получателя.
type SendRequest struct {
	RegistrationID string `json:"registration_id" validate:"required,max=255"`
}

// Handler обрабатывает запросы уведомлений.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// Send godoc
// @Summary Отправка push-уведомления
// @Description Регистрирует токен устройства текущего пользователя и ставит уведомление в очередь.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendRequest true "Токен устройства"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /notifications/send/ [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.notifications.Send")

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.AuthenticationFailed("Authentication credentials were not provided."))
		return
	}
	var req SendRequest
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	msg, err := h.service.SendPush(r.Context(), userID, req.RegistrationID)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": msg}))
}
