// Package auth реализует HTTP-обработчики аутентификации: вход, обновление
// токена, смену пароля и сброс пароля по одноразовому коду.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	authservice "github.com/magabrotheeeer/school-crm/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (*authservice.Tokens, error)
	Refresh(ctx context.Context, refresh string) (string, error)
	ChangePassword(ctx context.Context, userID int64, password, confirm string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmCode(ctx context.Context, code string) (*authservice.Confirmation, error)
}

// LoginRequest — учётные данные пользователя.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest — refresh‑токен.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// ChangePasswordRequest — новый пароль с подтверждением.
type ChangePasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ForgotPasswordRequest — email для отправки кода.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmCodeRequest — одноразовый код.
type ConfirmCodeRequest struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

// Handler обрабатывает HTTP-запросы аутентификации.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// Login godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль, возвращает access и refresh токены.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Учетные данные"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "Incorrect password!"
// @Failure 404 {object} response.ErrorResponse "User not found!"
// @Router /users/login/ [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.auth.Login")

	var req LoginRequest
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("login success", slog.Int64("user_id", tokens.UserID))
	render.JSON(w, r, response.StatusOKWithData(tokens))
}

// Refresh godoc
// @Summary Обновление access токена
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh токен"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Invalid or expired token"
// @Router /users/refresh/ [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.auth.Refresh")

	var req RefreshRequest
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	access, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"access": access}))
}

// ChangePassword godoc
// @Summary Смена пароля текущего пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Новый пароль"
// @Success 200 {object} response.Response
// @Failure 406 {object} response.ErrorResponse "Password fields didn't match."
// @Router /users/change_password/ [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.auth.ChangePassword")

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.AuthenticationFailed("Authentication credentials were not provided."))
		return
	}
	var req ChangePasswordRequest
	if !h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), userID, req.Password, req.ConfirmPassword); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": authservice.PasswordChanged}))
}

// ForgotPassword godoc
// @Summary Запрос кода сброса пароля
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "User with this email does not exist."
// @Router /users/forgot-password/ [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.auth.ForgotPassword")

	var req ForgotPasswordRequest
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": authservice.OTPSent}))
}

// ConfirmCode godoc
// @Summary Подтверждение кода сброса пароля
// @Description Проверяет одноразовый код и выдает новую пару токенов.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ConfirmCodeRequest true "Код"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Invalid OTP."
// @Router /users/confirm-code/ [post]
func (h *Handler) ConfirmCode(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.auth.ConfirmCode")

	var req ConfirmCodeRequest
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	res, err := h.service.ConfirmCode(r.Context(), req.Code)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
