// Package middlewarectx содержит HTTP middleware для проверки JWT токенов,
// прав суперпользователя и ограничения частоты запросов.
//
// JWTMiddleware проверяет access‑токен из заголовка Authorization и в случае
// успеха добавляет в контекст ID, email и роль пользователя для обработчиков.
// В случае ошибки проверки возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/jwt"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ для ID пользователя в контексте
	UserID Key = "user_id"
	// Email — ключ для email пользователя в контексте
	Email Key = "email"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
)

// TokenParser проверяет подпись и тип токена.
type TokenParser interface {
	ParseToken(tokenStr string, typ jwt.TokenType) (*jwt.CustomClaims, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет access‑токен
// в заголовке Authorization.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Authentication credentials were not provided."))
				return
			}

			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), jwt.Access)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("Given token not valid for any token type"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Email, claims.Role)))
		})
	}
}

// WithUser кладёт данные пользователя в контекст.
func WithUser(ctx context.Context, id int64, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserID, id)
	ctx = context.WithValue(ctx, Email, email)
	return context.WithValue(ctx, Role, role)
}

// UserIDFrom возвращает ID пользователя из контекста.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserID).(int64)
	return id, ok && id != 0
}

// ActorFrom возвращает автора изменения для журнала истории или nil.
func ActorFrom(ctx context.Context) *models.Actor {
	id, ok := UserIDFrom(ctx)
	if !ok {
		return nil
	}
	email, _ := ctx.Value(Email).(string)
	return &models.Actor{ID: id, Email: email}
}

// RequireSuperuser пропускает только суперпользователя.
func RequireSuperuser(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role, _ := r.Context().Value(Role).(string); role != models.DisplaySuperAdmin {
				log.Info("superuser required",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("role", role))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("You do not have permission to perform this action."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
