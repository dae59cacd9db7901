// Package crm собирает HTTP API CRM: сервисы, маршруты, gRPC health
// и фоновую очистку кодов.
package crm

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers/analytics"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/applications"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/auth"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/catalog"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/groups"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/health"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/notifications"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/search"
	"github.com/magabrotheeeer/school-crm/internal/http/handlers/users"
	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Handlers — обработчики всех ресурсов API.
type Handlers struct {
	Auth             *auth.Handler
	Users            *users.Handler
	Directions       *catalog.Handler[models.Direction]
	Times            *catalog.Handler[models.Times]
	GroupStatuses    *catalog.Handler[models.GroupStatus]
	Sources          *catalog.Handler[models.Source]
	RejectionReasons *catalog.Handler[models.RejectionReason]
	Groups           *groups.Handler
	Applications     *applications.Handler
	Analytics        *analytics.Handler
	Search           *search.Handler
	Notifications    *notifications.Handler
	Health           *health.Handler
}

// RouteConfig — параметры middleware маршрутов.
type RouteConfig struct {
	Tokens        middlewarectx.TokenParser
	AuthRateLimit float64
	AuthRateBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, h Handlers, cfg RouteConfig) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.SentryMiddleware(),
		middleware.URLFormat,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.AuthRateLimit, cfg.AuthRateBurst))
			r.Post("/users/login/", h.Auth.Login)
			r.Post("/users/refresh/", h.Auth.Refresh)
			r.Post("/users/forgot-password/", h.Auth.ForgotPassword)
			r.Post("/users/confirm-code/", h.Auth.ConfirmCode)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(cfg.Tokens, logger))

			r.Post("/users/change_password/", h.Auth.ChangePassword)
			r.Get("/users/profile/me/", h.Users.Profile)
			r.Patch("/users/profile/me/", h.Users.UpdateProfile)
			r.Get("/users/all_staff/", h.Users.Staff)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireSuperuser(logger))
				r.Post("/users/register/office_manager/", h.Users.RegisterOfficeManager)
				r.Post("/users/register/teacher/", h.Users.RegisterTeacher)
				r.Post("/users/register/student/", h.Users.RegisterStudent)
			})

			directory(r, "/teachers", h.Users.Directory(models.RoleTeacher))
			directory(r, "/students", h.Users.Directory(models.RoleStudent))

			r.Route("/directions", h.Directions.Routes)
			r.Route("/times", h.Times.Routes)
			r.Route("/group-status", h.GroupStatuses.Routes)
			r.Route("/source", h.Sources.Routes)
			r.Route("/rejection-reason", h.RejectionReasons.Routes)
			r.Route("/groups", h.Groups.Routes)

			r.Route("/applications", func(r chi.Router) {
				r.Get("/", h.Applications.List)
				r.Get("/export/", h.Applications.Export)
				r.Post("/create/", h.Applications.Create)
				r.Get("/global-search/", h.Search.ServeHTTP)
				r.Post("/student/add/{id}", h.Applications.Convert)
				r.Post("/user/archive/{id}", h.Users.Archive)
				r.Post("/user/unarchive/{id}", h.Users.Unarchive)
				r.Get("/{id}/", h.Applications.Get)
				r.Get("/{id}/history/", h.Applications.History)
				r.Put("/{id}/", h.Applications.Update)
				r.Patch("/{id}/", h.Applications.Update)
				r.Delete("/{id}/", h.Applications.Delete)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/rejection-reason-analytics/{year}", h.Analytics.Report(models.AnalyticsRejectionReason))
				r.Get("/source-analytics/{year}", h.Analytics.Report(models.AnalyticsSource))
				r.Get("/groups-analytics/{year}", h.Analytics.Report(models.AnalyticsGroups))
			})

			r.Post("/notifications/send/", h.Notifications.Send)
		})
	})

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/health", h.Health)
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func directory(r chi.Router, prefix string, d *users.Directory) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", d.List)
		r.Get("/{id}/", d.Get)
		r.Patch("/{id}/", d.Update)
		r.Delete("/{id}/", d.Delete)
	})
}

