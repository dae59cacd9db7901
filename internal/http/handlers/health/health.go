// Package health реализует проверку доступности сервиса и его зависимостей.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
)

// checkTimeout ограничивает время одной проверки.
const checkTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc адаптирует функцию к Pinger.
type PingFunc func(ctx context.Context) error

// Ping реализует Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler отвечает 200, если все зависимости доступны, иначе 503.
type Handler struct {
	log    *slog.Logger
	checks map[string]Pinger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, checks map[string]Pinger) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

// ServeHTTP godoc
// @Summary Проверка здоровья
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := h.log.With(slog.String("op", op))

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	result := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := h.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			log.Warn("dependency unavailable", slog.String("dependency", name), sl.Err(err))
			result[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	w.WriteHeader(status)
	if status != http.StatusOK {
		render.JSON(w, r, response.Response{Status: response.StatusError, Data: result})
		return
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}
