// Package search реализует HTTP-обработчик глобального поиска.
package search

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Service выполняет поиск по разделам.
type Service interface {
	Search(ctx context.Context, q string, scope models.SearchScope) (*models.SearchResult, error)
}

// Handler обрабатывает запросы поиска.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// ServeHTTP godoc
// @Summary Глобальный поиск
// @Description Поиск без учета регистра по группам, заявкам, преподавателям и студентам.
// @Tags Search
// @Produce json
// @Security BearerAuth
// @Param q query string false "Строка поиска"
// @Param model_type query string false "groups, applications, teachers или students"
// @Success 200 {object} response.Response{data=models.SearchResult}
// @Failure 400 {object} response.ErrorResponse
// @Router /applications/global-search/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.search")

	q := r.URL.Query()
	result, err := h.service.Search(r.Context(), q.Get("q"), models.SearchScope(q.Get("model_type")))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}
