// Package analytics реализует HTTP-обработчики годовых отчетов по заявкам.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Service строит отчет вида kind за год.
type Service interface {
	Report(ctx context.Context, kind models.AnalyticsKind, year int) (*models.AnalyticsReport, error)
}

// Handler обрабатывает запросы отчетов.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// Report godoc
// @Summary Годовой отчет по заявкам
// @Description rejection-reason: непереведенные заявки по причинам отказа; source: переведенные по источникам; groups: переведенные по направлениям групп.
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param year path int true "Год"
// @Success 200 {object} response.Response{data=models.AnalyticsReport}
// @Failure 404 {object} response.ErrorResponse
// @Router /analytics/rejection-reason-analytics/{year} [get]
// @Router /analytics/source-analytics/{year} [get]
// @Router /analytics/groups-analytics/{year} [get]
func (h *Handler) Report(kind models.AnalyticsKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.Logger(r, "handlers.analytics.Report").With(slog.String("kind", string(kind)))

		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			response.WriteError(w, r, log, apperr.NotFound("Not found."))
			return
		}
		report, err := h.service.Report(r.Context(), kind, year)
		if err != nil {
			response.WriteError(w, r, log, err)
			return
		}
		render.JSON(w, r, response.StatusOKWithData(report))
	}
}
