// Package applications реализует HTTP-обработчики заявок: список, выгрузку,
// создание, карточку с историей, изменение, удаление и перевод в студенты.
package applications

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/http/request"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// xlsxContentType — MIME‑тип выгрузки.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service описывает интерфейс бизнес-логики заявок.
type Service interface {
	Create(ctx context.Context, in models.ApplicationInput, actor *models.Actor) (*models.Application, error)
	Get(ctx context.Context, id int64) (*models.ApplicationDetail, error)
	History(ctx context.Context, id int64) ([]models.HistoryEntry, error)
	List(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationListItem, int, error)
	Update(ctx context.Context, id int64, patch models.ApplicationPatch, actor *models.Actor) (*models.Application, error)
	Delete(ctx context.Context, id int64, actor *models.Actor) error
	Convert(ctx context.Context, id int64, actor *models.Actor) (string, error)
	Export(ctx context.Context, f models.ApplicationFilter) (*bytes.Buffer, error)
}

// ListResponse — страница заявок.
type ListResponse struct {
	Count   int                          `json:"count"`
	Results []models.ApplicationListItem `json:"results"`
}

// Handler обрабатывает HTTP-запросы заявок.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// filter читает status, search, ordering и пагинацию из строки запроса.
func filter(r *http.Request) (models.ApplicationFilter, error) {
	q := r.URL.Query()
	f := models.ApplicationFilter{
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
	}
	if v := q.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.Validation(fmt.Sprintf("invalid status %q", v))
		}
		status := models.ApplicationStatus(n)
		f.Status = &status
	}
	page, err := request.Page(r)
	if err != nil {
		return f, err
	}
	f.Page = page
	return f, nil
}

// List godoc
// @Summary Список заявок
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query int false "Статус 1..4"
// @Param search query string false "Поиск по студенту и группе"
// @Param ordering query string false "created_at, updated_at, status; '-' для убывания"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 400 {object} response.ErrorResponse
// @Router /applications/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.List")

	f, err := filter(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	items, total, err := h.service.List(r.Context(), f)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(ListResponse{Count: total, Results: items}))
}

// Export godoc
// @Summary Выгрузка заявок в Excel
// @Tags Applications
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param status query int false "Статус 1..4"
// @Param search query string false "Поиск по студенту и группе"
// @Success 200 {file} file
// @Router /applications/export/ [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Export")

	f, err := filter(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	buf, err := h.service.Export(r.Context(), f)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="applications.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err = buf.WriteTo(w); err != nil {
		log.Error("failed to write export", sl.Err(err))
	}
}

// Create godoc
// @Summary Создание заявки
// @Description Находит или создает студента по имени, фамилии, телефону и email.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ApplicationInput true "Заявка"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /applications/create/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Create")

	var req models.ApplicationInput
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	app, err := h.service.Create(r.Context(), req, middlewarectx.ActorFrom(r.Context()))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("application created", slog.Int64("application_id", app.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"message": app}))
}

// Get godoc
// @Summary Заявка с историей изменений
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /applications/{id}/ [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Get")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	app, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(app))
}

// History godoc
// @Summary Журнал изменений заявки
// @Description Записи от новых к старым, у самой старой изменения пустые.
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 200 {object} response.Response
// @Router /applications/{id}/history/ [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.History")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(entries))
}

// Update godoc
// @Summary Изменение заявки
// @Description Частичное обновление. Оплата студента суммируется с сохраненной.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Param request body models.ApplicationPatch true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 406 {object} response.ErrorResponse "Invalid payment value"
// @Router /applications/{id}/ [put]
// @Router /applications/{id}/ [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Update")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	var req models.ApplicationPatch
	if err := request.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, log, apperr.Wrap(apperr.KindNotAcceptable, apperr.Message(err, "invalid request body"), err))
		return
	}
	if err := h.Validate.Struct(&req); err != nil {
		response.WriteValidation(w, r, http.StatusNotAcceptable, err)
		return
	}
	app, err := h.service.Update(r.Context(), id, req, middlewarectx.ActorFrom(r.Context()))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(app))
}

// Delete godoc
// @Summary Удаление заявки
// @Tags Applications
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /applications/{id}/ [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Delete")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id, middlewarectx.ActorFrom(r.Context())); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("application deleted", slog.Int64("application_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Convert godoc
// @Summary Перевод заявки в студенты
// @Description Повторный вызов для уже переведенной заявки ничего не меняет.
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID заявки"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /applications/student/add/{id} [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.applications.Convert")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	msg, err := h.service.Convert(r.Context(), id, middlewarectx.ActorFrom(r.Context()))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": msg}))
}
