// Package groups реализует HTTP-обработчики групп.
package groups

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/request"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Service описывает интерфейс бизнес-логики групп.
type Service interface {
	Create(ctx context.Context, g models.Group) (*models.Group, error)
	Get(ctx context.Context, id int64) (*models.Group, error)
	List(ctx context.Context, f models.GroupFilter) ([]models.Group, error)
	Update(ctx context.Context, id int64, g models.Group) (*models.Group, error)
	Delete(ctx context.Context, id int64) error
}

// Handler обрабатывает HTTP-запросы групп.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

// Routes регистрирует маршруты групп относительно r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}/", h.Get)
	r.Put("/{id}/", h.Update)
	r.Delete("/{id}/", h.Delete)
}

// List godoc
// @Summary Список групп
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param search query string false "Поиск по названию"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /groups/ [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.groups.List")

	page, err := request.Page(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	list, err := h.service.List(r.Context(), models.GroupFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Create godoc
// @Summary Создание группы
// @Description Дата окончания вычисляется по длительности направления.
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.Group true "Группа"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /groups/ [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.groups.Create")

	var req models.Group
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	g, err := h.service.Create(r.Context(), req)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("group created", slog.Int64("group_id", g.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(g))
}

// Get godoc
// @Summary Группа
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID группы"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /groups/{id}/ [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.groups.Get")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	g, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(g))
}

// Update godoc
// @Summary Изменение группы
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID группы"
// @Param request body models.Group true "Группа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /groups/{id}/ [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.groups.Update")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	var req models.Group
	if !h.Decode(w, r, log, &req, http.StatusBadRequest) {
		return
	}
	g, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(g))
}

// Delete godoc
// @Summary Удаление группы
// @Tags Groups
// @Security BearerAuth
// @Param id path int true "ID группы"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /groups/{id}/ [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.groups.Delete")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("group deleted", slog.Int64("group_id", id))
	w.WriteHeader(http.StatusNoContent)
}
