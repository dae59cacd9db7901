// Package catalog реализует HTTP-обработчики справочников: направлений,
// времени занятий, статусов групп, источников и причин отказа.
package catalog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
)

// Service описывает CRUD одного справочника.
type Service[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, item *T) (*T, error)
	Update(ctx context.Context, id int64, item *T) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Handler обслуживает один справочник.
type Handler[T any] struct {
	handlers.Base
	service Service[T]
	name    string
}

// New создает обработчик справочника name.
func New[T any](log *slog.Logger, name string, service Service[T]) *Handler[T] {
	return &Handler[T]{
		Base:    handlers.NewBase(log.With(slog.String("catalog", name))),
		service: service,
		name:    name,
	}
}

// Routes регистрирует маршруты справочника относительно r.
func (h *Handler[T]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}/", h.Get)
	r.Put("/{id}/", h.Update)
	r.Delete("/{id}/", h.Delete)
}

// List godoc
// @Summary Список записей справочника
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /directions/ [get]
// @Router /times/ [get]
// @Router /group-status/ [get]
// @Router /source/ [get]
// @Router /rejection-reason/ [get]
func (h *Handler[T]) List(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.catalog.List")

	items, err := h.service.List(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(items))
}

// Get godoc
// @Summary Запись справочника
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /directions/{id}/ [get]
func (h *Handler[T]) Get(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.catalog.Get")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(item))
}

// Create godoc
// @Summary Создание записи справочника
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /directions/ [post]
func (h *Handler[T]) Create(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.catalog.Create")

	item := new(T)
	if !h.Decode(w, r, log, item, http.StatusBadRequest) {
		return
	}
	created, err := h.service.Create(r.Context(), item)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("catalog item created")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(created))
}

// Update godoc
// @Summary Изменение записи справочника
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /directions/{id}/ [put]
func (h *Handler[T]) Update(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.catalog.Update")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	item := new(T)
	if !h.Decode(w, r, log, item, http.StatusBadRequest) {
		return
	}
	updated, err := h.service.Update(r.Context(), id, item)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(updated))
}

// Delete godoc
// @Summary Удаление записи справочника
// @Tags Catalog
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /directions/{id}/ [delete]
func (h *Handler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.catalog.Delete")

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("catalog item deleted", slog.Int64("id", id))
	w.WriteHeader(http.StatusNoContent)
}
