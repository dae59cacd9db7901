// Package users реализует HTTP-обработчики справочника пользователей:
// регистрацию, профиль, списки преподавателей, студентов и сотрудников,
// архивацию.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/school-crm/internal/http/handlers"
	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/http/request"
	"github.com/magabrotheeeer/school-crm/internal/http/response"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
	userservice "github.com/magabrotheeeer/school-crm/internal/services/user"
)

// Service описывает интерфейс бизнес-логики пользователей.
type Service interface {
	RegisterOfficeManager(ctx context.Context, in models.OfficeManagerInput) (*models.User, error)
	RegisterTeacher(ctx context.Context, in models.TeacherInput) (*models.User, error)
	RegisterStudent(ctx context.Context, in models.StudentInput) (*models.User, error)
	List(ctx context.Context, role models.Role, f models.UserFilter) ([]models.User, error)
	Staff(ctx context.Context, search string) ([]models.Profile, error)
	Get(ctx context.Context, role models.Role, id int64) (*models.User, error)
	Update(ctx context.Context, role models.Role, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, role models.Role, id int64) error
	Profile(ctx context.Context, id int64) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) (*models.Profile, error)
	SetArchive(ctx context.Context, id int64, archive bool) error
}

// Handler обрабатывает HTTP-запросы пользователей.
type Handler struct {
	handlers.Base
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{Base: handlers.NewBase(log), service: service}
}

func (h *Handler) created(w http.ResponseWriter, r *http.Request, log *slog.Logger, u *models.User, err error) {
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("user registered", slog.Int64("user_id", u.ID), slog.String("role", string(u.Role)))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(u))
}

// RegisterOfficeManager godoc
// @Summary Регистрация офис-менеджера
// @Description Создает сотрудника и отправляет ему сгенерированный пароль на почту.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OfficeManagerInput true "Офис-менеджер"
// @Success 201 {object} response.Response
// @Failure 406 {object} response.ErrorResponse
// @Router /users/register/office_manager/ [post]
func (h *Handler) RegisterOfficeManager(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.RegisterOfficeManager")

	var req models.OfficeManagerInput
	if !h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	u, err := h.service.RegisterOfficeManager(r.Context(), req)
	h.created(w, r, log, u, err)
}

// RegisterTeacher godoc
// @Summary Регистрация преподавателя
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.TeacherInput true "Преподаватель"
// @Success 201 {object} response.Response
// @Failure 406 {object} response.ErrorResponse
// @Router /users/register/teacher/ [post]
func (h *Handler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.RegisterTeacher")

	var req models.TeacherInput
	if !h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	u, err := h.service.RegisterTeacher(r.Context(), req)
	h.created(w, r, log, u, err)
}

// RegisterStudent godoc
// @Summary Регистрация студента
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.StudentInput true "Студент"
// @Success 201 {object} response.Response
// @Failure 406 {object} response.ErrorResponse
// @Router /users/register/student/ [post]
func (h *Handler) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.RegisterStudent")

	var req models.StudentInput
	if !h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	u, err := h.service.RegisterStudent(r.Context(), req)
	h.created(w, r, log, u, err)
}

// Staff godoc
// @Summary Все сотрудники
// @Description Офис-менеджеры и преподаватели с поиском по имени, телефону и email.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Строка поиска"
// @Success 200 {object} response.Response
// @Router /users/all_staff/ [get]
func (h *Handler) Staff(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.Staff")

	staff, err := h.service.Staff(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(staff))
}

// Profile godoc
// @Summary Профиль текущего пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users/profile/me/ [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.Profile")

	id, ok := h.currentUser(w, r, log)
	if !ok {
		return
	}
	p, err := h.service.Profile(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

// UpdateProfile godoc
// @Summary Изменение профиля
// @Description Меняет имя, фамилию, телефон и email текущего пользователя.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UserPatch true "Поля профиля"
// @Success 200 {object} response.Response
// @Failure 406 {object} response.ErrorResponse
// @Router /users/profile/me/ [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	log := h.Logger(r, "handlers.users.UpdateProfile")

	id, ok := h.currentUser(w, r, log)
	if !ok {
		return
	}
	var req models.UserPatch
	if !h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	p, err := h.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(p))
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int64, bool) {
	id, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		response.WriteError(w, r, log, apperr.AuthenticationFailed("Authentication credentials were not provided."))
	}
	return id, ok
}

// Archive godoc
// @Summary Архивация пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "This user is already archived!"
// @Failure 404 {object} response.ErrorResponse
// @Router /applications/user/archive/{id} [post]
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchive(w, r, "handlers.users.Archive", true, userservice.Archived)
}

// Unarchive godoc
// @Summary Возврат пользователя из архива
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "This user is already unarchived!"
// @Failure 404 {object} response.ErrorResponse
// @Router /applications/user/unarchive/{id} [post]
func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchive(w, r, "handlers.users.Unarchive", false, userservice.Unarchived)
}

func (h *Handler) setArchive(w http.ResponseWriter, r *http.Request, op string, archive bool, msg string) {
	log := h.Logger(r, op)

	id, ok := h.ID(w, r, log)
	if !ok {
		return
	}
	if err := h.service.SetArchive(r.Context(), id, archive); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"message": msg}))
}

// Directory возвращает обработчики списка и карточки пользователей роли
// role: преподавателей или студентов.
func (h *Handler) Directory(role models.Role) *Directory {
	return &Directory{h: h, role: role}
}

// Directory обслуживает /teachers/ и /students/.
type Directory struct {
	h    *Handler
	role models.Role
}

// List godoc
// @Summary Список преподавателей или студентов
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param search query string false "Строка поиска"
// @Param ordering query string false "Поле сортировки, '-' для убывания"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /teachers/ [get]
// @Router /students/ [get]
func (d *Directory) List(w http.ResponseWriter, r *http.Request) {
	log := d.h.Logger(r, "handlers.users.List").With(slog.String("role", string(d.role)))

	page, err := request.Page(r)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	q := r.URL.Query()
	list, err := d.h.service.List(r.Context(), d.role, models.UserFilter{
		Search:   q.Get("search"),
		Ordering: q.Get("ordering"),
		Page:     page,
	})
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(list))
}

// Get godoc
// @Summary Карточка преподавателя или студента
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /teachers/{id}/ [get]
// @Router /students/{id}/ [get]
func (d *Directory) Get(w http.ResponseWriter, r *http.Request) {
	log := d.h.Logger(r, "handlers.users.Get").With(slog.String("role", string(d.role)))

	id, ok := d.h.ID(w, r, log)
	if !ok {
		return
	}
	u, err := d.h.service.Get(r.Context(), d.role, id)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u))
}

// Update godoc
// @Summary Изменение преподавателя или студента
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Param request body models.UserPatch true "Изменяемые поля"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 406 {object} response.ErrorResponse
// @Router /teachers/{id}/ [patch]
// @Router /students/{id}/ [patch]
func (d *Directory) Update(w http.ResponseWriter, r *http.Request) {
	log := d.h.Logger(r, "handlers.users.Update").With(slog.String("role", string(d.role)))

	id, ok := d.h.ID(w, r, log)
	if !ok {
		return
	}
	var req models.UserPatch
	if !d.h.Decode(w, r, log, &req, http.StatusNotAcceptable) {
		return
	}
	u, err := d.h.service.Update(r.Context(), d.role, id, req)
	if err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(u))
}

// Delete godoc
// @Summary Удаление преподавателя или студента
// @Tags Users
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 204
// @Failure 404 {object} response.ErrorResponse
// @Router /teachers/{id}/ [delete]
// @Router /students/{id}/ [delete]
func (d *Directory) Delete(w http.ResponseWriter, r *http.Request) {
	log := d.h.Logger(r, "handlers.users.Delete").With(slog.String("role", string(d.role)))

	id, ok := d.h.ID(w, r, log)
	if !ok {
		return
	}
	if err := d.h.service.Delete(r.Context(), d.role, id); err != nil {
		response.WriteError(w, r, log, err)
		return
	}
	log.Info("user deleted", slog.Int64("user_id", id))
	w.WriteHeader(http.StatusNoContent)
}
