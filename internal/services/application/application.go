// Package services реализует жизненный цикл заявки: создание, изменение
// с накоплением оплаты, перевод в студенты, историю и выгрузку.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/magabrotheeeer/school-crm/internal/export"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/history"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

// ConvertedMessage — ответ на перевод заявки в студенты.
const ConvertedMessage = "Student successfully added!"

// ErrInvalidPayment — оплата не является целым числом.
var ErrInvalidPayment = &apperr.Error{Kind: apperr.KindNotAcceptable, Message: "Invalid payment value"}

// Repository описывает хранилище заявок.
type Repository interface {
	CreateApplication(ctx context.Context, in models.ApplicationInput, actor *models.Actor) (*models.Application, error)
	GetApplication(ctx context.Context, id int64) (*models.ApplicationDetail, error)
	ListApplications(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	ExportApplications(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationDetail, error)
	UpdateApplication(ctx context.Context, id int64, actor *models.Actor,
		mutate func(app *models.Application, student *models.User) error) (*models.Application, error)
	DeleteApplication(ctx context.Context, id int64, actor *models.Actor) (*models.Application, error)
	ListHistory(ctx context.Context, applicationID int64) ([]models.HistoryRecord, error)
}

// Cache сбрасывает кэшированные отчёты.
type Cache interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Service управляет заявками.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создаёт сервис заявок.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// AccumulatePayment складывает сохранённую и новую оплату. Обе суммы
// должны быть целыми; при пустой сохранённой сумме возвращается новая.
// Суммы не ограничены разрядностью int64.
func AccumulatePayment(stored *string, incoming string) (string, error) {
	add, ok := new(big.Int).SetString(strings.TrimSpace(incoming), 10)
	if !ok {
		return "", ErrInvalidPayment
	}
	if stored == nil || strings.TrimSpace(*stored) == "" {
		return add.String(), nil
	}
	base, ok := new(big.Int).SetString(strings.TrimSpace(*stored), 10)
	if !ok {
		return "", ErrInvalidPayment
	}
	return base.Add(base, add).String(), nil
}

// ApplyPatch применяет частичное обновление к заявке и её студенту.
func ApplyPatch(app *models.Application, student *models.User, p models.ApplicationPatch) error {
	if p.Status.Set {
		if !p.Status.Null && !p.Status.Value.Valid() {
			return apperr.NotAcceptable(fmt.Sprintf("%d is not a valid status.", p.Status.Value))
		}
		app.Status = p.Status.Ptr()
	}
	if p.DirectionID != nil {
		app.DirectionID = *p.DirectionID
	}
	if p.SourceID != nil {
		app.SourceID = *p.SourceID
	}
	if p.GroupID.Set {
		app.GroupID = p.GroupID.Ptr()
	}
	if p.Laptop != nil {
		app.Laptop = *p.Laptop
	}
	if p.RejectionReasonID.Set {
		app.RejectionReasonID = p.RejectionReasonID.Ptr()
	}
	if p.ReasonDescription.Set {
		app.ReasonDescription = p.ReasonDescription.Ptr()
	}

	sp := p.Student
	if sp == nil {
		return nil
	}
	if sp.FirstName != nil {
		student.FirstName = *sp.FirstName
	}
	if sp.LastName != nil {
		student.LastName = *sp.LastName
	}
	if sp.Phone != nil {
		student.Phone = *sp.Phone
	}
	if sp.Payment != nil {
		if student.Student == nil {
			student.Student = &models.StudentProfile{}
		}
		total, err := AccumulatePayment(student.Student.Payment, string(*sp.Payment))
		if err != nil {
			return err
		}
		student.Student.Payment = &total
	}
	return nil
}

// Create создаёт заявку и при необходимости студента.
func (s *Service) Create(ctx context.Context, in models.ApplicationInput, actor *models.Actor) (*models.Application, error) {
	const op = "services.application.Create"
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("%d is not a valid status.", *in.Status))
	}

	app, err := s.repo.CreateApplication(ctx, in, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, apperr.KindValidation))
	}
	metrics.ApplicationsCreated.Inc()
	s.invalidate(ctx, app.CreatedAt.Year())
	s.log.Info("application created", slog.Int64("id", app.ID), slog.Int64("student_id", app.StudentID))
	return app, nil
}

// Get возвращает заявку с историей изменений.
func (s *Service) Get(ctx context.Context, id int64) (*models.ApplicationDetail, error) {
	const op = "services.application.Get"
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, apperr.KindValidation))
	}
	records, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.History = history.Replay(records)
	return app, nil
}

// History возвращает журнал изменений заявки от новых к старым.
func (s *Service) History(ctx context.Context, id int64) ([]models.HistoryEntry, error) {
	const op = "services.application.History"
	records, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return history.Replay(records), nil
}

// List возвращает страницу заявок и общее количество.
func (s *Service) List(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationListItem, int, error) {
	const op = "services.application.List"
	if f.Status != nil && !f.Status.Valid() {
		return nil, 0, apperr.Validation("Invalid status filter.")
	}
	f.Page = f.Page.Normalize()

	details, total, err := s.repo.ListApplications(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	items := make([]models.ApplicationListItem, 0, len(details))
	for _, d := range details {
		items = append(items, d.ListItem())
	}
	return items, total, nil
}

// Update применяет частичное обновление в одной транзакции.
func (s *Service) Update(ctx context.Context, id int64, patch models.ApplicationPatch, actor *models.Actor) (*models.Application, error) {
	const op = "services.application.Update"
	app, err := s.repo.UpdateApplication(ctx, id, actor, func(app *models.Application, student *models.User) error {
		return ApplyPatch(app, student, patch)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err, apperr.KindNotAcceptable))
	}
	s.invalidate(ctx, app.CreatedAt.Year())
	return app, nil
}

// Delete удаляет заявку, оставляя снимок "-" в истории.
func (s *Service) Delete(ctx context.Context, id int64, actor *models.Actor) error {
	const op = "services.application.Delete"
	app, err := s.repo.DeleteApplication(ctx, id, actor)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err, apperr.KindValidation))
	}
	s.invalidate(ctx, app.CreatedAt.Year())
	s.log.Info("application deleted", slog.Int64("id", id))
	return nil
}

// Convert переводит заявку в студенты. Повторный вызов ничего не меняет.
func (s *Service) Convert(ctx context.Context, id int64, actor *models.Actor) (string, error) {
	const op = "services.application.Convert"
	changed := false
	app, err := s.repo.UpdateApplication(ctx, id, actor, func(app *models.Application, student *models.User) error {
		if app.Transaction {
			return storage.ErrNoChange
		}
		app.Transaction = true
		app.Status = nil
		if student.Student == nil {
			student.Student = &models.StudentProfile{}
		}
		studying := models.StudentStudying
		student.Student.Status = &studying
		changed = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err, apperr.KindValidation))
	}
	if changed {
		metrics.ApplicationsConverted.Inc()
		s.invalidate(ctx, app.CreatedAt.Year())
		s.log.Info("application converted", slog.Int64("id", id), slog.Int64("student_id", app.StudentID))
	}
	return ConvertedMessage, nil
}

// Export строит XLSX‑выгрузку заявок по фильтру.
func (s *Service) Export(ctx context.Context, f models.ApplicationFilter) (*bytes.Buffer, error) {
	const op = "services.application.Export"
	if f.Status != nil && !f.Status.Valid() {
		return nil, apperr.Validation("Invalid status filter.")
	}
	items, err := s.repo.ExportApplications(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	buf, err := export.Applications(items)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf, nil
}

func (s *Service) invalidate(ctx context.Context, year int) {
	if err := s.cache.Invalidate(ctx, models.AnalyticsCacheKeys(year)...); err != nil {
		s.log.Warn("failed to invalidate analytics cache", slog.Int("year", year), sl.Err(err))
	}
}

// mapError переводит ошибки хранилища в доменные. kind задаёт класс
// ошибок входных данных: 400 при создании, 406 при обновлении.
func mapError(err error, kind apperr.Kind) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Not found.", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Wrap(kind, uniqueMessage(storage.Constraint(err)), err)
	case errors.Is(err, storage.ErrReferenceMissing):
		return apperr.Wrap(kind, "Invalid pk - object does not exist.", err)
	}
	return err
}

func uniqueMessage(constraint string) string {
	switch constraint {
	case "users_phone_key":
		return "User with this phone already exists."
	case "users_email_key":
		return "User with this email already exists."
	}
	return "Object already exists."
}
