// Package services реализует группы курсов и расчёт даты окончания.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

// ErrScheduleIncomplete — у группы нет направления с длительностью или даты начала.
var ErrScheduleIncomplete = &apperr.Error{
	Kind:    apperr.KindValidation,
	Message: "Group requires a start date and a direction with duration.",
}

// DaysPerMonth — число дней в месяце длительности направления.
const DaysPerMonth = 30

// Repository описывает хранилище групп.
type Repository interface {
	CreateGroup(ctx context.Context, g *models.Group) (int64, error)
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	ListGroups(ctx context.Context, f models.GroupFilter) ([]models.Group, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error
}

// DirectionReader возвращает направление по ID.
type DirectionReader interface {
	Get(ctx context.Context, id int64) (*models.Direction, error)
}

// Cache сбрасывает закэшированные отчёты.
type Cache interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Service управляет группами.
type Service struct {
	repo       Repository
	directions DirectionReader
	cache      Cache
	log        *slog.Logger
}

// New создаёт сервис групп.
func New(repo Repository, directions DirectionReader, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, directions: directions, cache: cache, log: log}
}

// EndDate возвращает start + floor(duration*30) дней.
func EndDate(start models.Date, duration float64) models.Date {
	return start.AddDays(int(math.Floor(duration * DaysPerMonth)))
}

func (s *Service) schedule(ctx context.Context, g *models.Group) error {
	if g.DirectionID == nil || g.StartDate == nil {
		return ErrScheduleIncomplete
	}
	d, err := s.directions.Get(ctx, *g.DirectionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.KindValidation, "Invalid pk - direction does not exist.", err)
		}
		return err
	}
	if d.Duration == nil {
		return ErrScheduleIncomplete
	}
	end := EndDate(*g.StartDate, *d.Duration)
	g.EndDate = &end
	return nil
}

// Create рассчитывает дату окончания и сохраняет группу.
func (s *Service) Create(ctx context.Context, g models.Group) (*models.Group, error) {
	const op = "services.group.Create"
	if err := s.schedule(ctx, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := s.repo.CreateGroup(ctx, &g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	g.ID = id
	s.log.Info("group created", slog.Int64("id", id), slog.String("end_date", g.EndDate.String()))
	return &g, nil
}

// Get возвращает группу.
func (s *Service) Get(ctx context.Context, id int64) (*models.Group, error) {
	const op = "services.group.Get"
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return g, nil
}

// List возвращает группы с поиском по названию.
func (s *Service) List(ctx context.Context, f models.GroupFilter) ([]models.Group, error) {
	const op = "services.group.List"
	groups, err := s.repo.ListGroups(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return groups, nil
}

// Update пересчитывает дату окончания и перезаписывает группу.
func (s *Service) Update(ctx context.Context, id int64, g models.Group) (*models.Group, error) {
	const op = "services.group.Update"
	g.ID = id
	if err := s.schedule(ctx, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdateGroup(ctx, &g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.invalidateReports(ctx)
	return &g, nil
}

// Delete удаляет группу.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "services.group.Delete"
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.invalidateReports(ctx)
	return nil
}

// invalidateReports сбрасывает годовые отчёты: отчёт по группам
// раскладывает заявки по направлению группы.
func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, models.AnalyticsCachePrefix); err != nil {
		s.log.Warn("failed to invalidate analytics cache", sl.Err(err))
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Not found.", err)
	case errors.Is(err, storage.ErrReferenceMissing):
		return apperr.Wrap(apperr.KindValidation, "Invalid pk - object does not exist.", err)
	}
	return err
}
