// Package services строит годовые отчёты по заявкам.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Repository считает агрегаты отчёта.
type Repository interface {
	Analytics(ctx context.Context, kind models.AnalyticsKind, year int) (*models.AnalyticsReport, error)
}

// Cache хранит готовые отчёты.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service отдаёт отчёты, кэшируя их в Redis.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт сервис аналитики.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

// Report возвращает отчёт вида kind за год year.
func (s *Service) Report(ctx context.Context, kind models.AnalyticsKind, year int) (*models.AnalyticsReport, error) {
	const op = "services.analytics.Report"
	log := s.log.With(slog.String("op", op), slog.String("kind", string(kind)), slog.Int("year", year))

	if !kind.Valid() {
		return nil, apperr.NotFound("Unknown report.")
	}
	if year < 1 || year > 9999 {
		return nil, apperr.Validation("Invalid year.")
	}

	key := models.AnalyticsCacheKey(kind, year)
	var cached models.AnalyticsReport
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("failed to read report from cache", sl.Err(err))
	}
	if found {
		log.Debug("report served from cache")
		return &cached, nil
	}

	report, err := s.repo.Analytics(ctx, kind, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
		log.Warn("failed to cache report", sl.Err(err))
	}
	return report, nil
}
