// Package services реализует CRUD справочников с кэшированием списков в Redis.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

// Repository — таблица справочника.
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, item *T) (*T, error)
	Update(ctx context.Context, id int64, item *T) (*T, error)
	Delete(ctx context.Context, id int64) error
	Table() string
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Service — CRUD одного справочника.
type Service[T any] struct {
	repo  Repository[T]
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт сервис справочника.
func New[T any](repo Repository[T], cache Cache, ttl time.Duration, log *slog.Logger) *Service[T] {
	return &Service[T]{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log.With(slog.String("catalog", repo.Table())),
	}
}

// CacheKey — ключ кэша списка справочника.
func (s *Service[T]) CacheKey() string {
	return "catalog:" + s.repo.Table()
}

// List возвращает все записи, используя кэш.
func (s *Service[T]) List(ctx context.Context) ([]T, error) {
	const op = "services.catalog.List"
	key := s.CacheKey()

	var items []T
	found, err := s.cache.Get(ctx, key, &items)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return items, nil
	}

	items, err = s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, key, items, s.ttl); err != nil {
		s.log.Warn("failed to cache list", slog.String("key", key), sl.Err(err))
	}
	return items, nil
}

// Get возвращает запись по ID.
func (s *Service[T]) Get(ctx context.Context, id int64) (*T, error) {
	const op = "services.catalog.Get"
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return item, nil
}

// Create добавляет запись.
func (s *Service[T]) Create(ctx context.Context, item *T) (*T, error) {
	const op = "services.catalog.Create"
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.invalidate(ctx)
	return created, nil
}

// Update перезаписывает запись.
func (s *Service[T]) Update(ctx context.Context, id int64, item *T) (*T, error) {
	const op = "services.catalog.Update"
	updated, err := s.repo.Update(ctx, id, item)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete удаляет запись.
func (s *Service[T]) Delete(ctx context.Context, id int64) error {
	const op = "services.catalog.Delete"
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.invalidate(ctx)
	return nil
}

// invalidate сбрасывает список справочника и годовые отчёты: в отчётах
// показываются названия и цвета записей справочников.
func (s *Service[T]) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, s.CacheKey()); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", s.CacheKey()), sl.Err(err))
	}
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
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperr.Wrap(apperr.KindValidation, "Object already exists.", err)
	}
	return err
}
