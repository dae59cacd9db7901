// Package services реализует глобальный поиск по группам, заявкам,
// преподавателям и студентам.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

// Repository выполняет поиск по разделам.
type Repository interface {
	SearchGroups(ctx context.Context, q string) ([]models.Group, error)
	SearchApplications(ctx context.Context, q string) ([]models.ApplicationDetail, error)
	SearchTeachers(ctx context.Context, q string) ([]models.User, error)
	SearchStudents(ctx context.Context, q string) ([]models.User, error)
}

// Service выполняет глобальный поиск.
type Service struct {
	repo Repository
}

// New создаёт сервис поиска.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search ищет q во всех разделах или только в scope, если он задан.
func (s *Service) Search(ctx context.Context, q string, scope models.SearchScope) (*models.SearchResult, error) {
	const op = "services.search.Search"
	if scope != "" && !scope.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("Invalid model_type %q.", scope))
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return &models.SearchResult{}, nil
	}

	in := func(sc models.SearchScope) bool { return scope == "" || scope == sc }
	var (
		result models.SearchResult
		err    error
	)
	if in(models.ScopeGroups) {
		if result.Groups, err = s.repo.SearchGroups(ctx, q); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if in(models.ScopeApplications) {
		details, err := s.repo.SearchApplications(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result.Applications = make([]models.ApplicationListItem, 0, len(details))
		for _, d := range details {
			result.Applications = append(result.Applications, d.ListItem())
		}
	}
	if in(models.ScopeTeachers) {
		if result.Teachers, err = s.repo.SearchTeachers(ctx, q); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if in(models.ScopeStudents) {
		if result.Students, err = s.repo.SearchStudents(ctx, q); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &result, nil
}
