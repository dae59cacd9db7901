package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) List(ctx context.Context) ([]models.Source, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Source), args.Error(1)
}

func (m *RepoMock) Get(ctx context.Context, id int64) (*models.Source, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Source), args.Error(1)
}

func (m *RepoMock) Create(ctx context.Context, item *models.Source) (*models.Source, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Source), args.Error(1)
}

func (m *RepoMock) Update(ctx context.Context, id int64, item *models.Source) (*models.Source, error) {
	args := m.Called(ctx, id, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Source), args.Error(1)
}

func (m *RepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) Table() string { return "sources" }

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_List(t *testing.T) {
	sources := []models.Source{{ID: 1, Name: "Instagram"}}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		want       []models.Source
		wantErr    bool
	}{
		{
			name: "cache hit",
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "catalog:sources", mock.Anything).
					Run(func(args mock.Arguments) {
						*args.Get(2).(*[]models.Source) = sources
					}).Return(true, nil).Once()
			},
			want: sources,
		},
		{
			name: "cache miss loads and stores",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "catalog:sources", mock.Anything).Return(false, nil).Once()
				r.On("List", mock.Anything).Return(sources, nil).Once()
				c.On("Set", mock.Anything, "catalog:sources", sources, time.Hour).Return(nil).Once()
			},
			want: sources,
		},
		{
			name: "cache failure is not fatal",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "catalog:sources", mock.Anything).Return(false, errors.New("down")).Once()
				r.On("List", mock.Anything).Return(sources, nil).Once()
				c.On("Set", mock.Anything, "catalog:sources", sources, time.Hour).Return(errors.New("down")).Once()
			},
			want: sources,
		},
		{
			name: "repository error",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "catalog:sources", mock.Anything).Return(false, nil).Once()
				r.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			svc := New[models.Source](repo, cache, time.Hour, newNoopLogger())
			got, err := svc.List(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_WritesInvalidateCache(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New[models.Source](repo, cache, time.Hour, newNoopLogger())
	ctx := context.Background()

	item := &models.Source{Name: "Telegram"}
	repo.On("Create", mock.Anything, item).Return(&models.Source{ID: 5, Name: "Telegram"}, nil).Once()
	repo.On("Update", mock.Anything, int64(5), item).Return(&models.Source{ID: 5, Name: "Telegram"}, nil).Once()
	repo.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	cache.On("Invalidate", mock.Anything, []string{"catalog:sources"}).Return(nil).Times(3)
	cache.On("InvalidatePrefix", mock.Anything, "analytics:").Return(nil).Times(3)

	created, err := svc.Create(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)

	_, err = svc.Update(ctx, 5, item)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 5))

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_ErrorMapping(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New[models.Source](repo, cache, time.Hour, newNoopLogger())
	ctx := context.Background()

	repo.On("Get", mock.Anything, int64(404)).Return(nil, storage.ErrNotFound).Once()
	repo.On("Delete", mock.Anything, int64(404)).Return(storage.ErrNotFound).Once()

	_, err := svc.Get(ctx, 404)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Not found.", apperr.Message(err, ""))

	err = svc.Delete(ctx, 404)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "InvalidatePrefix", mock.Anything, mock.Anything)
}

func TestService_AnalyticsInvalidationFailureIsLogged(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New[models.Source](repo, cache, time.Hour, newNoopLogger())

	item := &models.Source{Name: "Instagram"}
	repo.On("Update", mock.Anything, int64(1), item).Return(&models.Source{ID: 1, Name: "Instagram"}, nil).Once()
	cache.On("Invalidate", mock.Anything, []string{"catalog:sources"}).Return(nil).Once()
	cache.On("InvalidatePrefix", mock.Anything, "analytics:").Return(errors.New("redis down")).Once()

	updated, err := svc.Update(context.Background(), 1, item)
	require.NoError(t, err)
	assert.Equal(t, "Instagram", updated.Name)
	cache.AssertExpectations(t)
}
