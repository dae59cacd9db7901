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

func (m *RepoMock) CreateGroup(ctx context.Context, g *models.Group) (int64, error) {
	args := m.Called(ctx, g)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *RepoMock) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.Group, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *RepoMock) UpdateGroup(ctx context.Context, g *models.Group) error {
	return m.Called(ctx, g).Error(0)
}

func (m *RepoMock) DeleteGroup(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type DirectionsMock struct{ mock.Mock }

func (m *DirectionsMock) Get(ctx context.Context, id int64) (*models.Direction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Direction), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) InvalidatePrefix(ctx context.Context, prefix string) error {
	return m.Called(ctx, prefix).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr[T any](v T) *T { return &v }

func TestEndDate(t *testing.T) {
	start := models.NewDate(2024, time.January, 1)

	tests := []struct {
		duration float64
		want     string
	}{
		{duration: 2, want: "2024-03-01"},
		{duration: 1.5, want: "2024-02-15"},
		{duration: 0.1, want: "2024-01-04"},
		{duration: 0, want: "2024-01-01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EndDate(start, tt.duration).String(), "duration %v", tt.duration)
	}
}

func TestService_Create(t *testing.T) {
	start := models.NewDate(2024, time.January, 1)

	tests := []struct {
		name       string
		group      models.Group
		setupMocks func(r *RepoMock, d *DirectionsMock)
		wantEnd    string
		wantErr    error
		wantKind   apperr.Kind
	}{
		{
			name:  "end date is start plus sixty days",
			group: models.Group{Name: "Python-1", DirectionID: ptr(int64(1)), StartDate: &start},
			setupMocks: func(r *RepoMock, d *DirectionsMock) {
				d.On("Get", mock.Anything, int64(1)).Return(&models.Direction{ID: 1, Duration: ptr(2.0)}, nil).Once()
				r.On("CreateGroup", mock.Anything, mock.MatchedBy(func(g *models.Group) bool {
					return g.EndDate != nil && g.EndDate.String() == "2024-03-01"
				})).Return(int64(10), nil).Once()
			},
			wantEnd: "2024-03-01",
		},
		{
			name:       "missing direction",
			group:      models.Group{Name: "No direction", StartDate: &start},
			setupMocks: func(_ *RepoMock, _ *DirectionsMock) {},
			wantErr:    ErrScheduleIncomplete,
			wantKind:   apperr.KindValidation,
		},
		{
			name:       "missing start date",
			group:      models.Group{Name: "No start", DirectionID: ptr(int64(1))},
			setupMocks: func(_ *RepoMock, _ *DirectionsMock) {},
			wantErr:    ErrScheduleIncomplete,
			wantKind:   apperr.KindValidation,
		},
		{
			name:  "direction without duration",
			group: models.Group{Name: "Null duration", DirectionID: ptr(int64(2)), StartDate: &start},
			setupMocks: func(_ *RepoMock, d *DirectionsMock) {
				d.On("Get", mock.Anything, int64(2)).Return(&models.Direction{ID: 2}, nil).Once()
			},
			wantErr:  ErrScheduleIncomplete,
			wantKind: apperr.KindValidation,
		},
		{
			name:  "unknown direction",
			group: models.Group{Name: "Ghost", DirectionID: ptr(int64(3)), StartDate: &start},
			setupMocks: func(_ *RepoMock, d *DirectionsMock) {
				d.On("Get", mock.Anything, int64(3)).Return(nil, storage.ErrNotFound).Once()
			},
			wantKind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			dirs := new(DirectionsMock)
			tt.setupMocks(repo, dirs)

			cache := new(CacheMock)
			svc := New(repo, dirs, cache, newNoopLogger())
			got, err := svc.Create(context.Background(), tt.group)

			if tt.wantKind != apperr.KindInternal {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, tt.wantKind))
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(10), got.ID)
				assert.Equal(t, tt.wantEnd, got.EndDate.String())
			}
			repo.AssertExpectations(t)
			dirs.AssertExpectations(t)
			cache.AssertNotCalled(t, "InvalidatePrefix", mock.Anything, mock.Anything)
		})
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	start := models.NewDate(2024, time.June, 1)
	repo := new(RepoMock)
	dirs := new(DirectionsMock)
	cache := new(CacheMock)
	svc := New(repo, dirs, cache, newNoopLogger())
	ctx := context.Background()

	cache.On("InvalidatePrefix", mock.Anything, models.AnalyticsCachePrefix).Return(nil).Once()

	dirs.On("Get", mock.Anything, int64(1)).Return(&models.Direction{ID: 1, Duration: ptr(1.0)}, nil)
	repo.On("UpdateGroup", mock.Anything, mock.MatchedBy(func(g *models.Group) bool {
		return g.ID == 7 && g.EndDate.String() == "2024-07-01"
	})).Return(nil).Once()
	repo.On("UpdateGroup", mock.Anything, mock.MatchedBy(func(g *models.Group) bool {
		return g.ID == 8
	})).Return(storage.ErrNotFound).Once()
	repo.On("DeleteGroup", mock.Anything, int64(9)).Return(errors.New("db down")).Once()

	g := models.Group{Name: "G", DirectionID: ptr(int64(1)), StartDate: &start}
	updated, err := svc.Update(ctx, 7, g)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", updated.EndDate.String())

	_, err = svc.Update(ctx, 8, g)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	err = svc.Delete(ctx, 9)
	require.Error(t, err)
	assert.Equal(t, 500, apperr.HTTPStatus(err))
	cache.AssertExpectations(t)
}

func TestService_DeleteInvalidatesReports(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	svc := New(repo, new(DirectionsMock), cache, newNoopLogger())

	repo.On("DeleteGroup", mock.Anything, int64(4)).Return(nil).Once()
	cache.On("InvalidatePrefix", mock.Anything, models.AnalyticsCachePrefix).Return(errors.New("redis down")).Once()

	require.NoError(t, svc.Delete(context.Background(), 4))
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
