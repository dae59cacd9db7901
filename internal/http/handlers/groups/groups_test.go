package groups

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
	groupservice "github.com/magabrotheeeer/school-crm/internal/services/group"
)

type GroupServiceMock struct {
	mock.Mock
}

func (m *GroupServiceMock) Create(ctx context.Context, g models.Group) (*models.Group, error) {
	args := m.Called(ctx, g)
	res, _ := args.Get(0).(*models.Group)
	return res, args.Error(1)
}

func (m *GroupServiceMock) Get(ctx context.Context, id int64) (*models.Group, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Group)
	return res, args.Error(1)
}

func (m *GroupServiceMock) List(ctx context.Context, f models.GroupFilter) ([]models.Group, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).([]models.Group)
	return res, args.Error(1)
}

func (m *GroupServiceMock) Update(ctx context.Context, id int64, g models.Group) (*models.Group, error) {
	args := m.Called(ctx, id, g)
	res, _ := args.Get(0).(*models.Group)
	return res, args.Error(1)
}

func (m *GroupServiceMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func serve(t *testing.T, svc Service, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/groups", New(newNoopLogger(), svc).Routes)

	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var resp map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(m *GroupServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "created with computed end date",
			body: `{"name":"Go-1","direction":1,"audience":2,"timetable":1,"start_date":"2024-01-01"}`,
			setupMock: func(m *GroupServiceMock) {
				end := models.NewDate(2024, 3, 1)
				m.On("Create", mock.Anything, mock.MatchedBy(func(g models.Group) bool {
					return g.Name == "Go-1" && g.StartDate != nil && g.StartDate.String() == "2024-01-01"
				})).Return(&models.Group{ID: 3, Name: "Go-1", EndDate: &end}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "audience out of range",
			body:           `{"name":"Go-1","audience":4,"timetable":1}`,
			setupMock:      func(_ *GroupServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field audience must be at most 3",
		},
		{
			name: "schedule incomplete",
			body: `{"name":"Go-1","audience":1,"timetable":2}`,
			setupMock: func(m *GroupServiceMock) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, groupservice.ErrScheduleIncomplete).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      groupservice.ErrScheduleIncomplete.Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(GroupServiceMock)
			tt.setupMock(svc)

			rr, resp := serve(t, svc, http.MethodPost, "/groups/", tt.body)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			} else {
				assert.Equal(t, "2024-03-01", resp["data"].(map[string]any)["end_date"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_ReadUpdateDelete(t *testing.T) {
	svc := new(GroupServiceMock)
	svc.On("List", mock.Anything, models.GroupFilter{Search: "go", Page: models.Page{Limit: models.DefaultLimit}}).
		Return([]models.Group{{ID: 1, Name: "Go-1"}}, nil).Once()
	svc.On("Get", mock.Anything, int64(2)).Return(nil, apperr.NotFound("Not found.")).Once()
	svc.On("Update", mock.Anything, int64(1), mock.Anything).Return(&models.Group{ID: 1, Name: "Go-2"}, nil).Once()
	svc.On("Delete", mock.Anything, int64(1)).Return(nil).Once()

	rr, resp := serve(t, svc, http.MethodGet, "/groups/?search=go", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, resp["data"], 1)

	rr, _ = serve(t, svc, http.MethodGet, "/groups/2/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = serve(t, svc, http.MethodPut, "/groups/1/", `{"name":"Go-2","audience":1,"timetable":1}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = serve(t, svc, http.MethodDelete, "/groups/1/", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}
