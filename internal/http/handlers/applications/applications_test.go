package applications

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

	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/models"
	appservice "github.com/magabrotheeeer/school-crm/internal/services/application"
)

type AppServiceMock struct {
	mock.Mock
}

func (m *AppServiceMock) Create(ctx context.Context, in models.ApplicationInput, actor *models.Actor) (*models.Application, error) {
	args := m.Called(ctx, in, actor)
	app, _ := args.Get(0).(*models.Application)
	return app, args.Error(1)
}

func (m *AppServiceMock) Get(ctx context.Context, id int64) (*models.ApplicationDetail, error) {
	args := m.Called(ctx, id)
	app, _ := args.Get(0).(*models.ApplicationDetail)
	return app, args.Error(1)
}

func (m *AppServiceMock) History(ctx context.Context, id int64) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, id)
	entries, _ := args.Get(0).([]models.HistoryEntry)
	return entries, args.Error(1)
}

func (m *AppServiceMock) List(ctx context.Context, f models.ApplicationFilter) ([]models.ApplicationListItem, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.ApplicationListItem)
	return items, args.Int(1), args.Error(2)
}

func (m *AppServiceMock) Update(ctx context.Context, id int64, patch models.ApplicationPatch, actor *models.Actor) (*models.Application, error) {
	args := m.Called(ctx, id, patch, actor)
	app, _ := args.Get(0).(*models.Application)
	return app, args.Error(1)
}

func (m *AppServiceMock) Delete(ctx context.Context, id int64, actor *models.Actor) error {
	return m.Called(ctx, id, actor).Error(0)
}

func (m *AppServiceMock) Convert(ctx context.Context, id int64, actor *models.Actor) (string, error) {
	args := m.Called(ctx, id, actor)
	return args.String(0), args.Error(1)
}

func (m *AppServiceMock) Export(ctx context.Context, f models.ApplicationFilter) (*bytes.Buffer, error) {
	args := m.Called(ctx, f)
	buf, _ := args.Get(0).(*bytes.Buffer)
	return buf, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var actor = &models.Actor{ID: 1, Email: "admin@crm.kg"}

func newRouter(svc Service) http.Handler {
	h := New(newNoopLogger(), svc)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middlewarectx.WithUser(r.Context(), actor.ID, actor.Email, models.DisplaySuperAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.Get("/applications/", h.List)
	r.Get("/applications/export/", h.Export)
	r.Post("/applications/create/", h.Create)
	r.Get("/applications/{id}/", h.Get)
	r.Get("/applications/{id}/history/", h.History)
	r.Put("/applications/{id}/", h.Update)
	r.Patch("/applications/{id}/", h.Update)
	r.Delete("/applications/{id}/", h.Delete)
	r.Post("/applications/student/add/{id}", h.Convert)
	return r
}

func serve(t *testing.T, svc Service, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rr, req)

	var resp map[string]any
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") != xlsxContentType {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestHandler_Create(t *testing.T) {
	valid := `{"student":{"first_name":"Aizada","last_name":"Bekova","phone":"+996700000001","email":"a@crm.kg"},"direction":1,"source":2}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *AppServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name: "created",
			body: valid,
			setupMock: func(m *AppServiceMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in models.ApplicationInput) bool {
					return in.Student.Phone == "+996700000001" && in.DirectionID == 1 && in.SourceID == 2
				}), actor).Return(&models.Application{ID: 10, StudentID: 4}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid phone prefix",
			body:           `{"student":{"first_name":"A","last_name":"B","phone":"+777000000011","email":"a@crm.kg"},"direction":1,"source":2}`,
			setupMock:      func(_ *AppServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field phone: Phone number should start with +996",
		},
		{
			name:           "missing direction",
			body:           `{"student":{"first_name":"A","last_name":"B","phone":"+996700000001","email":"a@crm.kg"},"source":2}`,
			setupMock:      func(_ *AppServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field direction is a required field",
		},
		{
			name: "phone taken by another user",
			body: valid,
			setupMock: func(m *AppServiceMock) {
				m.On("Create", mock.Anything, mock.Anything, actor).
					Return(nil, apperr.Validation("user with this phone already exists.")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "user with this phone already exists.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AppServiceMock)
			tt.setupMock(svc)

			rr, resp := serve(t, svc, http.MethodPost, "/applications/create/", tt.body)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, "Error", resp["status"])
				assert.Equal(t, tt.wantError, resp["error"])
			} else {
				msg := resp["data"].(map[string]any)["message"].(map[string]any)
				assert.Equal(t, float64(10), msg["id"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_List(t *testing.T) {
	status := models.StatusBookedTrial
	svc := new(AppServiceMock)
	svc.On("List", mock.Anything, models.ApplicationFilter{
		Status:   &status,
		Search:   "aiz",
		Ordering: "-created_at",
		Page:     models.Page{Limit: 10, Offset: 0},
	}).Return([]models.ApplicationListItem{{ID: 1, Status: &status}}, 31, nil).Once()

	rr, resp := serve(t, svc, http.MethodGet, "/applications/?status=2&search=aiz&ordering=-created_at&limit=10", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	data := resp["data"].(map[string]any)
	assert.Equal(t, float64(31), data["count"])
	assert.Len(t, data["results"], 1)

	rr, _ = serve(t, svc, http.MethodGet, "/applications/?status=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		setupMock      func(m *AppServiceMock)
		wantStatusCode int
		wantError      string
	}{
		{
			name:   "payment accumulated",
			method: http.MethodPatch,
			body:   `{"student":{"payment":"500"}}`,
			setupMock: func(m *AppServiceMock) {
				m.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p models.ApplicationPatch) bool {
					return p.Student != nil && p.Student.Payment != nil && *p.Student.Payment == "500"
				}), actor).Return(&models.Application{ID: 1}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:   "status set to null",
			method: http.MethodPut,
			body:   `{"status":null}`,
			setupMock: func(m *AppServiceMock) {
				m.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p models.ApplicationPatch) bool {
					return p.Status.Set && p.Status.Null
				}), actor).Return(&models.Application{ID: 1}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:   "invalid payment",
			method: http.MethodPatch,
			body:   `{"student":{"payment":"abc"}}`,
			setupMock: func(m *AppServiceMock) {
				m.On("Update", mock.Anything, int64(1), mock.Anything, actor).Return(nil, appservice.ErrInvalidPayment).Once()
			},
			wantStatusCode: http.StatusNotAcceptable,
			wantError:      "Invalid payment value",
		},
		{
			name:           "invalid phone",
			method:         http.MethodPatch,
			body:           `{"student":{"phone":"+99670000000"}}`,
			setupMock:      func(_ *AppServiceMock) {},
			wantStatusCode: http.StatusNotAcceptable,
			wantError:      "field phone: Phone number must be 13 characters long",
		},
		{
			name:           "malformed body",
			method:         http.MethodPatch,
			body:           `{"laptop":"yes"`,
			setupMock:      func(_ *AppServiceMock) {},
			wantStatusCode: http.StatusNotAcceptable,
		},
		{
			name:   "missing application",
			method: http.MethodPatch,
			body:   `{"laptop":true}`,
			setupMock: func(m *AppServiceMock) {
				m.On("Update", mock.Anything, int64(1), mock.Anything, actor).Return(nil, apperr.NotFound("Not found.")).Once()
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      "Not found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AppServiceMock)
			tt.setupMock(svc)

			rr, resp := serve(t, svc, tt.method, "/applications/1/", tt.body)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_GetDeleteConvert(t *testing.T) {
	svc := new(AppServiceMock)
	svc.On("Get", mock.Anything, int64(3)).Return(&models.ApplicationDetail{
		ID:      3,
		History: []models.HistoryEntry{{ID: 1, Action: models.HistoryCreated, Changes: map[string]models.FieldChange{}}},
	}, nil).Once()
	svc.On("Get", mock.Anything, int64(4)).Return(nil, apperr.NotFound("Not found.")).Once()
	svc.On("History", mock.Anything, int64(3)).Return([]models.HistoryEntry{{ID: 1, Action: models.HistoryCreated}}, nil).Once()
	svc.On("Delete", mock.Anything, int64(3), actor).Return(nil).Once()
	svc.On("Convert", mock.Anything, int64(3), actor).Return(appservice.ConvertedMessage, nil).Once()

	rr, resp := serve(t, svc, http.MethodGet, "/applications/3/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, resp["data"].(map[string]any)["history"], 1)

	rr, _ = serve(t, svc, http.MethodGet, "/applications/4/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, resp = serve(t, svc, http.MethodGet, "/applications/3/history/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, resp["data"], 1)

	rr, _ = serve(t, svc, http.MethodDelete, "/applications/3/", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, resp = serve(t, svc, http.MethodPost, "/applications/student/add/3", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Student successfully added!", resp["data"].(map[string]any)["message"])
	svc.AssertExpectations(t)
}

func TestHandler_Export(t *testing.T) {
	svc := new(AppServiceMock)
	svc.On("Export", mock.Anything, mock.Anything).Return(bytes.NewBufferString("PK-xlsx"), nil).Once()

	rr, _ := serve(t, svc, http.MethodGet, "/applications/export/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "applications.xlsx")
	assert.Equal(t, "PK-xlsx", rr.Body.String())
	svc.AssertExpectations(t)
}
