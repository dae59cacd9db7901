package analytics

import (
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
)

type ReportServiceMock struct {
	mock.Mock
}

func (m *ReportServiceMock) Report(ctx context.Context, kind models.AnalyticsKind, year int) (*models.AnalyticsReport, error) {
	args := m.Called(ctx, kind, year)
	rep, _ := args.Get(0).(*models.AnalyticsReport)
	return rep, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_Report(t *testing.T) {
	name := "Instagram"
	tests := []struct {
		name           string
		target         string
		setupMock      func(m *ReportServiceMock)
		wantStatusCode int
		wantTotal      float64
	}{
		{
			name:   "source report",
			target: "/analytics/source-analytics/2024",
			setupMock: func(m *ReportServiceMock) {
				m.On("Report", mock.Anything, models.AnalyticsSource, 2024).Return(&models.AnalyticsReport{
					Kind:        models.AnalyticsSource,
					Year:        2024,
					TotalAmount: 3,
					Items:       []models.AnalyticsItem{{Name: &name, Count: 2}, {Count: 1}},
				}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantTotal:      3,
		},
		{
			name:   "empty year",
			target: "/analytics/groups-analytics/1999",
			setupMock: func(m *ReportServiceMock) {
				m.On("Report", mock.Anything, models.AnalyticsGroups, 1999).
					Return(&models.AnalyticsReport{Kind: models.AnalyticsGroups, Year: 1999, Items: []models.AnalyticsItem{}}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "year is not a number",
			target:         "/analytics/source-analytics/abc",
			setupMock:      func(_ *ReportServiceMock) {},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:   "year out of range",
			target: "/analytics/rejection-reason-analytics/0",
			setupMock: func(m *ReportServiceMock) {
				m.On("Report", mock.Anything, models.AnalyticsRejectionReason, 0).Return(nil, apperr.Validation("Invalid year.")).Once()
			},
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ReportServiceMock)
			tt.setupMock(svc)
			h := New(newNoopLogger(), svc)
			r := chi.NewRouter()
			r.Get("/analytics/rejection-reason-analytics/{year}", h.Report(models.AnalyticsRejectionReason))
			r.Get("/analytics/source-analytics/{year}", h.Report(models.AnalyticsSource))
			r.Get("/analytics/groups-analytics/{year}", h.Report(models.AnalyticsGroups))

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					Data models.AnalyticsReport `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, int(tt.wantTotal), resp.Data.TotalAmount)
				assert.NotNil(t, resp.Data.Items)
			}
			svc.AssertExpectations(t)
		})
	}
}
