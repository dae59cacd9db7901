package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServeHTTP(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name           string
		checks         map[string]Pinger
		wantStatusCode int
		wantData       map[string]string
	}{
		{
			name:           "all healthy",
			checks:         map[string]Pinger{"postgres": ok, "redis": ok},
			wantStatusCode: http.StatusOK,
			wantData:       map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:           "redis down",
			checks:         map[string]Pinger{"postgres": ok, "redis": down},
			wantStatusCode: http.StatusServiceUnavailable,
			wantData:       map[string]string{"postgres": "ok", "redis": "unavailable"},
		},
		{
			name:           "no dependencies",
			checks:         map[string]Pinger{},
			wantStatusCode: http.StatusOK,
			wantData:       map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), tt.checks)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			var resp struct {
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantData, resp.Data)
		})
	}
}
