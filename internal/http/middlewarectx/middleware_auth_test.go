package middlewarectx_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/school-crm/internal/http/middlewarectx"
	"github.com/magabrotheeeer/school-crm/internal/lib/jwt"
	"github.com/magabrotheeeer/school-crm/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Minute, time.Hour)
	access, refresh, err := maker.GeneratePair(42, "t@crm.kg", "teacher")
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other", time.Minute, time.Hour).GenerateToken(42, "t@crm.kg", "teacher", jwt.Access)
	require.NoError(t, err)

	var gotActor *models.Actor
	var gotRole any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = middlewarectx.ActorFrom(r.Context())
		gotRole = r.Context().Value(middlewarectx.Role)
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.JWTMiddleware(maker, newNoopLogger())(next)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "valid access token", authHeader: "Bearer " + access, wantStatusCode: http.StatusOK, wantCalled: true},
		{name: "missing header", authHeader: "", wantStatusCode: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Token " + access, wantStatusCode: http.StatusUnauthorized},
		{name: "refresh token rejected", authHeader: "Bearer " + refresh, wantStatusCode: http.StatusUnauthorized},
		{name: "foreign signature", authHeader: "Bearer " + foreign, wantStatusCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotActor, gotRole = nil, nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			if tt.wantCalled {
				require.NotNil(t, gotActor)
				assert.Equal(t, &models.Actor{ID: 42, Email: "t@crm.kg"}, gotActor)
				assert.Equal(t, "teacher", gotRole)
			} else {
				assert.Nil(t, gotActor)
				assert.Contains(t, rr.Body.String(), `"status":"Error"`)
			}
		})
	}
}

func TestRequireSuperuser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	handler := middlewarectx.RequireSuperuser(newNoopLogger())(next)

	for role, want := range map[string]int{
		models.DisplaySuperAdmin:        http.StatusCreated,
		string(models.RoleOfficeManager): http.StatusForbidden,
		"":                               http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register/teacher/", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), 1, "a@crm.kg", role))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, "role %q", role)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/users/login/", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestActorFrom_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, middlewarectx.ActorFrom(req.Context()))
	_, ok := middlewarectx.UserIDFrom(req.Context())
	assert.False(t, ok)
}
