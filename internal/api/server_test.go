package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookbliss/internal/email"
	"bookbliss/internal/types"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(_ context.Context) error { return s.err }

func newTestServer(t *testing.T, db Pinger) *Server {
	t.Helper()
	repo := new(mockOrderRepo)
	repo.On("List", mock.Anything, 0).Return([]*types.Order{}, nil).Maybe()

	orders := NewOrderHandler(repo, &mockNotifier{}, nil, discardLogger())
	admin := NewAdminHandler(&stubScheduleLister{}, email.NewSendLog(email.SendLogConfig{}), discardLogger())

	return NewServer(ServerConfig{
		Port:   "0",
		Orders: orders,
		Admin:  admin,
		DB:     db,
		Logger: discardLogger(),
	})
}

func TestServer_HealthOK(t *testing.T) {
	srv := newTestServer(t, &stubPinger{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
	assert.Equal(t, "ok", resp.Data["checks"].(map[string]any)["database"])
}

func TestServer_HealthDegradedWhenDBUnreachable(t *testing.T) {
	srv := newTestServer(t, &stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Data["status"])
	assert.Equal(t, "unreachable", resp.Data["checks"].(map[string]any)["database"])
}

func TestServer_HealthWithoutDB(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RoutesAreMounted(t *testing.T) {
	srv := newTestServer(t, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/orders"},
		{http.MethodGet, "/v1/admin/schedules"},
		{http.MethodGet, "/v1/admin/email-log"},
		{http.MethodGet, "/v1/admin/email-log/stats"},
	}
	for _, p := range paths {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "%s %s should be routed", p.method, p.path)
		assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code, "%s %s should be routed", p.method, p.path)
	}
}

func TestServer_RequestIDOnEveryResponse(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
