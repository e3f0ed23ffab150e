package routes_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"task-tracker/internal/routes"
	"task-tracker/testutil"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newRouterWithDB(t *testing.T, db routes.Pinger) http.Handler {
	t.Helper()
	r, err := routes.SetupRouter(routes.Dependencies{
		Config:   testutil.TestConfig(),
		DB:       db,
		Users:    testutil.NewMemoryUserStore(),
		Tasks:    testutil.NewMemoryTaskStore(),
		Logger:   zap.NewNop(),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return r
}

func TestSetupRouter_RequiresStores(t *testing.T) {
	_, err := routes.SetupRouter(routes.Dependencies{Config: testutil.TestConfig()})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		r := newRouterWithDB(t, fakePinger{})
		w := testutil.DoJSON(t, r, http.MethodGet, "/readyz", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("database down", func(t *testing.T) {
		r := newRouterWithDB(t, fakePinger{err: errors.New("connection refused")})
		w := testutil.DoJSON(t, r, http.MethodGet, "/readyz", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestMetricsEndpoint(t *testing.T) {
	env := testutil.SetupTestRouter(t)
	testutil.SignupAndGetCookie(t, env.Router, "Alice", "alice@example.com", "password123")
	testutil.DoJSON(t, env.Router, http.MethodGet, "/api/tasks", nil, nil)

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_request_duration_seconds")
	assert.Contains(t, body, `auth_events_total{event="signup",result="success"} 1`)
	assert.Contains(t, body, `auth_events_total{event="session",result="rejected"} 1`)
}

func TestPublicPages(t *testing.T) {
	env := testutil.SetupTestRouter(t)

	w := testutil.DoJSON(t, env.Router, http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = testutil.DoJSON(t, env.Router, http.MethodGet, "/login", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/api/auth/login"`)

	w = testutil.DoJSON(t, env.Router, http.MethodGet, "/signup", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/api/auth/signup"`)
}
