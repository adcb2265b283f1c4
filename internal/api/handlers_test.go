package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/config"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/db"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/enrich"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/heartbeat"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/ingest"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/metrics"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/models"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/query"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/store"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/webhook"
)

type fakeUsers struct {
	users map[string]db.User
}

func (f *fakeUsers) GetUserByUsername(_ context.Context, username string) (db.User, error) {
	u, ok := f.users[username]
	if !ok {
		return db.User{}, errors.New("not found")
	}
	return u, nil
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
}

func newTestEnv(t *testing.T, authEnabled bool) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewNop()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	st := store.New(10, 10, m)
	debugLog := store.NewDebugLog(t.TempDir(), logger)
	ing := ingest.New(webhook.NewNormalizer(logger), st, debugLog, nil, m, logger)
	hb := heartbeat.NewClient("", "status", time.Second, logger)
	enricher := enrich.New(nil, logger, 5, time.Second)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &fakeUsers{users: map[string]db.User{
		"admin": {ID: 1, Username: "admin", PasswordHash: string(hash)},
	}}

	var cfg config.Config
	cfg.API.BasePath = "/api/v0"
	cfg.Auth.Enabled = authEnabled

	sessions := NewSessions()
	h := NewHandler(ing, st, hb, enricher, users, sessions, m, logger)
	return testEnv{router: NewRouter(h, logger, cfg, registry), store: st}
}

func (e testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestWebhookAccepted(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title":     "High CPU",
		"severity":  "critical",
		"dedupeKey": "k1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "new", body["status"])
	assert.Equal(t, 1, env.store.Len())
}

func TestWebhookPartialPayloadStillAccepted(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{"whatever": 1})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.store.Len())
}

func TestWebhookUnparseableBodyRejected(t *testing.T) {
	env := newTestEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v0/webhooks/alerts",
		bytes.NewBufferString("this is not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogWebhookColorMapping(t *testing.T) {
	env := newTestEnv(t, false)

	w := env.do(http.MethodPost, "/api/v0/webhooks/logs", map[string]any{
		"channel": "#ops",
		"attachments": []map[string]any{
			{"color": "#ff0000", "title": "X"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	alerts := env.store.List(store.ListOptions{})
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Severity)
}

func TestListAlerts(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title": "a", "severity": "critical", "dedupeKey": "k1",
	})
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title": "b", "severity": "info", "dedupeKey": "k2",
	})

	w := env.do(http.MethodGet, "/api/v0/alerts?severity=critical", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "a", alerts[0].Title)

	w = env.do(http.MethodGet, "/api/v0/alerts?limit=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertOptions(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title": "a", "severity": "critical", "region": "us-ashburn-1",
	})

	w := env.do(http.MethodGet, "/api/v0/alerts/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var opts store.Options
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, []string{"critical"}, opts.Severities)
	assert.Equal(t, []string{"us-ashburn-1"}, opts.Regions)
}

func TestMarkReadAndAcknowledge(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"id": "a1", "title": "x", "severity": "info",
	})

	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v0/alerts/a1/read", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v0/alerts/a1/acknowledge", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/v0/alerts/nope/read", nil).Code)

	alerts := env.store.List(store.ListOptions{})
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Read)
	assert.True(t, alerts[0].Acknowledged)
}

func TestQueryEmptySourcesReturnsEmpty(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title": "x", "severity": "critical",
	})

	w := env.do(http.MethodPost, "/api/v0/alerts/query", query.Filter{})
	require.Equal(t, http.StatusOK, w.Code)
	var out []query.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Empty(t, out)
}

func TestQueryFiltersBySource(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{
		"title": "infra thing", "severity": "critical",
	})
	env.do(http.MethodPost, "/api/v0/webhooks/logs", map[string]any{
		"channel": "#ops",
		"attachments": []map[string]any{
			{"color": "#ffa500", "title": "log thing"},
		},
	})

	w := env.do(http.MethodPost, "/api/v0/alerts/query", query.Filter{
		SourceIn: []string{models.SourceLogs},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var out []query.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "log thing", out[0].Title)
	assert.Equal(t, query.CategoryLogs, out[0].Category)
}

func TestHeartbeatDisabledReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(http.MethodGet, "/api/v0/heartbeat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(http.MethodPost, "/api/v0/auth/login", map[string]string{
		"username": "admin", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])

	w = env.do(http.MethodPost, "/api/v0/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v0/auth/login", map[string]string{
		"username": "ghost", "password": "s3cret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthProtectsDashboardRoutes(t *testing.T) {
	env := newTestEnv(t, true)

	// webhooks stay open: senders must always get their acknowledgment
	w := env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusOK, w.Code)

	// dashboard routes are closed without a token
	w = env.do(http.MethodGet, "/api/v0/alerts", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// login, then retry with the bearer token
	w = env.do(http.MethodPost, "/api/v0/auth/login", map[string]string{
		"username": "admin", "password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	req := httptest.NewRequest(http.MethodGet, "/api/v0/alerts", nil)
	req.Header.Set("Authorization", "Bearer "+body["token"])
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	env.do(http.MethodPost, "/api/v0/webhooks/alerts", map[string]any{"title": "x"})

	w := env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alertdash_webhooks_received_total")
}
