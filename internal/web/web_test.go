package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridclock/internal/config"
	"gridclock/internal/countdown"
	"gridclock/internal/model"
	"gridclock/internal/pipeline"
)

func newTestServer(t *testing.T, feeds ...config.FeedRef) (*Server, *config.Store) {
	t.Helper()

	store, err := config.NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	pipe := pipeline.New(pipeline.Options{
		Snapshot: func() config.Snapshot {
			return config.Snapshot{
				Feeds:       feeds,
				MaxSessions: 5,
				ShowSeconds: true,
				YearToken:   "2025",
				OnlyF1:      true,
				Horizon:     120 * 24 * time.Hour,
				Location:    time.UTC,
			}
		},
		Now: func() time.Time { return time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(pipe.Close)

	return NewServer(store, pipe, countdown.NewBroadcaster(), nil), store
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessions_Empty(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.pipe.Refresh(t.Context()))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var set model.DisplaySet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &set))
	assert.Empty(t, set.Items)
}

func TestSessions_ErrorState(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	s, _ := newTestServer(t, config.FeedRef{Series: model.SeriesF1, URL: bad.URL})
	require.ErrorIs(t, s.pipe.Refresh(t.Context()), pipeline.ErrCycleFailed)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error loading events")
}

func TestGetConfig_HidesCredentials(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.Update(func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.SetBasicAuth("u", "p")
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"password"`)
}

func TestPutConfig_PersistsSettings(t *testing.T) {
	s, store := newTestServer(t)

	body := `{"max_sessions": 3, "show_f2": true}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	got := store.Get()
	assert.Equal(t, 3, got.MaxSessions)
	assert.True(t, got.ShowF2)
	// Absent true-default toggles come back as defaults, not false.
	assert.True(t, *got.ShowF1)
}

func TestPutConfig_RejectsInvalidJSON(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/config", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReload(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestTestNotification(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestBasicAuth_Enforced(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.Update(func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "secret"}
	}))

	h := s.Handler()

	// Health stays open.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Everything else requires credentials.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.SetBasicAuth("admin", "secret")
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}
