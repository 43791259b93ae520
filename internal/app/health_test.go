package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/kirana-store/kirana/testing"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthReportsDatabaseState(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+30*60)
	h := &HealthHandler{DB: stubPinger{}, Loc: loc, now: func() time.Time {
		return time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)
	}}

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "healthy", body["status"])
	require.Equal(t, "connected", body["database"])
	require.Equal(t, "2025-03-10T12:00:00+05:30", body["timestamp"])

	h.DB = stubPinger{err: errors.New("connection refused")}
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	require.Equal(t, "unhealthy", body["status"])
	require.Equal(t, "disconnected", body["database"])
	require.Equal(t, "connection refused", body["error"])
}

func TestRootGreets(t *testing.T) {
	h := &HealthHandler{}
	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "Kirana Store API is running", decode(t, rec)["message"])
}

func TestTestModeDetected(t *testing.T) {
	RefreshTestMode()
	require.True(t, InTestMode())
}
