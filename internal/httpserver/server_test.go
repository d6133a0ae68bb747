package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgpkg "github.com/taoyao-code/liveview-bridge/internal/config"
	"github.com/taoyao-code/liveview-bridge/internal/events"
	"github.com/taoyao-code/liveview-bridge/internal/health"
	appmetrics "github.com/taoyao-code/liveview-bridge/internal/metrics"
	"github.com/taoyao-code/liveview-bridge/internal/session"
)

var testCfg = cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthzReadyzMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := appmetrics.NewRegistry()
	appmetrics.NewAppMetrics(reg)
	ready := health.New()
	srv := New(testCfg, Deps{
		MetricsPath:    "/metrics",
		MetricsHandler: appmetrics.Handler(reg),
		Readiness:      ready,
	})
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/readyz").Code)

	st := session.New("dev", true, time.Now())
	ready.SetSession(st)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/readyz").Code, "handshake pending")

	st.RecordDisplay(session.DisplayProperties{Width: 128, Version: "1.0"})
	assert.Equal(t, http.StatusOK, get(t, h, "/readyz").Code)

	rr := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "liveview_standby_phase")
}

func TestSessionEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ready := health.New()
	h := New(testCfg, Deps{Readiness: ready}).Handler()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/session").Code)

	st := session.New("00:11:22:33:44:55", false, time.Now())
	st.SetPhase(session.PhaseAwake, time.Now())
	st.RecordDisplay(session.DisplayProperties{Width: 128, Version: "1.0"})
	ready.SetSession(st)

	rr := get(t, h, "/api/session")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, st.ID(), snap.ID)
	assert.Equal(t, "awake", snap.Phase)
	assert.True(t, snap.HandshakeDone)
	require.NotNil(t, snap.Display)
	assert.Equal(t, "1.0", snap.Display.Version)
}

func TestHealthReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ready := health.New()
	h := New(testCfg, Deps{
		Readiness: ready,
		Health:    health.NewAggregator(health.NewSessionChecker(ready)),
	}).Handler()

	rr := get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "no device session")

	ready.SetSession(session.New("dev", true, time.Now()))
	rr = get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"degraded"`)
}

func TestEventStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := events.NewHub(nil)
	srv := New(testCfg, Deps{Hub: hub})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Deliver(context.Background(), events.New(events.TypeStandby, "s1", map[string]any{"phase": "clock"})))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e events.Event
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, events.TypeStandby, e.Type)
	assert.Equal(t, "clock", e.Data["phase"])
}
