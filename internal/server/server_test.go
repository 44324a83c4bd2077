package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/crowdflow/crowdflow/internal/config"
	"github.com/crowdflow/crowdflow/internal/core/engine"
)

const (
	timeoutEventually = 2 * time.Second
	pollEventually    = 10 * time.Millisecond
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Params.AgentCount = 4
	eng := engine.New(cfg.Params, cfg.Arena.Width, cfg.Arena.Height, cfg.Scenario, nil)
	s := New(cfg, eng, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHandleAgents(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/agents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var frame Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	require.Len(t, frame.Agents, 4)
	for _, a := range frame.Agents {
		require.NotEmpty(t, a.ID)
		require.Positive(t, a.Radius)
		require.NotEmpty(t, a.Color)
	}
}

func TestHandleConfigure(t *testing.T) {
	_, ts := newTestServer(t)

	body := bytes.NewBufferString(`{"neighborRadius": 99, "timeHorizon": 3}`)
	resp, err := http.Post(ts.URL+"/configure", "application/json", body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stats := getStats(t, ts)
	require.Equal(t, 99.0, stats["neighborRadius"])
	require.Equal(t, 3.0, stats["timeHorizon"])
}

func TestHandleConfigure_Rejects(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/configure", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/configure")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleResize(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/resize", "application/json",
		strings.NewReader(`{"width": 1000, "height": 500}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stats := getStats(t, ts)
	require.Equal(t, 1000.0, stats["arena_width"])
	require.Equal(t, 500.0, stats["arena_height"])

	resp, err = http.Post(ts.URL+"/resize", "application/json",
		strings.NewReader(`{"width": -1, "height": 500}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleReset(t *testing.T) {
	_, ts := newTestServer(t)

	before := getFrame(t, ts)

	resp, err := http.Post(ts.URL+"/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	after := getFrame(t, ts)
	require.Equal(t, uint64(0), after.Tick)
	require.Len(t, after.Agents, len(before.Agents))
	for i := range after.Agents {
		require.Equal(t, before.Agents[i].Position, after.Agents[i].Position)
	}
}

func TestWebsocketSubscribe(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.Count() == 1 },
		timeoutEventually, pollEventually)

	// Push one frame through the hub and read it off the socket.
	s.mu.Lock()
	frame := Frame{Tick: 1, Agents: s.model.Agents()}
	s.mu.Unlock()
	payload, err := json.Marshal(frame)
	require.NoError(t, err)
	s.hub.Broadcast(payload)

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Frame
	require.NoError(t, json.Unmarshal(msg, &got))
	require.Equal(t, uint64(1), got.Tick)
	require.Len(t, got.Agents, 4)
}

func getStats(t *testing.T, ts *httptest.Server) map[string]any {
	t.Helper()
	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	return stats
}

func getFrame(t *testing.T, ts *httptest.Server) Frame {
	t.Helper()
	resp, err := http.Get(ts.URL + "/agents")
	require.NoError(t, err)
	defer resp.Body.Close()

	var frame Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&frame))
	return frame
}
