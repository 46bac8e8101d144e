package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/policy"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/sim"
)

func newTestServer() *Server {
	w := sim.NewWorld(policy.Default(), entropy.NewSeeded(1))
	for i := agents.AgentID(1); i <= 3; i++ {
		w.AddAgent(&agents.Agent{
			ID:       i,
			Name:     "Agent",
			Emotions: &emotion.State{Joy: 0.3},
			Alive:    true,
		})
	}
	w.Net.Upsert(1, 2, relation.KindComrade)
	w.AdvanceTurn()
	return &Server{World: w, Port: 0}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Turn  uint64         `json:"turn"`
		Stats sim.WorldStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(1), body.Turn)
	assert.Equal(t, 3, body.Stats.Population)
}

func TestHandleAgentsSkipsDead(t *testing.T) {
	s := newTestServer()
	s.World.RemoveAgent(3)

	rec := httptest.NewRecorder()
	s.handleAgents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 2)
}

func TestHandleAgentRoutes(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/1/circle", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var circle []relation.CircleEdge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &circle))
	require.Len(t, circle, 1)
	assert.Equal(t, agents.AgentID(2), circle[0].Target)

	rec = httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/1/influence?radius=2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.handleAgentRoutes(rec, httptest.NewRequest(http.MethodGet, "/api/v1/agent/1/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleFactions(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.handleFactions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/factions", nil))

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 5)
}

func TestHandleClusters(t *testing.T) {
	s := newTestServer()
	rec := httptest.NewRecorder()
	s.handleClusters(rec, httptest.NewRequest(http.MethodGet, "/api/v1/clusters", nil))

	var clusters [][]agents.AgentID
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &clusters))

	total := 0
	for _, c := range clusters {
		total += len(c)
	}
	assert.Equal(t, 3, total, "every living agent lands in a cluster")
}

func TestHandleEventsLimit(t *testing.T) {
	s := newTestServer()
	for i := 0; i < 10; i++ {
		s.World.EmitEvent(sim.Event{Turn: uint64(i), Description: "event", Category: "social"})
	}

	rec := httptest.NewRecorder()
	s.handleEvents(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=5", nil))

	var events []sim.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i-1].Turn, events[i].Turn, "newest first")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "limits are per client")
	assert.Greater(t, rl.RetryAfter("10.0.0.1"), 0)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clusters", nil)
	req.RemoteAddr = "10.0.0.1:52430"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
