// Package api provides the HTTP API for observing world state.
// All endpoints are GET and read-only; the API never mutates the
// simulation; mutation belongs to the turn driver alone.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/sim"
	"github.com/talgya/undercurrent/internal/social"
)

// Server serves the world state over HTTP.
type Server struct {
	World *sim.World
	Port  int
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	// The cluster partition is the one genuinely expensive query.
	clusterLimiter := NewRateLimiter(60, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentRoutes)
	mux.HandleFunc("/api/v1/factions", s.handleFactions)
	mux.HandleFunc("/api/v1/clusters", RateLimitMiddleware(clusterLimiter, s.handleClusters))
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// handleStatus returns turn counter and aggregate stats.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"turn":  s.World.Turn,
		"stats": s.World.Stats,
	})
}

// handleAgents returns a roster summary of living agents.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	type agentEntry struct {
		ID         agents.AgentID `json:"id"`
		Name       string         `json:"name"`
		Background string         `json:"background"`
		FactionID  *uint64        `json:"faction_id,omitempty"`
		Dominant   string         `json:"dominant_emotion"`
		Trauma     float32        `json:"trauma"`
	}

	out := make([]agentEntry, 0, len(s.World.Agents))
	for _, a := range s.World.Agents {
		if !a.Alive {
			continue
		}
		dom, _ := a.Emotions.Dominant()
		out = append(out, agentEntry{
			ID:         a.ID,
			Name:       a.Name,
			Background: a.Background.String(),
			FactionID:  a.FactionID,
			Dominant:   dom.String(),
			Trauma:     a.Emotions.TraumaLevel,
		})
	}
	writeJSON(w, out)
}

// handleAgentRoutes dispatches /api/v1/agent/:id, /api/v1/agent/:id/circle,
// and /api/v1/agent/:id/influence.
func (s *Server) handleAgentRoutes(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/agent/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "bad agent id", http.StatusBadRequest)
		return
	}
	a, ok := s.World.AgentIndex[agents.AgentID(id)]
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}

	if len(parts) == 1 {
		writeJSON(w, map[string]any{
			"agent":     a,
			"stability": a.Emotions.Stability(),
		})
		return
	}

	switch parts[1] {
	case "circle":
		writeJSON(w, s.World.Net.SocialCircle(a.ID))
	case "influence":
		radius := 3
		if v := r.URL.Query().Get("radius"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 6 {
				radius = n
			}
		}
		writeJSON(w, s.World.Net.MostInfluential(a.ID, radius))
	default:
		http.Error(w, "unknown agent route", http.StatusNotFound)
	}
}

// handleFactions returns faction standings and cohesion.
func (s *Server) handleFactions(w http.ResponseWriter, r *http.Request) {
	type factionEntry struct {
		ID        social.FactionID             `json:"id"`
		Name      string                       `json:"name"`
		Members   int                          `json:"members"`
		Cohesion  float32                      `json:"cohesion"`
		Relations map[social.FactionID]float64 `json:"relations"`
	}

	out := make([]factionEntry, 0, len(s.World.Factions))
	for _, f := range s.World.Factions {
		out = append(out, factionEntry{
			ID:        f.ID,
			Name:      f.Name,
			Members:   len(s.World.FactionMembers(f.ID)),
			Cohesion:  s.World.FactionCohesion(f.ID),
			Relations: f.Relations,
		})
	}
	writeJSON(w, out)
}

// handleClusters returns the social cluster partition of living agents.
func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	population := make([]agents.AgentID, 0, len(s.World.Agents))
	for _, a := range s.World.Agents {
		if a.Alive {
			population = append(population, a.ID)
		}
	}
	writeJSON(w, s.World.Net.SocialClusters(population))
}

// handleEvents returns recent observer events, newest first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := append([]sim.Event(nil), s.World.Events...)
	sort.Slice(events, func(i, j int) bool { return events[i].Turn > events[j].Turn })
	if len(events) > limit {
		events = events[:limit]
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
