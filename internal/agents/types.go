// Package agents provides the agent data model and population spawning.
package agents

import (
	"github.com/talgya/undercurrent/internal/emotion"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Agent is a simulated individual: an identity, an emotional state, and a
// position inside the faction structure. Relationship edges are owned by
// the social network, not by the agent; agents hold identifiers only.
//
// Every field exists from construction. Nothing is attached lazily at
// runtime; components that extend agents (memories, triggers) own fixed
// fields here.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`

	// Background shapes the initial emotional profile.
	Background Background `json:"background"`

	// Faction and cell membership. Nil means unaffiliated.
	FactionID *uint64 `json:"faction_id,omitempty"`
	CellID    *uint64 `json:"cell_id,omitempty"`

	// Emotions is exclusively owned by this agent, mutated each turn by
	// drift and by discrete events.
	Emotions *emotion.State `json:"emotions"`

	// Memories of notable experiences, used for narrative callbacks.
	Memories []Memory `json:"memories,omitempty"`

	// Metadata
	BornTurn uint64 `json:"born_turn"`
	Alive    bool   `json:"alive"`
}

// Trauma returns the agent's current trauma level, 0 for agents spawned
// without an emotional state (should not happen in practice).
func (a *Agent) Trauma() float32 {
	if a.Emotions == nil {
		return 0
	}
	return a.Emotions.TraumaLevel
}
