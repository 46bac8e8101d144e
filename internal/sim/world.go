// World ties together the agent population, the social network, factions,
// support networks, and the event ledger for one simulated world.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/history"
	"github.com/talgya/undercurrent/internal/policy"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/social"
	"github.com/talgya/undercurrent/internal/therapy"
)

// Event is a notable occurrence in the world, kept for observers. The
// durable record lives in the history ledger.
type Event struct {
	Turn        uint64 `json:"turn"`
	Description string `json:"description"`
	Category    string `json:"category"` // "social", "betrayal", "therapy", ...
}

// WorldStats tracks aggregate statistics, refreshed each turn.
type WorldStats struct {
	Population    int     `json:"population"`
	Relationships int     `json:"relationships"`
	AvgTrauma     float32 `json:"avg_trauma"`
	AvgStability  float32 `json:"avg_stability"`
	Betrayals     int     `json:"betrayals"`
}

// World holds the complete state of one simulated world. All mutation is
// turn-synchronous through this object; the social network exclusively
// owns relationship edges, and every probabilistic branch draws from the
// single injected entropy source.
type World struct {
	Agents     []*agents.Agent
	AgentIndex map[agents.AgentID]*agents.Agent

	Factions     []*social.Faction
	FactionIndex map[social.FactionID]*social.Faction
	Cells        []*social.Cell

	Net       *relation.Network
	Supports  *therapy.Registry
	Ledger    *history.Ledger
	Campaigns []*history.Campaign

	Policy *policy.Policy
	Rand   entropy.Source

	Turn   uint64
	Events []Event
	Stats  WorldStats
}

// NewWorld creates an empty world with seeded factions and their initial
// standings.
func NewWorld(pol *policy.Policy, src entropy.Source) *World {
	w := &World{
		AgentIndex:   make(map[agents.AgentID]*agents.Agent),
		FactionIndex: make(map[social.FactionID]*social.Faction),
		Net:          relation.NewNetwork(pol.Network),
		Supports:     therapy.NewRegistry(pol.Support),
		Ledger:       history.NewLedger(),
		Policy:       pol,
		Rand:         src,
	}

	w.Factions = social.SeedFactions()
	for _, f := range w.Factions {
		w.FactionIndex[f.ID] = f
	}

	// Initial standings: the council brokers, the brigade and syndicate
	// grate on each other, the quiet hand trusts nobody.
	w.setRelation(1, 2, 20)
	w.setRelation(1, 3, 30)
	w.setRelation(1, 4, -10)
	w.setRelation(1, 5, 0)
	w.setRelation(2, 3, -20)
	w.setRelation(2, 4, -40)
	w.setRelation(2, 5, 10)
	w.setRelation(3, 4, -10)
	w.setRelation(3, 5, -30)
	w.setRelation(4, 5, -50)

	return w
}

func (w *World) setRelation(a, b social.FactionID, value float64) {
	social.SetRelation(w.FactionIndex[a], w.FactionIndex[b], value)
}

// AddAgent registers an agent with the world.
func (w *World) AddAgent(a *agents.Agent) {
	w.Agents = append(w.Agents, a)
	w.AgentIndex[a.ID] = a
}

// RemoveAgent drops an agent and cascade-deletes everything incident to
// it: relationship edges, cell membership, support membership. No orphan
// edges survive removal.
func (w *World) RemoveAgent(id agents.AgentID) {
	a, ok := w.AgentIndex[id]
	if !ok {
		return
	}
	a.Alive = false
	delete(w.AgentIndex, id)
	for i, cur := range w.Agents {
		if cur.ID == id {
			w.Agents = append(w.Agents[:i], w.Agents[i+1:]...)
			break
		}
	}

	w.Net.RemoveAgent(id)
	for _, c := range w.Cells {
		c.RemoveMember(id)
	}
	for _, n := range w.Supports.All() {
		n.RemoveMember(id)
	}
}

// AssignFaction puts an agent in a faction.
func (w *World) AssignFaction(id agents.AgentID, faction social.FactionID) error {
	a, ok := w.AgentIndex[id]
	if !ok {
		return fmt.Errorf("assign faction: agent %d not registered", id)
	}
	if _, ok := w.FactionIndex[faction]; !ok {
		return fmt.Errorf("assign faction: faction %d not registered", faction)
	}
	fid := uint64(faction)
	a.FactionID = &fid
	return nil
}

// AddCell registers a cell and assigns its members' faction.
func (w *World) AddCell(c *social.Cell) {
	w.Cells = append(w.Cells, c)
}

// FactionMembers returns the living members of a faction in ID order.
func (w *World) FactionMembers(faction social.FactionID) []agents.AgentID {
	var out []agents.AgentID
	for _, a := range w.Agents {
		if a.Alive && a.FactionID != nil && social.FactionID(*a.FactionID) == faction {
			out = append(out, a.ID)
		}
	}
	return out
}

// FactionCohesion is the mean relationship strength across all
// intra-faction pairs, in [0, 1].
func (w *World) FactionCohesion(faction social.FactionID) float32 {
	return w.Net.MeanStrength(w.FactionMembers(faction))
}

// ExternalPressure derives the pressure acting on the edge between two
// agents from their factions' standing: hostile factions squeeze the
// relationships that cross them. Same-faction pairs feel none.
func (w *World) ExternalPressure(a, b *agents.Agent) float32 {
	if a.FactionID == nil || b.FactionID == nil || *a.FactionID == *b.FactionID {
		return 0
	}
	fa, ok := w.FactionIndex[social.FactionID(*a.FactionID)]
	if !ok {
		return 0
	}
	return fa.HostilityToward(social.FactionID(*b.FactionID))
}

// EmitEvent records an observer event.
func (w *World) EmitEvent(e Event) {
	w.Events = append(w.Events, e)
	slog.Debug("world event", "turn", e.Turn, "category", e.Category, "description", e.Description)
}

// ResolveEmotions maps an agent ID to its emotional state, for
// collaborators that hold only identifiers.
func (w *World) ResolveEmotions(id agents.AgentID) *emotion.State {
	a, ok := w.AgentIndex[id]
	if !ok || !a.Alive {
		return nil
	}
	return a.Emotions
}

func (w *World) updateStats() {
	var trauma, stability float64
	alive := 0
	for _, a := range w.Agents {
		if !a.Alive || a.Emotions == nil {
			continue
		}
		alive++
		trauma += float64(a.Emotions.TraumaLevel)
		stability += float64(a.Emotions.Stability())
	}

	w.Stats.Population = alive
	w.Stats.Relationships = w.Net.EdgeCount()
	if alive > 0 {
		w.Stats.AvgTrauma = float32(trauma / float64(alive))
		w.Stats.AvgStability = float32(stability / float64(alive))
	}
}
