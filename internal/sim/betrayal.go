// Betrayal sweep: per-turn evaluation of primed relationships, plus the
// fallout when a betrayal lands: edge collapse, victim trauma, faction
// expulsion, ledger record.
package sim

import (
	"fmt"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/history"
	"github.com/talgya/undercurrent/internal/relation"
)

// betrayalSweep evaluates every edge whose betrayal potential has been
// primed past the policy gate. Deterministic edge order keeps seeded
// runs reproducible.
func (w *World) betrayalSweep() {
	for _, r := range w.Net.Edges() {
		if r.Metrics.BetrayalPotential < w.Policy.Sweep.PotentialMin {
			continue
		}

		actor, ok := w.AgentIndex[r.FromID]
		if !ok || !actor.Alive {
			continue
		}
		victim, ok := w.AgentIndex[r.ToID]
		if !ok || !victim.Alive {
			continue
		}

		pressure := w.ExternalPressure(actor, victim)
		check := r.CheckBetrayal(pressure, actor.Trauma(), w.Policy.Betrayal, w.Rand)
		if !check.Occurred {
			continue
		}

		w.resolveBetrayal(actor, victim, check)
	}
}

// resolveBetrayal applies the consequences of an actual betrayal.
func (w *World) resolveBetrayal(actor, victim *agents.Agent, check relation.BetrayalCheck) {
	w.Stats.Betrayals++

	// Both edges collapse: the victim's view of the betrayer, and what
	// remained of the betrayer's attachment.
	if r, ok := w.Net.Get(victim.ID, actor.ID); ok {
		_ = r.ApplyEventNote(relation.EventBetrayal, w.Turn, check.Reason)
	}
	if r, ok := w.Net.Get(actor.ID, victim.ID); ok {
		_ = r.ApplyEventNote(relation.EventBetrayal, w.Turn, check.Reason)
	}

	// Being betrayed wounds. The tag feeds future trigger checks.
	if victim.Emotions != nil {
		victim.Emotions.ApplyTrauma(0.3, "betrayal", []string{"betrayal"})
	}

	desc := fmt.Sprintf("%s betrayed %s (%s)", actor.Name, victim.Name, check.Reason)
	actor.Remember(w.Turn, desc, 0.7)
	victim.Remember(w.Turn, desc, 0.9)

	var factionIDs []uint64
	if actor.FactionID != nil {
		factionIDs = append(factionIDs, *actor.FactionID)
	}
	if victim.FactionID != nil && (actor.FactionID == nil || *victim.FactionID != *actor.FactionID) {
		factionIDs = append(factionIDs, *victim.FactionID)
	}
	w.Ledger.Record(history.Event{
		Turn:        w.Turn,
		Description: desc,
		FactionIDs:  factionIDs,
		Impact: map[string]float32{
			"probability": check.Probability,
		},
	})
	w.EmitEvent(Event{Turn: w.Turn, Description: desc, Category: "betrayal"})

	w.expelForBetrayal(actor, victim)
}

// expelForBetrayal throws an agent out of their faction for betraying a
// fellow member. Cross-faction betrayals carry no expulsion; that is
// just the war.
func (w *World) expelForBetrayal(actor, victim *agents.Agent) {
	if actor.FactionID == nil || victim.FactionID == nil {
		return
	}
	if *actor.FactionID != *victim.FactionID {
		return
	}

	factionName := ""
	for _, f := range w.Factions {
		if uint64(f.ID) == *actor.FactionID {
			factionName = f.Name
			break
		}
	}

	factionID := *actor.FactionID
	actor.FactionID = nil
	for _, c := range w.Cells {
		c.RemoveMember(actor.ID)
	}

	desc := fmt.Sprintf("%s expelled from %s for betrayal against %s", actor.Name, factionName, victim.Name)
	w.Ledger.Record(history.Event{
		Turn:        w.Turn,
		Description: desc,
		FactionIDs:  []uint64{factionID},
	})
	w.EmitEvent(Event{Turn: w.Turn, Description: desc, Category: "political"})
}
