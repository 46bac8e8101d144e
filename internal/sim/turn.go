// Turn driver: advances the world one discrete turn in a fixed order of
// relationship decay, emotional drift, passive support, then the
// betrayal sweep. Event-specific hooks (missions, therapy) are invoked
// by the caller between turns through the World's methods.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/therapy"
)

// AdvanceTurn runs one full turn. Single-threaded and synchronous; it
// must be called exactly once per simulated turn; repeating it
// compounds decay and drift.
func (w *World) AdvanceTurn() {
	w.Turn++

	// 1. Relationship entropy.
	w.Net.DecayAll()

	// 2. Emotional drift. Trauma is excluded by the emotion model itself.
	for _, a := range w.Agents {
		if !a.Alive || a.Emotions == nil {
			continue
		}
		// timeDelta 1: one turn. The rate table carries the pacing.
		_ = a.Emotions.ApplyDrift(1, w.Policy.Drift)
	}

	// 3. Passive support recovery.
	w.Supports.ApplyPassiveSupportAll(w.ResolveEmotions)

	// 4. Betrayal sweep over primed edges.
	w.betrayalSweep()

	w.updateStats()
	slog.Debug("turn complete",
		"turn", w.Turn,
		"population", w.Stats.Population,
		"relationships", w.Stats.Relationships,
		"avg_trauma", w.Stats.AvgTrauma,
	)
}

// ApplyRelationshipEvent applies an event to both directed edges between
// two agents, creating comrade edges if none exist. This is the hook the
// external engine calls when mission or social outcomes land.
func (w *World) ApplyRelationshipEvent(a, b agents.AgentID, kind relation.EventKind) error {
	if a == b {
		return fmt.Errorf("relationship event: agent %d paired with itself: %w", a, emotion.ErrInvalidArgument)
	}
	if _, ok := w.AgentIndex[a]; !ok {
		return fmt.Errorf("relationship event: agent %d not registered", a)
	}
	if _, ok := w.AgentIndex[b]; !ok {
		return fmt.Errorf("relationship event: agent %d not registered", b)
	}

	fwd, ok := w.Net.Get(a, b)
	if !ok {
		fwd = w.Net.Upsert(a, b, relation.KindComrade)
	}
	if err := fwd.ApplyEvent(kind, w.Turn); err != nil {
		return err
	}
	if rev, ok := w.Net.Get(b, a); ok {
		if err := rev.ApplyEvent(kind, w.Turn); err != nil {
			return err
		}
	}
	return nil
}

// CheckBetrayal evaluates the a->b edge once, with pressure derived from
// faction standings and the actor's current trauma. The edge must exist.
func (w *World) CheckBetrayal(a, b agents.AgentID) (relation.BetrayalCheck, error) {
	actor, ok := w.AgentIndex[a]
	if !ok {
		return relation.BetrayalCheck{}, fmt.Errorf("betrayal check: agent %d not registered", a)
	}
	target, ok := w.AgentIndex[b]
	if !ok {
		return relation.BetrayalCheck{}, fmt.Errorf("betrayal check: agent %d not registered", b)
	}
	r, ok := w.Net.Get(a, b)
	if !ok {
		return relation.BetrayalCheck{}, fmt.Errorf("betrayal check: no relationship %d->%d", a, b)
	}

	pressure := w.ExternalPressure(actor, target)
	return r.CheckBetrayal(pressure, actor.Trauma(), w.Policy.Betrayal, w.Rand), nil
}

// ConductTherapy runs a session for an agent, using the agent's
// strongest support network if any, and records the outcome.
func (w *World) ConductTherapy(id agents.AgentID, modality therapy.Modality) (therapy.Outcome, error) {
	a, ok := w.AgentIndex[id]
	if !ok || a.Emotions == nil {
		return therapy.Outcome{}, fmt.Errorf("therapy: agent %d not registered", id)
	}

	session := therapy.NewSession(modality)
	support := w.Supports.BestFor(id)
	outcome := session.Conduct(a.Emotions, support, w.Policy.Therapy, w.Policy.Relapse, w.Rand)

	category := "therapy"
	desc := fmt.Sprintf("%s attended a %s session", a.Name, modality)
	if outcome.Relapsed {
		desc = fmt.Sprintf("%s relapsed after a %s session", a.Name, modality)
	}
	w.EmitEvent(Event{Turn: w.Turn, Description: desc, Category: category})
	a.Remember(w.Turn, desc, 0.4+outcome.Recovery)
	return outcome, nil
}

// WitnessTrauma applies a traumatic stimulus to an agent and reports any
// matched triggers. The caller reacts to trigger hits; this core only
// registers the harm.
func (w *World) WitnessTrauma(id agents.AgentID, intensity float32, eventType string, tags []string) ([]string, error) {
	a, ok := w.AgentIndex[id]
	if !ok || a.Emotions == nil {
		return nil, fmt.Errorf("trauma: agent %d not registered", id)
	}

	hits := a.Emotions.CheckTriggers(tags)
	a.Emotions.ApplyTrauma(intensity, eventType, tags)
	a.Remember(w.Turn, eventType, intensity)
	return hits, nil
}
