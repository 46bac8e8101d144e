// Package relation implements the weighted relationship graph between
// agents: directed edges with bounded metrics, an event-driven delta
// table, slow decay toward baseline, and betrayal evaluation.
package relation

import (
	"errors"
	"fmt"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/policy"
)

// ErrUnknownEvent flags an event kind with no entry in the delta table.
// This is structural misuse, not a numeric-range problem, so it fails
// fast instead of being coerced.
var ErrUnknownEvent = errors.New("unknown relationship event")

// Kind tags the nature of a relationship. The tag changes only through
// explicit Reclassify calls; metric drift never flips a comrade into a
// rival on its own.
type Kind uint8

const (
	KindComrade Kind = iota
	KindRival
	KindMentor
	KindRecruit
	KindConfidant
	KindEnemy
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindComrade:
		return "comrade"
	case KindRival:
		return "rival"
	case KindMentor:
		return "mentor"
	case KindRecruit:
		return "recruit"
	case KindConfidant:
		return "confidant"
	case KindEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// EventKind is the closed set of relationship events. ApplyEvent rejects
// anything outside this enumeration.
type EventKind uint8

const (
	EventMissionSuccess EventKind = iota
	EventMissionFailure
	EventSavedLife
	EventSharedHardship
	EventGiftGiven
	EventArgument
	EventIdeologicalRift
	EventConfidedSecret
	EventThreatened
	EventBetrayal
)

// String returns the event name.
func (e EventKind) String() string {
	switch e {
	case EventMissionSuccess:
		return "mission_success"
	case EventMissionFailure:
		return "mission_failure"
	case EventSavedLife:
		return "saved_life"
	case EventSharedHardship:
		return "shared_hardship"
	case EventGiftGiven:
		return "gift_given"
	case EventArgument:
		return "argument"
	case EventIdeologicalRift:
		return "ideological_rift"
	case EventConfidedSecret:
		return "confided_secret"
	case EventThreatened:
		return "threatened"
	case EventBetrayal:
		return "betrayal"
	default:
		return "unknown"
	}
}

// Metrics are the bounded scalars describing one directed edge.
// Conventions: Trust, Affinity, and IdeologicalProximity range -1.0 to
// +1.0 with 0 neutral; Loyalty, Fear, and BetrayalPotential range 0.0 to
// 1.0. BetrayalPotential only moves through ApplyEvent.
type Metrics struct {
	Trust                float32 `json:"trust"`
	Loyalty              float32 `json:"loyalty"`
	Fear                 float32 `json:"fear"`
	Affinity             float32 `json:"affinity"`
	IdeologicalProximity float32 `json:"ideological_proximity"`
	BetrayalPotential    float32 `json:"betrayal_potential"`
}

func (m *Metrics) clamp() {
	m.Trust = clampSigned(m.Trust)
	m.Affinity = clampSigned(m.Affinity)
	m.IdeologicalProximity = clampSigned(m.IdeologicalProximity)
	m.Loyalty = clampUnit(m.Loyalty)
	m.Fear = clampUnit(m.Fear)
	m.BetrayalPotential = clampUnit(m.BetrayalPotential)
}

// HistoryEntry records one significant event on an edge.
type HistoryEntry struct {
	Turn  uint64    `json:"turn"`
	Event EventKind `json:"event"`
	Note  string    `json:"note,omitempty"`
}

// Relationship is one directed edge in the social graph. Edges are owned
// by the Network; agents refer to each other by ID only.
type Relationship struct {
	FromID agents.AgentID `json:"from_id"`
	ToID   agents.AgentID `json:"to_id"`
	Kind   Kind           `json:"kind"`

	Metrics Metrics `json:"metrics"`

	// History is append-only; significant events land here with the turn
	// they happened on.
	History []HistoryEntry `json:"history,omitempty"`
}

// eventDeltas is the fixed delta table: what each event does to the
// metrics of the edge it is applied to. Deterministic; randomness lives
// in betrayal evaluation, never in application.
var eventDeltas = map[EventKind]Metrics{
	EventMissionSuccess: {Trust: 0.10, Loyalty: 0.05, Affinity: 0.05},
	EventMissionFailure: {Trust: -0.05, Loyalty: -0.02, Affinity: -0.05},
	EventSavedLife:      {Trust: 0.20, Loyalty: 0.25, Affinity: 0.15, Fear: -0.05},
	EventSharedHardship: {Trust: 0.08, Loyalty: 0.08, Affinity: 0.10},
	EventGiftGiven:      {Trust: 0.03, Affinity: 0.10},
	EventArgument:       {Trust: -0.05, Affinity: -0.12, IdeologicalProximity: -0.05},
	EventIdeologicalRift: {
		Trust: -0.08, IdeologicalProximity: -0.25, BetrayalPotential: 0.05,
	},
	EventConfidedSecret: {Trust: 0.12, Affinity: 0.08, Fear: -0.02},
	EventThreatened:     {Trust: -0.10, Fear: 0.25, BetrayalPotential: 0.10},
	EventBetrayal: {
		Trust: -1.20, Loyalty: -0.50, Affinity: -0.80, Fear: 0.30, BetrayalPotential: 0.30,
	},
}

// ApplyEvent applies the delta table entry for the event and appends it
// to the edge history. Results clamp into bounds; unknown events fail.
func (r *Relationship) ApplyEvent(kind EventKind, turn uint64) error {
	return r.ApplyEventNote(kind, turn, "")
}

// ApplyEventNote is ApplyEvent with an optional narrative note for the
// history record.
func (r *Relationship) ApplyEventNote(kind EventKind, turn uint64, note string) error {
	d, ok := eventDeltas[kind]
	if !ok {
		return fmt.Errorf("apply event %d: %w", kind, ErrUnknownEvent)
	}

	r.Metrics.Trust += d.Trust
	r.Metrics.Loyalty += d.Loyalty
	r.Metrics.Fear += d.Fear
	r.Metrics.Affinity += d.Affinity
	r.Metrics.IdeologicalProximity += d.IdeologicalProximity
	r.Metrics.BetrayalPotential += d.BetrayalPotential
	r.Metrics.clamp()

	r.History = append(r.History, HistoryEntry{Turn: turn, Event: kind, Note: note})
	return nil
}

// Reclassify changes the relationship tag. This is the only way the tag
// changes. Comrade to rival is a narrative decision, not metric drift.
func (r *Relationship) Reclassify(kind Kind) {
	r.Kind = kind
}

// Decay pulls trust, loyalty, affinity, and fear toward their neutral
// baseline of zero by the given rate. Relationship entropy is slower
// than emotional drift: bonds outlast moods. Ideological proximity and
// betrayal potential do not decay; convictions and grudges keep.
func (r *Relationship) Decay(rate float32) {
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	r.Metrics.Trust -= r.Metrics.Trust * rate
	r.Metrics.Loyalty -= r.Metrics.Loyalty * rate
	r.Metrics.Affinity -= r.Metrics.Affinity * rate
	r.Metrics.Fear -= r.Metrics.Fear * rate
}

// Strength is the derived closeness of the edge in [0, 1], monotone in
// trust, loyalty, and the magnitude of affinity.
func (r *Relationship) Strength() float32 {
	return ((r.Metrics.Trust+1)/2 + r.Metrics.Loyalty + abs32(r.Metrics.Affinity)) / 3
}

// BetrayalCheck is the result of one betrayal evaluation. Probability and
// Reason are filled in even when no betrayal occurred, so callers can log
// the rationale.
type BetrayalCheck struct {
	Occurred    bool    `json:"occurred"`
	Probability float32 `json:"probability"`
	Reason      string  `json:"reason"`
}

// BetrayalProbability computes the chance that the owner of this edge
// acts against the target, as a weighted combination of edge metrics,
// external pressure, and the owner's trauma. Pure; the draw happens in
// CheckBetrayal. All weights are non-negative, so the probability is
// monotone non-decreasing in pressure, trauma, and distrust.
func (r *Relationship) BetrayalProbability(pressure, trauma float32, w policy.BetrayalWeights) float32 {
	pressure = clampUnit(pressure)
	trauma = clampUnit(trauma)

	p := w.Base
	p += w.Distrust * max32(0, -r.Metrics.Trust)
	p += w.Loyalty * (1 - r.Metrics.Loyalty)
	p += w.Fear * r.Metrics.Fear
	p += w.Ideology * max32(0, -r.Metrics.IdeologicalProximity)
	p += w.Pressure * pressure
	p += w.Trauma * trauma
	return clampUnit(p)
}

// CheckBetrayal draws a betrayal outcome against BetrayalProbability.
func (r *Relationship) CheckBetrayal(pressure, trauma float32, w policy.BetrayalWeights, src entropy.Source) BetrayalCheck {
	prob := r.BetrayalProbability(pressure, trauma, w)
	return BetrayalCheck{
		Occurred:    entropy.Chance(src, float64(prob)),
		Probability: prob,
		Reason:      r.betrayalReason(pressure, trauma, w),
	}
}

// betrayalReason names the largest contributing factor, for logs and
// narrative selection.
func (r *Relationship) betrayalReason(pressure, trauma float32, w policy.BetrayalWeights) string {
	factors := []struct {
		name  string
		value float32
	}{
		{"broken trust", w.Distrust * max32(0, -r.Metrics.Trust)},
		{"weak loyalty", w.Loyalty * (1 - r.Metrics.Loyalty)},
		{"fear", w.Fear * r.Metrics.Fear},
		{"ideological distance", w.Ideology * max32(0, -r.Metrics.IdeologicalProximity)},
		{"external pressure", w.Pressure * clampUnit(pressure)},
		{"unhealed trauma", w.Trauma * clampUnit(trauma)},
	}

	best := factors[0]
	for _, f := range factors[1:] {
		if f.value > best.value {
			best = f
		}
	}
	if best.value <= 0 {
		return "no meaningful motive"
	}
	return best.name
}

func clampSigned(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
