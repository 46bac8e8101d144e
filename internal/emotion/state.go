// Package emotion implements the per-agent emotional model: a bounded
// vector of named emotion scalars with passive drift toward neutral, plus
// trauma mechanics that persist until explicitly treated.
package emotion

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/policy"
)

// ErrInvalidArgument flags structurally impossible input (negative
// duration and the like). Out-of-range numeric values are never errors;
// they are clamped silently into the valid domain.
var ErrInvalidArgument = errors.New("invalid argument")

// Emotion names one scalar in the emotional vector.
type Emotion uint8

const (
	Joy Emotion = iota
	Trust
	Fear
	Anger
	Sadness
	Anticipation
)

// String returns the lowercase emotion name.
func (e Emotion) String() string {
	switch e {
	case Joy:
		return "joy"
	case Trust:
		return "trust"
	case Fear:
		return "fear"
	case Anger:
		return "anger"
	case Sadness:
		return "sadness"
	case Anticipation:
		return "anticipation"
	default:
		return "unknown"
	}
}

// State is an agent's emotional vector. Every emotion scalar ranges
// -1.0 to +1.0 with 0 as the neutral baseline (negative joy is sorrow,
// negative trust is suspicion, and so on). TraumaLevel ranges 0.0 to 1.0
// and is excluded from passive drift; trauma does not fade on its own.
type State struct {
	Joy          float32 `json:"joy"`
	Trust        float32 `json:"trust"`
	Fear         float32 `json:"fear"`
	Anger        float32 `json:"anger"`
	Sadness      float32 `json:"sadness"`
	Anticipation float32 `json:"anticipation"`

	TraumaLevel float32 `json:"trauma_level"`

	// Triggers are tags of past traumatic events, matched against
	// incoming stimuli by CheckTriggers.
	Triggers []string `json:"triggers,omitempty"`

	// LastTraumaEvent names the most recent traumatic event, for
	// narrative callbacks.
	LastTraumaEvent string `json:"last_trauma_event,omitempty"`
}

// scalars returns the emotion fields in declaration order, paired with
// their drift rates from the policy table.
func (s *State) scalars(rates policy.DriftRates) [6]struct {
	v    *float32
	rate float32
} {
	return [6]struct {
		v    *float32
		rate float32
	}{
		{&s.Joy, rates.Joy},
		{&s.Trust, rates.Trust},
		{&s.Fear, rates.Fear},
		{&s.Anger, rates.Anger},
		{&s.Sadness, rates.Sadness},
		{&s.Anticipation, rates.Anticipation},
	}
}

// Values returns the emotional vector keyed by Emotion, for read-only
// consumers (narrative selection, analytics, snapshots).
func (s *State) Values() map[Emotion]float32 {
	return map[Emotion]float32{
		Joy:          s.Joy,
		Trust:        s.Trust,
		Fear:         s.Fear,
		Anger:        s.Anger,
		Sadness:      s.Sadness,
		Anticipation: s.Anticipation,
	}
}

// Clamp forces every field back into its declared bounds. Mutating
// operations call this so no scalar ever escapes its range.
func (s *State) Clamp() {
	for _, sc := range s.scalars(policy.DriftRates{}) {
		*sc.v = clampSigned(*sc.v)
	}
	s.TraumaLevel = clampUnit(s.TraumaLevel)
}

// ApplyDrift moves every emotion scalar a fraction of the remaining
// distance toward neutral, scaled by timeDelta and the per-emotion rate.
// Magnitudes only ever shrink; drift never overshoots past zero and
// never amplifies. TraumaLevel is untouched: trauma persists until an
// explicit therapeutic action.
func (s *State) ApplyDrift(timeDelta float64, rates policy.DriftRates) error {
	if timeDelta < 0 {
		return fmt.Errorf("drift time delta %v: %w", timeDelta, ErrInvalidArgument)
	}

	for _, sc := range s.scalars(rates) {
		frac := float64(sc.rate) * timeDelta
		if frac > 1 {
			frac = 1 // at most all the way to neutral, never past it
		}
		*sc.v -= *sc.v * float32(frac)
	}
	return nil
}

// ApplyTrauma raises TraumaLevel by intensity with diminishing returns as
// the level approaches 1.0, registers the event's trigger tags for later
// matching, and remembers the event type. Intensity is clamped into
// [0, 1].
func (s *State) ApplyTrauma(intensity float32, eventType string, triggers []string) {
	intensity = clampUnit(intensity)
	s.TraumaLevel += intensity * (1 - s.TraumaLevel)
	s.TraumaLevel = clampUnit(s.TraumaLevel)

	for _, t := range triggers {
		if t == "" || s.hasTrigger(t) {
			continue
		}
		s.Triggers = append(s.Triggers, t)
	}
	if eventType != "" {
		s.LastTraumaEvent = eventType
	}
}

func (s *State) hasTrigger(tag string) bool {
	for _, t := range s.Triggers {
		if t == tag {
			return true
		}
	}
	return false
}

// CheckTriggers returns the subset of the agent's registered triggers
// present in the candidate tags. A non-empty result means the stimulus
// re-activates past trauma; what happens next is the caller's business.
func (s *State) CheckTriggers(candidates []string) []string {
	var hit []string
	for _, c := range candidates {
		if s.hasTrigger(c) {
			hit = append(hit, c)
		}
	}
	return hit
}

// ApplyTherapy reduces TraumaLevel by the recovery score, floored at
// zero. This is the only path by which trauma decreases.
func (s *State) ApplyTherapy(recovery float32) {
	recovery = clampUnit(recovery)
	s.TraumaLevel -= recovery
	if s.TraumaLevel < 0 {
		s.TraumaLevel = 0
	}
}

// RelapseProbability computes the effective relapse chance from a base
// chance, a resilience modifier, and the current trauma level. The trauma
// term is superlinear; risk climbs steeply as trauma approaches 1.0.
// Pure; the draw happens in CheckRelapse.
func (s *State) RelapseProbability(baseChance, resilience float32, curve policy.RelapseCurve) float32 {
	traumaTerm := curve.Weight * float32(math.Pow(float64(clampUnit(s.TraumaLevel)), float64(curve.Exponent)))
	return clampUnit(baseChance - resilience + traumaTerm)
}

// CheckRelapse draws a relapse outcome against RelapseProbability. No
// side effects; the caller decides what a relapse costs.
func (s *State) CheckRelapse(baseChance, resilience float32, curve policy.RelapseCurve, src entropy.Source) bool {
	return entropy.Chance(src, float64(s.RelapseProbability(baseChance, resilience, curve)))
}

// Dominant returns the emotion with the largest magnitude and its value.
// Ties resolve to the earlier emotion in declaration order.
func (s *State) Dominant() (Emotion, float32) {
	best := Joy
	bestVal := s.Joy
	for e, v := range [6]float32{s.Joy, s.Trust, s.Fear, s.Anger, s.Sadness, s.Anticipation} {
		if abs32(v) > abs32(bestVal) {
			best = Emotion(e)
			bestVal = v
		}
	}
	return best, bestVal
}

// Stability is the inverse of overall emotional magnitude: 1.0 for a
// perfectly neutral state, approaching 0 as every emotion saturates.
func (s *State) Stability() float32 {
	var sumSq float64
	for _, v := range [6]float32{s.Joy, s.Trust, s.Fear, s.Anger, s.Sadness, s.Anticipation} {
		sumSq += float64(v) * float64(v)
	}
	rms := math.Sqrt(sumSq / 6)
	return float32(1 - rms)
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
