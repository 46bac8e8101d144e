// Package policy holds every tunable constant in the simulation as one
// replaceable table. The defaults are calibration choices, not physics;
// the only hard requirements elsewhere in the code are that probabilities
// stay monotone and values stay bounded, and those hold for any table
// that passes Validate.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DriftRates are per-emotion decay rates toward neutral, applied per turn
// of time delta. Grief lingers; startle fades.
type DriftRates struct {
	Joy          float32 `yaml:"joy"`
	Trust        float32 `yaml:"trust"`
	Fear         float32 `yaml:"fear"`
	Anger        float32 `yaml:"anger"`
	Sadness      float32 `yaml:"sadness"`
	Anticipation float32 `yaml:"anticipation"`
}

// BetrayalWeights combine relationship metrics and situational inputs into
// a betrayal probability. All weights are non-negative so the computed
// probability is monotone in each risk factor.
type BetrayalWeights struct {
	Base     float32 `yaml:"base"`     // floor probability before modifiers
	Distrust float32 `yaml:"distrust"` // applied to max(0, -trust)
	Loyalty  float32 `yaml:"loyalty"`  // applied to (1 - loyalty)
	Fear     float32 `yaml:"fear"`     // applied to fear
	Ideology float32 `yaml:"ideology"` // applied to max(0, -ideological proximity)
	Pressure float32 `yaml:"pressure"` // applied to external pressure
	Trauma   float32 `yaml:"trauma"`   // applied to the actor's trauma level
}

// RelapseCurve shapes how accumulated trauma raises relapse probability.
// The exponent is > 1 so risk climbs superlinearly as trauma approaches 1.
type RelapseCurve struct {
	Weight   float32 `yaml:"weight"`
	Exponent float32 `yaml:"exponent"`
}

// TherapyParams tune session effectiveness and post-session relapse risk.
type TherapyParams struct {
	BaseRate        float32 `yaml:"base_rate"`         // recovery before modifiers
	IndividualBonus float32 `yaml:"individual_bonus"`
	GroupBonus      float32 `yaml:"group_bonus"`
	MedicationBonus float32 `yaml:"medication_bonus"`

	// Diminishing returns: below this trauma level, sessions help less.
	LowTraumaThreshold float32 `yaml:"low_trauma_threshold"`
	LowTraumaPenalty   float32 `yaml:"low_trauma_penalty"`

	// Relapse check run at the end of each session. The session factor is
	// < 1, so a fresh session lowers immediate relapse risk.
	RelapseBase              float32 `yaml:"relapse_base"`
	PostSessionRelapseFactor float32 `yaml:"post_session_relapse_factor"`
}

// CohesionThresholds map a group's mean trust+loyalty to the ordered
// rating scale. Each bound is the minimum mean for that rating.
type CohesionThresholds struct {
	Excellent float32 `yaml:"excellent"`
	Good      float32 `yaml:"good"`
	Fair      float32 `yaml:"fair"`
	Poor      float32 `yaml:"poor"` // below this: Critical
}

// NetworkParams tune graph-level behavior of the social network.
type NetworkParams struct {
	// DecayRate pulls relationship metrics toward baseline each turn.
	// Deliberately slower than emotional drift: bonds outlast moods.
	DecayRate float32 `yaml:"decay_rate"`

	// ClusterStrengthMin is the minimum edge strength for two agents to
	// land in the same social cluster.
	ClusterStrengthMin float32 `yaml:"cluster_strength_min"`

	// InfluenceDamping discounts influence per hop in reach queries.
	InfluenceDamping float32 `yaml:"influence_damping"`

	Cohesion CohesionThresholds `yaml:"cohesion"`
}

// SupportParams bound what support networks may grant.
type SupportParams struct {
	MaxResilienceBonus float32 `yaml:"max_resilience_bonus"`
	PassiveRecovery    float32 `yaml:"passive_recovery"`
}

// BetrayalSweepParams control the per-turn betrayal evaluation.
type BetrayalSweepParams struct {
	// PotentialMin gates the sweep: edges below this betrayal potential
	// are never evaluated, keeping the common case cheap.
	PotentialMin float32 `yaml:"potential_min"`
}

// Policy is the complete tunables table for one simulated world.
type Policy struct {
	Drift    DriftRates          `yaml:"drift"`
	Relapse  RelapseCurve        `yaml:"relapse"`
	Betrayal BetrayalWeights     `yaml:"betrayal"`
	Therapy  TherapyParams       `yaml:"therapy"`
	Network  NetworkParams       `yaml:"network"`
	Support  SupportParams       `yaml:"support"`
	Sweep    BetrayalSweepParams `yaml:"sweep"`
}

// Default returns the calibration table used when no override file is given.
func Default() *Policy {
	return &Policy{
		Drift: DriftRates{
			Joy:          0.10,
			Trust:        0.04,
			Fear:         0.12,
			Anger:        0.15,
			Sadness:      0.06,
			Anticipation: 0.20,
		},
		Relapse: RelapseCurve{
			Weight:   0.5,
			Exponent: 2.0,
		},
		Betrayal: BetrayalWeights{
			Base:     0.02,
			Distrust: 0.30,
			Loyalty:  0.20,
			Fear:     0.15,
			Ideology: 0.15,
			Pressure: 0.25,
			Trauma:   0.20,
		},
		Therapy: TherapyParams{
			BaseRate:                 0.10,
			IndividualBonus:          0.05,
			GroupBonus:               0.03,
			MedicationBonus:          0.08,
			LowTraumaThreshold:       0.20,
			LowTraumaPenalty:         0.08,
			RelapseBase:              0.25,
			PostSessionRelapseFactor: 0.40,
		},
		Network: NetworkParams{
			DecayRate:          0.01,
			ClusterStrengthMin: 0.35,
			InfluenceDamping:   0.60,
			Cohesion: CohesionThresholds{
				Excellent: 0.70,
				Good:      0.50,
				Fair:      0.30,
				Poor:      0.10,
			},
		},
		Support: SupportParams{
			MaxResilienceBonus: 0.30,
			PassiveRecovery:    0.01,
		},
		Sweep: BetrayalSweepParams{
			PotentialMin: 0.25,
		},
	}
}

// Load reads a YAML override file on top of the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (*Policy, error) {
	p := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}
	return p, nil
}

// Validate rejects tables that would break monotonicity or bounds.
func (p *Policy) Validate() error {
	for name, v := range map[string]float32{
		"drift.joy":          p.Drift.Joy,
		"drift.trust":        p.Drift.Trust,
		"drift.fear":         p.Drift.Fear,
		"drift.anger":        p.Drift.Anger,
		"drift.sadness":      p.Drift.Sadness,
		"drift.anticipation": p.Drift.Anticipation,
		"network.decay_rate": p.Network.DecayRate,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}

	for name, v := range map[string]float32{
		"betrayal.base":     p.Betrayal.Base,
		"betrayal.distrust": p.Betrayal.Distrust,
		"betrayal.loyalty":  p.Betrayal.Loyalty,
		"betrayal.fear":     p.Betrayal.Fear,
		"betrayal.ideology": p.Betrayal.Ideology,
		"betrayal.pressure": p.Betrayal.Pressure,
		"betrayal.trauma":   p.Betrayal.Trauma,
		"relapse.weight":    p.Relapse.Weight,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, v)
		}
	}

	if p.Relapse.Exponent < 1 {
		return fmt.Errorf("relapse.exponent must be >= 1 for superlinear risk, got %v", p.Relapse.Exponent)
	}
	if p.Support.MaxResilienceBonus < 0 || p.Support.MaxResilienceBonus > 0.3 {
		return fmt.Errorf("support.max_resilience_bonus must be in [0,0.3], got %v", p.Support.MaxResilienceBonus)
	}

	c := p.Network.Cohesion
	if !(c.Excellent > c.Good && c.Good > c.Fair && c.Fair > c.Poor) {
		return fmt.Errorf("cohesion thresholds must be strictly descending")
	}

	return nil
}
