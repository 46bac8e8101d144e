// Therapy sessions: one-shot procedures that trade a recovery score
// against a post-session relapse draw.
package therapy

import (
	"github.com/google/uuid"

	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/policy"
)

// Modality is the form of treatment. Each carries a fixed additive bonus
// from the policy table.
type Modality uint8

const (
	ModalityIndividual Modality = iota
	ModalityGroup
	ModalityMedication
)

// String returns the modality name.
func (m Modality) String() string {
	switch m {
	case ModalityIndividual:
		return "individual"
	case ModalityGroup:
		return "group"
	case ModalityMedication:
		return "medication"
	default:
		return "unknown"
	}
}

// Outcome is the value object produced by one Conduct call. Consumed
// once and discarded; nothing here is persisted.
type Outcome struct {
	Success   bool               `json:"success"`
	Relapsed  bool               `json:"relapsed"`
	Recovery  float32            `json:"recovery"`
	Narrative string             `json:"narrative"`
	Details   map[string]float32 `json:"details"`
}

// Session is one planned therapy session.
type Session struct {
	ID       uuid.UUID `json:"id"`
	Modality Modality  `json:"modality"`
}

// NewSession creates a session with the given modality.
func NewSession(m Modality) *Session {
	return &Session{ID: uuid.New(), Modality: m}
}

// Conduct runs the session against an emotional state. Effectiveness is
// the policy base rate plus the modality bonus plus the support network's
// resilience bonus, less a diminishing-returns penalty when trauma is
// already low. The recovery is applied, then a relapse check runs with a
// reduced base chance, so a fresh session lowers immediate relapse risk.
// support may be nil.
func (s *Session) Conduct(state *emotion.State, support *SupportNetwork, p policy.TherapyParams, curve policy.RelapseCurve, src entropy.Source) Outcome {
	eff := p.BaseRate + s.modalityBonus(p)

	var supportBonus, resilience float32
	if support != nil {
		supportBonus = support.ResilienceBonus * 0.5
		resilience = support.ResilienceBonus
		eff += supportBonus
	}

	// Diminishing returns: there is less to process when trauma is low.
	var penalty float32
	if state.TraumaLevel < p.LowTraumaThreshold && p.LowTraumaThreshold > 0 {
		penalty = p.LowTraumaPenalty * (1 - state.TraumaLevel/p.LowTraumaThreshold)
		eff -= penalty
	}
	if eff < 0 {
		eff = 0
	}
	if eff > 1 {
		eff = 1
	}

	before := state.TraumaLevel
	state.ApplyTherapy(eff)
	recovered := before - state.TraumaLevel

	relapsed := state.CheckRelapse(p.RelapseBase*p.PostSessionRelapseFactor, resilience, curve, src)

	out := Outcome{
		Success:  recovered > 0 && !relapsed,
		Relapsed: relapsed,
		Recovery: recovered,
		Details: map[string]float32{
			"base_rate":     p.BaseRate,
			"modality":      s.modalityBonus(p),
			"support":       supportBonus,
			"penalty":       penalty,
			"effectiveness": eff,
			"trauma_before": before,
			"trauma_after":  state.TraumaLevel,
		},
	}
	out.Narrative = narrativeFor(s.Modality, out)
	return out
}

func (s *Session) modalityBonus(p policy.TherapyParams) float32 {
	switch s.Modality {
	case ModalityGroup:
		return p.GroupBonus
	case ModalityMedication:
		return p.MedicationBonus
	default:
		return p.IndividualBonus
	}
}

// narrativeFor picks the outcome line. One flat sentence per branch;
// richer narrative belongs to the presentation layer, which reads the
// Outcome fields.
func narrativeFor(m Modality, o Outcome) string {
	switch {
	case o.Relapsed:
		return "the session opened old wounds; the ground gained did not hold"
	case o.Recovery <= 0:
		return "the session passed quietly with little left to work through"
	case m == ModalityMedication:
		return "the prescribed regimen dulled the worst of it"
	case m == ModalityGroup:
		return "speaking among others who understood made the weight easier to carry"
	default:
		return "a long talk loosened something that had been wound tight"
	}
}
