package therapy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/policy"
)

// fixedSource always returns the same draw, pinning probabilistic
// branches in tests.
type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }

func testParams() (policy.TherapyParams, policy.RelapseCurve) {
	p := policy.Default()
	return p.Therapy, p.Relapse
}

func TestConductReducesTrauma(t *testing.T) {
	params, curve := testParams()
	state := &emotion.State{TraumaLevel: 0.6}

	s := NewSession(ModalityMedication)
	out := s.Conduct(state, nil, params, curve, fixedSource{0.99})

	assert.True(t, out.Success)
	assert.False(t, out.Relapsed)
	assert.Greater(t, out.Recovery, float32(0))
	assert.Less(t, out.Recovery, float32(0.6), "one session never erases everything")
	assert.InDelta(t, 0.6-out.Recovery, state.TraumaLevel, 1e-6)
	assert.NotEmpty(t, out.Narrative)
	assert.Equal(t, float32(0.6), out.Details["trauma_before"])
}

func TestConductDeterministicWithSeed(t *testing.T) {
	params, curve := testParams()

	run := func() Outcome {
		state := &emotion.State{TraumaLevel: 0.6}
		return NewSession(ModalityGroup).Conduct(state, nil, params, curve, entropy.NewSeeded(5))
	}
	a, b := run(), run()
	assert.Equal(t, a.Relapsed, b.Relapsed)
	assert.Equal(t, a.Recovery, b.Recovery)
}

func TestModalityBonusOrdering(t *testing.T) {
	params, curve := testParams()

	recovery := func(m Modality) float32 {
		state := &emotion.State{TraumaLevel: 0.6}
		return NewSession(m).Conduct(state, nil, params, curve, fixedSource{0.99}).Recovery
	}

	assert.Greater(t, recovery(ModalityMedication), recovery(ModalityGroup))
	assert.Greater(t, recovery(ModalityIndividual), recovery(ModalityGroup))
}

func TestSupportBonusImprovesRecovery(t *testing.T) {
	params, curve := testParams()
	supports := NewRegistry(policy.Default().Support)
	net := supports.Create("evening circle", 0.2, 0.01)

	alone := &emotion.State{TraumaLevel: 0.6}
	backed := &emotion.State{TraumaLevel: 0.6}

	without := NewSession(ModalityIndividual).Conduct(alone, nil, params, curve, fixedSource{0.99})
	with := NewSession(ModalityIndividual).Conduct(backed, net, params, curve, fixedSource{0.99})

	assert.Greater(t, with.Recovery, without.Recovery)
}

func TestLowTraumaPenalty(t *testing.T) {
	params, curve := testParams()

	high := &emotion.State{TraumaLevel: 0.6}
	low := &emotion.State{TraumaLevel: 0.05}

	highOut := NewSession(ModalityIndividual).Conduct(high, nil, params, curve, fixedSource{0.99})
	lowOut := NewSession(ModalityIndividual).Conduct(low, nil, params, curve, fixedSource{0.99})

	assert.Less(t, lowOut.Details["effectiveness"], highOut.Details["effectiveness"])
	assert.Greater(t, lowOut.Details["penalty"], float32(0))
	assert.Equal(t, float32(0), highOut.Details["penalty"])
}

func TestConductRelapsePath(t *testing.T) {
	params, curve := testParams()
	state := &emotion.State{TraumaLevel: 0.95}

	// A draw of zero always loses against a positive relapse chance.
	out := NewSession(ModalityIndividual).Conduct(state, nil, params, curve, fixedSource{0})

	assert.True(t, out.Relapsed)
	assert.False(t, out.Success)
	assert.Greater(t, out.Recovery, float32(0), "the trauma reduction still happened")
	assert.Contains(t, out.Narrative, "did not hold")
}

func TestSupportNetworkClampsResilience(t *testing.T) {
	params := policy.Default().Support
	n := NewSupportNetwork("ward", 0.9, -0.5, params)
	assert.Equal(t, params.MaxResilienceBonus, n.ResilienceBonus)
	assert.Equal(t, float32(0), n.PassiveRecovery)
}

func TestSupportNetworkMembership(t *testing.T) {
	n := NewSupportNetwork("ward", 0.1, 0.01, policy.Default().Support)
	n.AddMember(3)
	n.AddMember(1)
	n.AddMember(3) // idempotent

	assert.True(t, n.HasMember(1))
	assert.Equal(t, []agents.AgentID{1, 3}, n.Members())

	n.RemoveMember(1)
	assert.False(t, n.HasMember(1))
}

func TestPassiveSupportRecoversUnconditionally(t *testing.T) {
	n := NewSupportNetwork("ward", 0.1, 0.02, policy.Default().Support)
	state := &emotion.State{TraumaLevel: 0.5}

	n.ApplyPassiveSupport(state)
	assert.InDelta(t, 0.48, state.TraumaLevel, 1e-6)

	// Floors at zero.
	drained := &emotion.State{TraumaLevel: 0.01}
	n.ApplyPassiveSupport(drained)
	assert.Equal(t, float32(0), drained.TraumaLevel)
}

func TestRegistryBestForPicksStrongest(t *testing.T) {
	r := NewRegistry(policy.Default().Support)
	weak := r.Create("street corner", 0.05, 0.01)
	strong := r.Create("veterans hall", 0.25, 0.01)
	weak.AddMember(1)
	strong.AddMember(1)
	weak.AddMember(2)

	best := r.BestFor(1)
	require.NotNil(t, best)
	assert.Equal(t, strong.ID, best.ID)

	assert.Equal(t, weak.ID, r.BestFor(2).ID)
	assert.Nil(t, r.BestFor(99))
	assert.Len(t, r.NetworksFor(1), 2)
}

func TestRegistryApplyPassiveSupportAll(t *testing.T) {
	r := NewRegistry(policy.Default().Support)
	n := r.Create("ward", 0.1, 0.02)
	n.AddMember(1)
	n.AddMember(2) // unknown to the resolver

	states := map[agents.AgentID]*emotion.State{1: {TraumaLevel: 0.5}}
	r.ApplyPassiveSupportAll(func(id agents.AgentID) *emotion.State {
		return states[id]
	})

	assert.InDelta(t, 0.48, states[1].TraumaLevel, 1e-6)
}
