// Package therapy models recovery from trauma: support networks that
// grant passive resilience to their members, and one-shot therapy
// sessions that actively reduce trauma with a relapse risk afterward.
package therapy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/policy"
)

// SupportNetwork is a named group whose members recover a little every
// turn and resist relapse better. Membership is explicit; networks never
// expire on their own.
type SupportNetwork struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// ResilienceBonus is subtracted from relapse base chances for
	// members. Bounded by policy (0 to 0.3).
	ResilienceBonus float32 `json:"resilience_bonus"`

	// PassiveRecovery is the flat trauma reduction applied to each member
	// per turn. Unconditional, not probabilistic.
	PassiveRecovery float32 `json:"passive_recovery"`

	members map[agents.AgentID]struct{}
}

// NewSupportNetwork creates a support network with the given bonuses,
// clamped into policy bounds.
func NewSupportNetwork(name string, resilience, passiveRecovery float32, params policy.SupportParams) *SupportNetwork {
	if resilience < 0 {
		resilience = 0
	}
	if resilience > params.MaxResilienceBonus {
		resilience = params.MaxResilienceBonus
	}
	if passiveRecovery < 0 {
		passiveRecovery = 0
	}
	return &SupportNetwork{
		ID:              uuid.New(),
		Name:            name,
		ResilienceBonus: resilience,
		PassiveRecovery: passiveRecovery,
		members:         make(map[agents.AgentID]struct{}),
	}
}

// AddMember adds an agent to the network. Idempotent.
func (s *SupportNetwork) AddMember(id agents.AgentID) {
	s.members[id] = struct{}{}
}

// RemoveMember removes an agent from the network.
func (s *SupportNetwork) RemoveMember(id agents.AgentID) {
	delete(s.members, id)
}

// HasMember reports membership.
func (s *SupportNetwork) HasMember(id agents.AgentID) bool {
	_, ok := s.members[id]
	return ok
}

// Members returns the member IDs in ascending order.
func (s *SupportNetwork) Members() []agents.AgentID {
	out := make([]agents.AgentID, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ApplyPassiveSupport applies the network's per-turn recovery to one
// member's emotional state.
func (s *SupportNetwork) ApplyPassiveSupport(state *emotion.State) {
	state.ApplyTherapy(s.PassiveRecovery)
}

// Registry owns all support networks in one world. It is an explicit
// object handed to the world at construction; there is no package-level
// lookup table.
type Registry struct {
	networks map[uuid.UUID]*SupportNetwork
	params   policy.SupportParams
}

// NewRegistry creates an empty support network registry.
func NewRegistry(params policy.SupportParams) *Registry {
	return &Registry{
		networks: make(map[uuid.UUID]*SupportNetwork),
		params:   params,
	}
}

// Create makes a new support network and registers it.
func (r *Registry) Create(name string, resilience, passiveRecovery float32) *SupportNetwork {
	n := NewSupportNetwork(name, resilience, passiveRecovery, r.params)
	r.networks[n.ID] = n
	return n
}

// Restore re-registers a previously serialized network under its
// original identity, with its membership intact. Bonuses pass through
// the same policy clamps as Create. Used by the snapshot layer.
func (r *Registry) Restore(id uuid.UUID, name string, resilience, passiveRecovery float32, members []agents.AgentID) *SupportNetwork {
	n := NewSupportNetwork(name, resilience, passiveRecovery, r.params)
	n.ID = id
	for _, m := range members {
		n.AddMember(m)
	}
	r.networks[n.ID] = n
	return n
}

// Get returns a network by ID.
func (r *Registry) Get(id uuid.UUID) (*SupportNetwork, bool) {
	n, ok := r.networks[id]
	return n, ok
}

// All returns every network, ordered by name then ID for determinism.
func (r *Registry) All() []*SupportNetwork {
	out := make([]*SupportNetwork, 0, len(r.networks))
	for _, n := range r.networks {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// NetworksFor returns every network the agent belongs to.
func (r *Registry) NetworksFor(id agents.AgentID) []*SupportNetwork {
	var out []*SupportNetwork
	for _, n := range r.All() {
		if n.HasMember(id) {
			out = append(out, n)
		}
	}
	return out
}

// BestFor returns the member network with the highest resilience bonus,
// or nil if the agent belongs to none. Bonuses do not stack; an agent
// leans on their strongest circle.
func (r *Registry) BestFor(id agents.AgentID) *SupportNetwork {
	var best *SupportNetwork
	for _, n := range r.NetworksFor(id) {
		if best == nil || n.ResilienceBonus > best.ResilienceBonus {
			best = n
		}
	}
	return best
}

// ApplyPassiveSupportAll runs the per-turn passive recovery for every
// member of every network. resolve maps an agent ID to its emotional
// state; unknown IDs are skipped.
func (r *Registry) ApplyPassiveSupportAll(resolve func(agents.AgentID) *emotion.State) {
	for _, n := range r.All() {
		for _, id := range n.Members() {
			if st := resolve(id); st != nil {
				n.ApplyPassiveSupport(st)
			}
		}
	}
}
