// Package social provides factions and operational cells, the group
// structure agents are embedded in.
package social

// FactionID is a unique identifier for a faction.
type FactionID uint64

// Faction represents an organization with membership, leadership, and
// standing relations to other factions.
type Faction struct {
	ID   FactionID   `json:"id"`
	Name string      `json:"name"`
	Kind FactionKind `json:"kind"`

	// Relations with other factions (faction ID to a value in -100..+100).
	// Negative is hostile; hostility translates into external pressure on
	// cross-faction relationships.
	Relations map[FactionID]float64 `json:"relations"`

	// Leadership
	LeaderID *uint64 `json:"leader_id,omitempty"`
}

// FactionKind categorizes the nature of a faction.
type FactionKind uint8

const (
	FactionPolitical FactionKind = iota // governance and negotiation
	FactionMilitant                     // armed action
	FactionClerical                     // spiritual and pastoral
	FactionSyndicate                    // smuggling and funding
	FactionUnderground                  // intelligence and sabotage
)

// HostilityToward returns the normalized pressure this faction's standing
// exerts on relationships with members of the other faction: 0 for
// neutral or friendly relations, approaching 1 at maximum hostility.
func (f *Faction) HostilityToward(other FactionID) float32 {
	rel, ok := f.Relations[other]
	if !ok || rel >= 0 {
		return 0
	}
	p := float32(-rel / 100)
	if p > 1 {
		p = 1
	}
	return p
}

// SetRelation sets the symmetric standing between two factions.
func SetRelation(a, b *Faction, value float64) {
	if value > 100 {
		value = 100
	}
	if value < -100 {
		value = -100
	}
	a.Relations[b.ID] = value
	b.Relations[a.ID] = value
}

// SeedFactions creates the initial factions for a world.
func SeedFactions() []*Faction {
	return []*Faction{
		{
			ID:        1,
			Name:      "Provisional Council",
			Kind:      FactionPolitical,
			Relations: make(map[FactionID]float64),
		},
		{
			ID:        2,
			Name:      "Red Dawn Brigade",
			Kind:      FactionMilitant,
			Relations: make(map[FactionID]float64),
		},
		{
			ID:        3,
			Name:      "Order of the Lantern",
			Kind:      FactionClerical,
			Relations: make(map[FactionID]float64),
		},
		{
			ID:        4,
			Name:      "Harbor Syndicate",
			Kind:      FactionSyndicate,
			Relations: make(map[FactionID]float64),
		},
		{
			ID:        5,
			Name:      "The Quiet Hand",
			Kind:      FactionUnderground,
			Relations: make(map[FactionID]float64),
		},
	}
}
