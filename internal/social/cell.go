// Operational cells: small working groups inside a faction. Group
// events (shared missions, hardships) apply across a cell's members, and
// cohesion is reported per cell.
package social

import (
	"sort"

	"github.com/talgya/undercurrent/internal/agents"
)

// CellID is a unique identifier for a cell.
type CellID uint64

// Cell is a small member group within one faction. Membership stays
// bounded in practice, which keeps pairwise group operations cheap.
type Cell struct {
	ID        CellID    `json:"id"`
	Name      string    `json:"name"`
	FactionID FactionID `json:"faction_id"`

	members map[agents.AgentID]struct{}
}

// NewCell creates an empty cell belonging to a faction.
func NewCell(id CellID, name string, faction FactionID) *Cell {
	return &Cell{
		ID:        id,
		Name:      name,
		FactionID: faction,
		members:   make(map[agents.AgentID]struct{}),
	}
}

// AddMember adds an agent. Idempotent.
func (c *Cell) AddMember(id agents.AgentID) {
	c.members[id] = struct{}{}
}

// RemoveMember removes an agent.
func (c *Cell) RemoveMember(id agents.AgentID) {
	delete(c.members, id)
}

// HasMember reports membership.
func (c *Cell) HasMember(id agents.AgentID) bool {
	_, ok := c.members[id]
	return ok
}

// Size returns the member count.
func (c *Cell) Size() int {
	return len(c.members)
}

// Members returns the member IDs in ascending order.
func (c *Cell) Members() []agents.AgentID {
	out := make([]agents.AgentID, 0, len(c.members))
	for id := range c.members {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
