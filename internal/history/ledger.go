// Package history keeps the append-only event ledger and multi-stage
// campaign arcs used for narrative callbacks.
package history

// Event is an immutable record of something that happened. Once recorded
// it is never mutated or removed.
type Event struct {
	Turn        uint64             `json:"turn"`
	Description string             `json:"description"`
	FactionIDs  []uint64           `json:"faction_ids,omitempty"`
	Impact      map[string]float32 `json:"impact,omitempty"`
}

// Ledger is the append-only event log for one world.
type Ledger struct {
	events []Event
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Record appends an event. There is no way to mutate or remove an entry
// once recorded.
func (l *Ledger) Record(e Event) {
	l.events = append(l.events, e)
}

// Len returns the number of recorded events.
func (l *Ledger) Len() int {
	return len(l.events)
}

// All returns a copy of every recorded event in record order.
func (l *Ledger) All() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Query returns events involving the faction since the given turn, in
// record order. A linear scan; the ledger stays small enough that an
// index would buy nothing.
func (l *Ledger) Query(factionID uint64, sinceTurn uint64) []Event {
	var out []Event
	for _, e := range l.events {
		if e.Turn < sinceTurn {
			continue
		}
		for _, f := range e.FactionIDs {
			if f == factionID {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
