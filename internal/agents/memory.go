// Agent memory stream: records of notable experiences, consumed by the
// narrative layer when it wants callbacks to an agent's past.
package agents

import "sort"

// MaxMemories caps the per-agent stream.
const MaxMemories = 50

// Memory records a notable experience in an agent's life.
type Memory struct {
	Turn       uint64  `json:"turn"`
	Content    string  `json:"content"`
	Importance float32 `json:"importance"` // 0.0 to 1.0
}

// Remember appends a memory to the agent's stream. A full stream keeps
// its most important entries: the new memory displaces the least
// important one, or bounces off if it is itself the least important.
func (a *Agent) Remember(turn uint64, content string, importance float32) {
	m := Memory{Turn: turn, Content: content, Importance: importance}

	if len(a.Memories) < MaxMemories {
		a.Memories = append(a.Memories, m)
		return
	}

	weakest := 0
	for i, cur := range a.Memories {
		if cur.Importance < a.Memories[weakest].Importance {
			weakest = i
		}
	}
	if m.Importance > a.Memories[weakest].Importance {
		a.Memories[weakest] = m
	}
}

// RecentMemories returns up to count memories, newest first.
func (a *Agent) RecentMemories(count int) []Memory {
	return a.topMemories(count, func(x, y Memory) bool { return x.Turn > y.Turn })
}

// ImportantMemories returns up to count memories, most important first.
func (a *Agent) ImportantMemories(count int) []Memory {
	return a.topMemories(count, func(x, y Memory) bool { return x.Importance > y.Importance })
}

func (a *Agent) topMemories(count int, less func(x, y Memory) bool) []Memory {
	if len(a.Memories) == 0 || count <= 0 {
		return nil
	}

	sorted := make([]Memory, len(a.Memories))
	copy(sorted, a.Memories)
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	if count > len(sorted) {
		count = len(sorted)
	}
	return sorted[:count]
}
