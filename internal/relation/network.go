// Social network: owns every relationship edge and answers graph
// queries: circles, influence reach, clusters, cohesion.
package relation

import (
	"fmt"
	"sort"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/policy"
)

// CohesionRating is the ordered scale a group's cohesion maps onto.
type CohesionRating uint8

const (
	CohesionCritical CohesionRating = iota
	CohesionPoor
	CohesionFair
	CohesionGood
	CohesionExcellent
)

// String returns the rating name.
func (c CohesionRating) String() string {
	switch c {
	case CohesionExcellent:
		return "excellent"
	case CohesionGood:
		return "good"
	case CohesionFair:
		return "fair"
	case CohesionPoor:
		return "poor"
	default:
		return "critical"
	}
}

type pairKey struct {
	from, to agents.AgentID
}

// Network is the single owner of all relationship edges in a world.
// Other components read and write edges only through this API; nothing
// else holds a mutable reference. Access is turn-synchronous, so the
// Network itself takes no locks.
type Network struct {
	edges  map[pairKey]*Relationship
	adj    map[agents.AgentID]map[agents.AgentID]*Relationship
	params policy.NetworkParams
}

// NewNetwork creates an empty social network with the given tuning.
func NewNetwork(params policy.NetworkParams) *Network {
	return &Network{
		edges:  make(map[pairKey]*Relationship),
		adj:    make(map[agents.AgentID]map[agents.AgentID]*Relationship),
		params: params,
	}
}

// Upsert creates the symmetric pair of edges between two agents with the
// given kind, or retags existing edges. Idempotent: repeating the call
// with identical parameters changes nothing, and existing metrics are
// never reset. Returns the a->b edge; self-pairs create nothing and
// return nil, so callers must reject a == b before dereferencing.
func (n *Network) Upsert(a, b agents.AgentID, kind Kind) *Relationship {
	if a == b {
		return nil
	}
	fwd := n.upsertOne(a, b, kind)
	n.upsertOne(b, a, kind)
	return fwd
}

func (n *Network) upsertOne(from, to agents.AgentID, kind Kind) *Relationship {
	key := pairKey{from, to}
	if r, ok := n.edges[key]; ok {
		r.Kind = kind
		return r
	}

	r := &Relationship{FromID: from, ToID: to, Kind: kind}
	n.edges[key] = r
	if n.adj[from] == nil {
		n.adj[from] = make(map[agents.AgentID]*Relationship)
	}
	n.adj[from][to] = r
	return r
}

// Get returns the directed edge from a to b. The false return is the
// normal "no relationship yet" state, not an error, and no default edge
// is fabricated, so missing initialization stays visible.
func (n *Network) Get(a, b agents.AgentID) (*Relationship, bool) {
	r, ok := n.edges[pairKey{a, b}]
	return r, ok
}

// RemoveAgent cascade-deletes every edge incident to the agent. Called
// when the external registry removes an agent, so no orphan edges remain.
func (n *Network) RemoveAgent(id agents.AgentID) {
	for other := range n.adj[id] {
		delete(n.edges, pairKey{id, other})
		delete(n.edges, pairKey{other, id})
		if m := n.adj[other]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(n.adj, other)
			}
		}
	}
	delete(n.adj, id)
}

// EdgeCount returns the number of directed edges.
func (n *Network) EdgeCount() int {
	return len(n.edges)
}

// Edges returns all directed edges in deterministic (from, to) order.
func (n *Network) Edges() []*Relationship {
	out := make([]*Relationship, 0, len(n.edges))
	for _, r := range n.edges {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromID != out[j].FromID {
			return out[i].FromID < out[j].FromID
		}
		return out[i].ToID < out[j].ToID
	})
	return out
}

// Restore inserts a previously serialized edge verbatim. Used by the
// snapshot collaborator when reloading a world.
func (n *Network) Restore(r *Relationship) {
	key := pairKey{r.FromID, r.ToID}
	n.edges[key] = r
	if n.adj[r.FromID] == nil {
		n.adj[r.FromID] = make(map[agents.AgentID]*Relationship)
	}
	n.adj[r.FromID][r.ToID] = r
}

// ApplyGroupEvent applies the same event to every pairwise edge among the
// members, creating comrade edges where none exist yet. O(n²) in group
// size; groups are cell-sized in practice. The kind is validated before
// any edge is touched, so an unknown event leaves the graph unchanged.
func (n *Network) ApplyGroupEvent(members []agents.AgentID, kind EventKind, turn uint64) error {
	if _, ok := eventDeltas[kind]; !ok {
		return fmt.Errorf("group event %d: %w", kind, ErrUnknownEvent)
	}
	for _, a := range members {
		for _, b := range members {
			if a == b {
				continue
			}
			r, ok := n.Get(a, b)
			if !ok {
				r = n.upsertOne(a, b, KindComrade)
			}
			if err := r.ApplyEvent(kind, turn); err != nil {
				return err
			}
		}
	}
	return nil
}

// GroupCohesion aggregates pairwise trust and loyalty among the members
// into a single rating. Missing edges count as neutral, so an
// unconnected group scores low rather than being skipped.
func (n *Network) GroupCohesion(members []agents.AgentID) (CohesionRating, float32) {
	var sum float64
	var pairs int
	for _, a := range members {
		for _, b := range members {
			if a == b {
				continue
			}
			var m Metrics
			if r, ok := n.Get(a, b); ok {
				m = r.Metrics
			}
			sum += float64(((m.Trust+1)/2 + m.Loyalty) / 2)
			pairs++
		}
	}
	if pairs == 0 {
		return CohesionCritical, 0
	}

	mean := float32(sum / float64(pairs))
	t := n.params.Cohesion
	switch {
	case mean >= t.Excellent:
		return CohesionExcellent, mean
	case mean >= t.Good:
		return CohesionGood, mean
	case mean >= t.Fair:
		return CohesionFair, mean
	case mean >= t.Poor:
		return CohesionPoor, mean
	default:
		return CohesionCritical, mean
	}
}

// DecayAll applies one decay step to every edge. The turn driver calls
// this exactly once per turn; calling it more often compounds decay.
func (n *Network) DecayAll() {
	for _, r := range n.edges {
		r.Decay(n.params.DecayRate)
	}
}

// CircleEdge is one entry in an agent's social circle.
type CircleEdge struct {
	Target   agents.AgentID `json:"target"`
	Kind     Kind           `json:"kind"`
	Strength float32        `json:"strength"`
	Metrics  Metrics        `json:"metrics"`
}

// SocialCircle returns all edges incident to the agent, strongest first.
func (n *Network) SocialCircle(id agents.AgentID) []CircleEdge {
	out := make([]CircleEdge, 0, len(n.adj[id]))
	for _, r := range n.adj[id] {
		out = append(out, CircleEdge{
			Target:   r.ToID,
			Kind:     r.Kind,
			Strength: r.Strength(),
			Metrics:  r.Metrics,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// Influence scores one agent reachable from an origin.
type Influence struct {
	ID    agents.AgentID `json:"id"`
	Score float32        `json:"score"`
}

// MostInfluential walks the graph outward from the origin up to radius
// hops, scoring each reachable agent by edge strength accumulated along
// the first (shortest) path and damped per hop, so closer agents weigh
// more. Each node is visited at most once, so the walk terminates on any
// finite graph regardless of cycles, and the origin never appears in its
// own result.
func (n *Network) MostInfluential(origin agents.AgentID, radius int) []Influence {
	if radius <= 0 {
		return nil
	}

	type node struct {
		id    agents.AgentID
		score float32
		depth int
	}

	visited := map[agents.AgentID]bool{origin: true}
	scores := make(map[agents.AgentID]float32)
	frontier := []node{{id: origin, score: 1, depth: 0}}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur.depth >= radius {
			continue
		}

		// Deterministic neighbor order.
		neighbors := make([]agents.AgentID, 0, len(n.adj[cur.id]))
		for id := range n.adj[cur.id] {
			neighbors = append(neighbors, id)
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })

		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			s := cur.score * n.adj[cur.id][nb].Strength() * n.params.InfluenceDamping
			scores[nb] = s
			frontier = append(frontier, node{id: nb, score: s, depth: cur.depth + 1})
		}
	}

	out := make([]Influence, 0, len(scores))
	for id, s := range scores {
		out = append(out, Influence{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SocialClusters partitions the population into groups connected by
// edges at or above the cluster strength threshold. Every agent lands in
// exactly one cluster; agents with no strong links form singletons.
// Deterministic: clusters and their members are sorted by ID.
func (n *Network) SocialClusters(population []agents.AgentID) [][]agents.AgentID {
	assigned := make(map[agents.AgentID]bool, len(population))
	inPop := make(map[agents.AgentID]bool, len(population))
	for _, id := range population {
		inPop[id] = true
	}

	sorted := append([]agents.AgentID(nil), population...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var clusters [][]agents.AgentID
	for _, seed := range sorted {
		if assigned[seed] {
			continue
		}

		// Flood fill over strong edges.
		cluster := []agents.AgentID{seed}
		assigned[seed] = true
		queue := []agents.AgentID{seed}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for nb, r := range n.adj[cur] {
				if assigned[nb] || !inPop[nb] {
					continue
				}
				if r.Strength() < n.params.ClusterStrengthMin {
					continue
				}
				assigned[nb] = true
				cluster = append(cluster, nb)
				queue = append(queue, nb)
			}
		}

		sort.Slice(cluster, func(i, j int) bool { return cluster[i] < cluster[j] })
		clusters = append(clusters, cluster)
	}
	return clusters
}

// MeanStrength returns the mean edge strength across all ordered pairs of
// the members, missing edges counting as zero. In [0, 1]; used for
// faction cohesion.
func (n *Network) MeanStrength(members []agents.AgentID) float32 {
	if len(members) < 2 {
		return 0
	}
	var sum float64
	var pairs int
	for _, a := range members {
		for _, b := range members {
			if a == b {
				continue
			}
			if r, ok := n.Get(a, b); ok {
				sum += float64(r.Strength())
			}
			pairs++
		}
	}
	return float32(sum / float64(pairs))
}
