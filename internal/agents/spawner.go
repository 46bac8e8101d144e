// Agent spawning: creates the population with names, backgrounds, and
// background-derived emotional seed values.
//
// Seed emotions are not pure per-agent noise: agents are sampled from a
// smooth opensimplex "temperament field", so populations spawned together
// share correlated moods (a battered cohort spawns collectively wearier
// than a fresh one) while individuals still differ.
package agents

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/undercurrent/internal/emotion"
)

// fieldScale spaces agents along the temperament field. Small enough that
// neighbors correlate, large enough that the field varies across a cohort.
const fieldScale = 0.15

// Spawner creates agents for the simulation. Deterministic for a given
// seed: the same seed yields the same population, named and seeded alike.
type Spawner struct {
	rng    *rand.Rand
	nextID AgentID

	// Temperament field noise, one channel per axis.
	valence  opensimplex.Noise // lifts or depresses joy/trust
	arousal  opensimplex.Noise // lifts fear/anger/anticipation
	hardship opensimplex.Noise // scales background trauma span
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:      rand.New(rand.NewSource(seed + 300)),
		nextID:   1,
		valence:  opensimplex.NewNormalized(seed),
		arousal:  opensimplex.NewNormalized(seed + 1),
		hardship: opensimplex.NewNormalized(seed + 2),
	}
}

// SetNextID sets the next agent ID to be issued (used when restoring
// from a snapshot).
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// SpawnPopulation creates a batch of agents with mixed backgrounds.
func (s *Spawner) SpawnPopulation(count int) []*Agent {
	out := make([]*Agent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.Spawn(s.randomBackground()))
	}
	return out
}

// Spawn creates one agent with the given background.
func (s *Spawner) Spawn(bg Background) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:         id,
		Name:       s.generateName(),
		Background: bg,
		Emotions:   s.seedEmotions(id, bg),
		BornTurn:   0,
		Alive:      true,
	}
}

// seedEmotions builds the initial emotional state: background template,
// shifted by the temperament field at the agent's position, plus a little
// per-agent jitter.
func (s *Spawner) seedEmotions(id AgentID, bg Background) *emotion.State {
	p := ProfileFor(bg)

	x := float64(id) * fieldScale
	// Field samples land in [0,1]; recenter to [-0.5, 0.5].
	val := s.valence.Eval2(x, 0) - 0.5
	aro := s.arousal.Eval2(x, 1) - 0.5
	hard := s.hardship.Eval2(x, 2) // kept in [0,1]: a severity multiplier

	st := &emotion.State{
		Joy:          p.Base.Joy + float32(val)*0.4 + s.jitter(),
		Trust:        p.Base.Trust + float32(val)*0.3 + s.jitter(),
		Fear:         p.Base.Fear + float32(aro)*0.4 + s.jitter(),
		Anger:        p.Base.Anger + float32(aro)*0.3 + s.jitter(),
		Sadness:      p.Base.Sadness - float32(val)*0.3 + s.jitter(),
		Anticipation: p.Base.Anticipation + float32(aro)*0.2 + s.jitter(),
		TraumaLevel:  p.TraumaBase + p.TraumaSpan*float32(hard),
	}
	if len(p.Triggers) > 0 {
		st.Triggers = append(st.Triggers, p.Triggers...)
	}
	st.Clamp()
	return st
}

// jitter returns small per-agent noise in [-0.05, 0.05].
func (s *Spawner) jitter() float32 {
	return (s.rng.Float32() - 0.5) * 0.1
}

func (s *Spawner) randomBackground() Background {
	r := s.rng.Float32()
	switch {
	case r < 0.30:
		return BackgroundIdealist
	case r < 0.50:
		return BackgroundVeteran
	case r < 0.65:
		return BackgroundSurvivor
	case r < 0.78:
		return BackgroundAcademic
	case r < 0.92:
		return BackgroundStreet
	default:
		return BackgroundClergy
	}
}

func (s *Spawner) generateName() string {
	first := firstNames[s.rng.Intn(len(firstNames))]
	last := lastNames[s.rng.Intn(len(lastNames))]
	return first + " " + last
}

var firstNames = []string{
	"Adrian", "Beatrix", "Casimir", "Dana", "Elena", "Ferenc", "Greta",
	"Hana", "Imre", "Jasna", "Karel", "Lena", "Milan", "Nadia", "Oskar",
	"Petra", "Radek", "Sofia", "Tomas", "Vera", "Wanda", "Yuri", "Zofia",
}

var lastNames = []string{
	"Adler", "Borov", "Cerny", "Dvorak", "Egger", "Fiala", "Gruber",
	"Horak", "Ivanov", "Jelen", "Kovar", "Lanik", "Marek", "Novak",
	"Orlov", "Pavel", "Ruzicka", "Svoboda", "Toth", "Urban", "Vesely",
}
