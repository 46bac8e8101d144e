// Agent backgrounds: life-history templates that seed the emotional
// profile at creation time. A veteran starts warier and more traumatized
// than a fresh idealist; the spawner layers per-agent noise on top.
package agents

import "github.com/talgya/undercurrent/internal/emotion"

// Background identifies an agent's life history before the simulation.
type Background uint8

const (
	BackgroundIdealist Background = iota // joined for the cause, untested
	BackgroundVeteran                    // has seen action, carries scars
	BackgroundSurvivor                   // lost home or family to the conflict
	BackgroundAcademic                   // recruited from study, analytical
	BackgroundStreet                     // grew up rough, trusts slowly
	BackgroundClergy                     // pastoral past, steady under strain
)

// String returns the background name.
func (b Background) String() string {
	switch b {
	case BackgroundIdealist:
		return "idealist"
	case BackgroundVeteran:
		return "veteran"
	case BackgroundSurvivor:
		return "survivor"
	case BackgroundAcademic:
		return "academic"
	case BackgroundStreet:
		return "street"
	case BackgroundClergy:
		return "clergy"
	default:
		return "unknown"
	}
}

// Profile is a background's emotional template: baseline emotion values,
// a starting trauma level, and trigger tags already carried from the past.
type Profile struct {
	Base       emotion.State
	TraumaBase float32
	TraumaSpan float32 // added on top of TraumaBase, scaled by field noise
	Triggers   []string
}

// profiles maps each background to its template. Values are starting
// points only; drift and events take over from the first turn.
var profiles = map[Background]Profile{
	BackgroundIdealist: {
		Base:       emotion.State{Joy: 0.4, Trust: 0.5, Anticipation: 0.5, Fear: 0.1},
		TraumaBase: 0.0,
		TraumaSpan: 0.05,
	},
	BackgroundVeteran: {
		Base:       emotion.State{Joy: -0.1, Trust: 0.2, Fear: 0.3, Anger: 0.2, Sadness: 0.2},
		TraumaBase: 0.25,
		TraumaSpan: 0.30,
		Triggers:   []string{"gunfire", "ambush"},
	},
	BackgroundSurvivor: {
		Base:       emotion.State{Joy: -0.2, Trust: -0.1, Fear: 0.4, Sadness: 0.4},
		TraumaBase: 0.35,
		TraumaSpan: 0.25,
		Triggers:   []string{"fire", "raid", "loss"},
	},
	BackgroundAcademic: {
		Base:       emotion.State{Joy: 0.1, Trust: 0.3, Anticipation: 0.3},
		TraumaBase: 0.0,
		TraumaSpan: 0.10,
	},
	BackgroundStreet: {
		Base:       emotion.State{Trust: -0.3, Fear: 0.2, Anger: 0.3, Anticipation: 0.2},
		TraumaBase: 0.15,
		TraumaSpan: 0.20,
		Triggers:   []string{"betrayal"},
	},
	BackgroundClergy: {
		Base:       emotion.State{Joy: 0.2, Trust: 0.4, Sadness: 0.1},
		TraumaBase: 0.05,
		TraumaSpan: 0.10,
	},
}

// ProfileFor returns the template for a background. Unknown backgrounds
// fall back to the idealist profile.
func ProfileFor(b Background) Profile {
	if p, ok := profiles[b]; ok {
		return p
	}
	return profiles[BackgroundIdealist]
}
