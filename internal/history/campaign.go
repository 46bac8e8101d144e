// Campaign arcs: multi-stage narrative tracks that advance monotonically
// to a terminal stage.
package history

import "github.com/google/uuid"

// Stage is one step of a campaign's fixed arc.
type Stage uint8

const (
	StagePlanning Stage = iota
	StageExecution
	StageConsolidation
	StageResolution
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StagePlanning:
		return "planning"
	case StageExecution:
		return "execution"
	case StageConsolidation:
		return "consolidation"
	case StageResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// Campaign is a mutable arc advancing through the fixed stage sequence.
type Campaign struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Stage     Stage     `json:"stage"`
	Completed bool      `json:"completed"`

	// MissionIDs link the external mission system's identifiers to this
	// arc. Opaque to this package.
	MissionIDs []uint64 `json:"mission_ids,omitempty"`
}

// NewCampaign creates a campaign at the planning stage.
func NewCampaign(name string) *Campaign {
	return &Campaign{ID: uuid.New(), Name: name, Stage: StagePlanning}
}

// LinkMission attaches a mission identifier to the arc.
func (c *Campaign) LinkMission(missionID uint64) {
	c.MissionIDs = append(c.MissionIDs, missionID)
}

// AdvanceStage moves to the next stage. At the terminal stage the
// campaign is marked completed and further calls are no-ops. Stages
// never move backward.
func (c *Campaign) AdvanceStage() {
	if c.Completed {
		return
	}
	if c.Stage >= StageResolution {
		c.Completed = true
		return
	}
	c.Stage++
}
