package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecordOrder(t *testing.T) {
	l := NewLedger()
	assert.Equal(t, 0, l.Len())

	l.Record(Event{Turn: 1, Description: "safehouse raid"})
	l.Record(Event{Turn: 1, Description: "arrests at the docks"})
	l.Record(Event{Turn: 4, Description: "ceasefire talks"})

	all := l.All()
	require.Len(t, all, 3)
	assert.Equal(t, "safehouse raid", all[0].Description)
	assert.Equal(t, "ceasefire talks", all[2].Description)
}

func TestLedgerAllReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Record(Event{Turn: 1, Description: "original"})

	all := l.All()
	all[0].Description = "tampered"
	assert.Equal(t, "original", l.All()[0].Description)
}

func TestLedgerQueryByFactionAndTurn(t *testing.T) {
	l := NewLedger()
	l.Record(Event{Turn: 1, Description: "early strike", FactionIDs: []uint64{2}})
	l.Record(Event{Turn: 3, Description: "joint raid", FactionIDs: []uint64{2, 4}})
	l.Record(Event{Turn: 5, Description: "syndicate deal", FactionIDs: []uint64{4}})
	l.Record(Event{Turn: 6, Description: "quiet week"})

	got := l.Query(2, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "early strike", got[0].Description)

	got = l.Query(2, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "joint raid", got[0].Description)

	assert.Empty(t, l.Query(9, 0))
	assert.Empty(t, l.Query(2, 7))
}

func TestCampaignStageSequence(t *testing.T) {
	c := NewCampaign("harbor offensive")
	assert.Equal(t, StagePlanning, c.Stage)
	assert.False(t, c.Completed)

	c.AdvanceStage()
	assert.Equal(t, StageExecution, c.Stage)
	c.AdvanceStage()
	assert.Equal(t, StageConsolidation, c.Stage)
	c.AdvanceStage()
	assert.Equal(t, StageResolution, c.Stage)
	assert.False(t, c.Completed, "reaching the last stage is not completion yet")

	c.AdvanceStage()
	assert.True(t, c.Completed)
	assert.Equal(t, StageResolution, c.Stage)

	// Further calls change nothing.
	c.AdvanceStage()
	assert.True(t, c.Completed)
	assert.Equal(t, StageResolution, c.Stage)
}

func TestCampaignLinkMission(t *testing.T) {
	c := NewCampaign("harbor offensive")
	c.LinkMission(10)
	c.LinkMission(11)
	assert.Equal(t, []uint64{10, 11}, c.MissionIDs)
}

func TestStageNames(t *testing.T) {
	assert.Equal(t, "planning", StagePlanning.String())
	assert.Equal(t, "resolution", StageResolution.String())
	assert.Equal(t, "unknown", Stage(9).String())
}
