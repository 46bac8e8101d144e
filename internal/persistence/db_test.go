package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/emotion"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/history"
	"github.com/talgya/undercurrent/internal/policy"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/sim"
	"github.com/talgya/undercurrent/internal/social"
	"github.com/talgya/undercurrent/internal/therapy"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAgentsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	faction := uint64(2)
	a := &agents.Agent{
		ID:         1,
		Name:       "Adrian Novak",
		Background: agents.BackgroundVeteran,
		FactionID:  &faction,
		Alive:      true,
		BornTurn:   3,
		Emotions: &emotion.State{
			Joy: 0.2, Fear: 0.5, TraumaLevel: 0.35,
			Triggers: []string{"gunfire"},
		},
	}
	a.Remember(5, "first ambush", 0.8)

	b := &agents.Agent{
		ID:       2,
		Name:     "Beatrix Toth",
		Emotions: &emotion.State{},
		Alive:    false,
	}

	require.NoError(t, db.SaveAgents([]*agents.Agent{a, b}))

	loaded, err := db.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0]
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Background, got.Background)
	require.NotNil(t, got.FactionID)
	assert.Equal(t, faction, *got.FactionID)
	assert.Nil(t, got.CellID)
	assert.True(t, got.Alive)
	assert.Equal(t, *a.Emotions, *got.Emotions)
	assert.Equal(t, a.Memories, got.Memories)

	assert.False(t, loaded[1].Alive)
	assert.Nil(t, loaded[1].FactionID)
}

func TestSaveAgentsReplaces(t *testing.T) {
	db := openTestDB(t)

	first := &agents.Agent{ID: 1, Name: "Adrian", Emotions: &emotion.State{}, Alive: true}
	require.NoError(t, db.SaveAgents([]*agents.Agent{first}))

	second := &agents.Agent{ID: 2, Name: "Beatrix", Emotions: &emotion.State{}, Alive: true}
	require.NoError(t, db.SaveAgents([]*agents.Agent{second}))

	loaded, err := db.LoadAgents()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Beatrix", loaded[0].Name)
}

func TestRelationshipsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	net := relation.NewNetwork(policy.Default().Network)
	r := net.Upsert(1, 2, relation.KindConfidant)
	require.NoError(t, r.ApplyEventNote(relation.EventConfidedSecret, 4, "about the safehouse"))

	require.NoError(t, db.SaveRelationships(net))

	restored := relation.NewNetwork(policy.Default().Network)
	require.NoError(t, db.LoadRelationships(restored))

	assert.Equal(t, net.EdgeCount(), restored.EdgeCount())
	got, ok := restored.Get(1, 2)
	require.True(t, ok)
	assert.Equal(t, relation.KindConfidant, got.Kind)
	assert.Equal(t, r.Metrics, got.Metrics)
	require.Len(t, got.History, 1)
	assert.Equal(t, "about the safehouse", got.History[0].Note)

	// The reverse edge came back too, with adjacency intact.
	_, ok = restored.Get(2, 1)
	assert.True(t, ok)
	assert.Len(t, restored.SocialCircle(1), 1)
}

func TestSupportsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	reg := therapy.NewRegistry(policy.Default().Support)
	circle := reg.Create("evening circle", 0.15, 0.005)
	circle.AddMember(1)
	circle.AddMember(3)
	reg.Create("dock confessional", 0.05, 0)

	require.NoError(t, db.SaveSupports(reg))

	restored := therapy.NewRegistry(policy.Default().Support)
	require.NoError(t, db.LoadSupports(restored))

	require.Len(t, restored.All(), 2)
	got, ok := restored.Get(circle.ID)
	require.True(t, ok)
	assert.Equal(t, "evening circle", got.Name)
	assert.Equal(t, float32(0.15), got.ResilienceBonus)
	assert.Equal(t, float32(0.005), got.PassiveRecovery)
	assert.Equal(t, []agents.AgentID{1, 3}, got.Members())

	// Membership survives, so a restored member still has a best network.
	assert.Same(t, got, restored.BestFor(3))
}

func TestCellsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	crew := social.NewCell(1, "dock crew", 4)
	crew.AddMember(1)
	crew.AddMember(2)
	empty := social.NewCell(2, "north watch", 2)

	require.NoError(t, db.SaveCells([]*social.Cell{crew, empty}))

	loaded, err := db.LoadCells()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, social.CellID(1), loaded[0].ID)
	assert.Equal(t, "dock crew", loaded[0].Name)
	assert.Equal(t, social.FactionID(4), loaded[0].FactionID)
	assert.Equal(t, []agents.AgentID{1, 2}, loaded[0].Members())
	assert.Equal(t, 0, loaded[1].Size())
}

func TestWorldStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	w := sim.NewWorld(policy.Default(), entropy.NewSeeded(1))
	a := &agents.Agent{ID: 1, Name: "Adrian", Emotions: &emotion.State{TraumaLevel: 0.4}, Alive: true}
	b := &agents.Agent{ID: 2, Name: "Beatrix", Emotions: &emotion.State{}, Alive: true}
	w.AddAgent(a)
	w.AddAgent(b)
	w.Net.Upsert(1, 2, relation.KindComrade)

	crew := social.NewCell(1, "dock crew", 4)
	crew.AddMember(1)
	crew.AddMember(2)
	w.AddCell(crew)

	circle := w.Supports.Create("evening circle", 0.15, 0.005)
	circle.AddMember(1)

	w.Ledger.Record(history.Event{Turn: 1, Description: "safehouse raid"})
	for i := 0; i < 9; i++ {
		w.AdvanceTurn()
	}
	require.NoError(t, db.SaveWorldState(w))

	fresh := sim.NewWorld(policy.Default(), entropy.NewSeeded(1))
	require.NoError(t, db.LoadWorldState(fresh))

	assert.Equal(t, uint64(9), fresh.Turn, "turn counter continues where the snapshot left off")
	require.Len(t, fresh.Agents, 2)
	assert.Equal(t, 2, fresh.Net.EdgeCount())
	require.Len(t, fresh.Cells, 1)
	assert.Equal(t, []agents.AgentID{1, 2}, fresh.Cells[0].Members())
	assert.Equal(t, 1, fresh.Ledger.Len())

	restored := fresh.Supports.BestFor(1)
	require.NotNil(t, restored)
	assert.Equal(t, "evening circle", restored.Name)

	// Passive support keeps flowing after a restore.
	before := fresh.AgentIndex[1].Emotions.TraumaLevel
	fresh.AdvanceTurn()
	assert.Equal(t, uint64(10), fresh.Turn)
	assert.Less(t, fresh.AgentIndex[1].Emotions.TraumaLevel, before)
}

func TestLedgerAppendsIncrementally(t *testing.T) {
	db := openTestDB(t)

	ledger := history.NewLedger()
	ledger.Record(history.Event{Turn: 1, Description: "safehouse raid", FactionIDs: []uint64{2}})
	require.NoError(t, db.SaveLedger(ledger))

	// Saving again with one new event must not duplicate the first.
	ledger.Record(history.Event{
		Turn: 2, Description: "arrests at the docks",
		Impact: map[string]float32{"probability": 0.4},
	})
	require.NoError(t, db.SaveLedger(ledger))
	require.NoError(t, db.SaveLedger(ledger)) // no-op

	loaded, err := db.LoadLedger()
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	all := loaded.All()
	assert.Equal(t, "safehouse raid", all[0].Description)
	assert.Equal(t, []uint64{2}, all[0].FactionIDs)
	assert.InDelta(t, 0.4, all[1].Impact["probability"], 1e-6)
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveMeta("last_turn", "17"))
	require.NoError(t, db.SaveMeta("last_turn", "18")) // upsert

	v, err := db.GetMeta("last_turn")
	require.NoError(t, err)
	assert.Equal(t, "18", v)

	_, err = db.GetMeta("absent")
	assert.Error(t, err)
}

func TestHasWorldState(t *testing.T) {
	db := openTestDB(t)
	assert.False(t, db.HasWorldState())

	a := &agents.Agent{ID: 1, Name: "Adrian", Emotions: &emotion.State{}, Alive: true}
	require.NoError(t, db.SaveAgents([]*agents.Agent{a}))
	assert.True(t, db.HasWorldState())
}
