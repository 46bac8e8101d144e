// Command socsim runs the UNDERCURRENT social-emotional simulation: a
// population of agents embedded in factions whose relationships and
// inner states evolve turn by turn.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/api"
	"github.com/talgya/undercurrent/internal/entropy"
	"github.com/talgya/undercurrent/internal/history"
	"github.com/talgya/undercurrent/internal/persistence"
	"github.com/talgya/undercurrent/internal/policy"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/sim"
	"github.com/talgya/undercurrent/internal/social"
	"github.com/talgya/undercurrent/internal/therapy"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	seed := envInt64("SOCSIM_SEED", 42)
	turns := envInt("SOCSIM_TURNS", 200)
	population := envInt("SOCSIM_POPULATION", 60)
	dbPath := envString("SOCSIM_DB", "data/undercurrent.db")
	apiPort := envInt("SOCSIM_API_PORT", 8080)
	policyPath := envString("SOCSIM_POLICY", "")

	slog.Info("undercurrent: agent social-emotional simulation",
		"seed", seed, "turns", turns, "population", population)

	pol := policy.Default()
	if policyPath != "" {
		var err error
		pol, err = policy.Load(policyPath)
		if err != nil {
			slog.Error("failed to load policy", "path", policyPath, "error", err)
			os.Exit(1)
		}
		slog.Info("policy loaded", "path", policyPath)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll("data", 0755)
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	// ── World ────────────────────────────────────────────────────────
	world := sim.NewWorld(pol, entropy.NewSeeded(seed))
	spawner := agents.NewSpawner(seed)

	if db.HasWorldState() {
		slog.Info("found saved world state, loading...")
		if err := db.LoadWorldState(world); err != nil {
			slog.Error("failed to load world state", "error", err)
			os.Exit(1)
		}
		var maxID agents.AgentID
		for _, a := range world.Agents {
			if a.ID > maxID {
				maxID = a.ID
			}
		}
		spawner.SetNextID(maxID + 1)
	} else {
		seedWorld(world, spawner, population)
	}

	// ── Run ──────────────────────────────────────────────────────────
	campaign := history.NewCampaign("harbor interdiction")
	world.Campaigns = append(world.Campaigns, campaign)
	stageEvery := turns/4 + 1

	rng := entropy.NewSeeded(seed + 1)
	for i := 0; i < turns; i++ {
		world.AdvanceTurn()
		driveScriptedEvents(world, rng, campaign)

		if (i+1)%stageEvery == 0 && !campaign.Completed {
			campaign.AdvanceStage()
			world.Ledger.Record(history.Event{
				Turn:        world.Turn,
				Description: fmt.Sprintf("campaign %q entered %s", campaign.Name, campaign.Stage),
			})
		}
	}

	summarize(world)

	if err := db.SaveWorldState(world); err != nil {
		slog.Error("failed to save snapshot", "error", err)
	}

	// ── API ──────────────────────────────────────────────────────────
	server := &api.Server{World: world, Port: apiPort}
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")
}

// seedWorld builds the initial population: faction assignment, one cell
// per faction, comrade edges within cells, and one support network.
func seedWorld(world *sim.World, spawner *agents.Spawner, population int) {
	roster := spawner.SpawnPopulation(population)
	for _, a := range roster {
		world.AddAgent(a)
	}

	// Deal agents round-robin into factions and one cell per faction.
	cells := make(map[social.FactionID]*social.Cell)
	for i, f := range world.Factions {
		c := social.NewCell(social.CellID(i+1), f.Name+" cell", f.ID)
		world.AddCell(c)
		cells[f.ID] = c
	}
	for i, a := range roster {
		f := world.Factions[i%len(world.Factions)]
		world.AssignFaction(a.ID, f.ID)
		cid := uint64(cells[f.ID].ID)
		a.CellID = &cid
		cells[f.ID].AddMember(a.ID)
	}

	// Cellmates know each other from the start.
	for _, c := range world.Cells {
		members := c.Members()
		for i, a := range members {
			for _, b := range members[i+1:] {
				world.Net.Upsert(a, b, relation.KindComrade)
			}
		}
	}

	// One standing support circle, open to the most traumatized third.
	circle := world.Supports.Create("evening circle", 0.15, 0.005)
	for _, a := range roster {
		if a.Trauma() > 0.3 {
			circle.AddMember(a.ID)
		}
	}

	slog.Info("world seeded",
		"agents", len(roster),
		"cells", len(world.Cells),
		"relationships", world.Net.EdgeCount(),
		"supported", len(circle.Members()),
	)
}

// driveScriptedEvents stands in for the mission engine: each turn a few
// cells run missions and a few agents seek therapy, so the social fabric
// has something to react to.
func driveScriptedEvents(world *sim.World, rng entropy.Source, campaign *history.Campaign) {
	for _, c := range world.Cells {
		members := c.Members()
		if len(members) < 2 {
			continue
		}
		r := rng.Float64()
		switch {
		case r < 0.15:
			world.Net.ApplyGroupEvent(members, relation.EventMissionSuccess, world.Turn)
			campaign.LinkMission(world.Turn*100 + uint64(c.ID))
		case r < 0.22:
			world.Net.ApplyGroupEvent(members, relation.EventMissionFailure, world.Turn)
			// Failed missions leave marks on whoever was on point.
			world.WitnessTrauma(members[0], 0.15, "mission gone wrong", []string{"ambush"})
		case r < 0.25:
			world.Net.ApplyGroupEvent(members, relation.EventSharedHardship, world.Turn)
		}
	}

	for _, a := range world.Agents {
		if a.Alive && a.Trauma() > 0.5 && rng.Float64() < 0.10 {
			world.ConductTherapy(a.ID, therapy.ModalityIndividual)
		}
	}
}

// summarize logs the end-of-run picture.
func summarize(world *sim.World) {
	slog.Info("run complete",
		"turn", world.Turn,
		"population", world.Stats.Population,
		"relationships", humanize.Comma(int64(world.Stats.Relationships)),
		"events", humanize.Comma(int64(len(world.Events))),
		"ledger", humanize.Comma(int64(world.Ledger.Len())),
		"betrayals", world.Stats.Betrayals,
		"avg_trauma", fmt.Sprintf("%.3f", world.Stats.AvgTrauma),
		"avg_stability", fmt.Sprintf("%.3f", world.Stats.AvgStability),
	)

	for _, f := range world.Factions {
		rating, value := world.Net.GroupCohesion(world.FactionMembers(f.ID))
		slog.Info("faction cohesion",
			"faction", f.Name,
			"rating", rating.String(),
			"mean", fmt.Sprintf("%.3f", value),
			"strength", fmt.Sprintf("%.3f", world.FactionCohesion(f.ID)),
		)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
