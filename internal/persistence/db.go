// Package persistence provides SQLite-based world snapshots. The core
// packages stay storage-agnostic; everything here reads and writes their
// plain serializable records field by field.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/undercurrent/internal/agents"
	"github.com/talgya/undercurrent/internal/history"
	"github.com/talgya/undercurrent/internal/relation"
	"github.com/talgya/undercurrent/internal/sim"
	"github.com/talgya/undercurrent/internal/social"
	"github.com/talgya/undercurrent/internal/therapy"
)

// DB wraps a SQLite connection for world snapshots.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		background INTEGER NOT NULL,
		faction_id INTEGER,
		cell_id INTEGER,
		alive INTEGER NOT NULL,
		born_turn INTEGER NOT NULL,
		emotions_json TEXT NOT NULL,
		memories_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS relationships (
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		trust REAL NOT NULL,
		loyalty REAL NOT NULL,
		fear REAL NOT NULL,
		affinity REAL NOT NULL,
		ideological_proximity REAL NOT NULL,
		betrayal_potential REAL NOT NULL,
		history_json TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id)
	);

	CREATE TABLE IF NOT EXISTS ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		turn INTEGER NOT NULL,
		description TEXT NOT NULL,
		faction_ids_json TEXT NOT NULL,
		impact_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS supports (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		resilience_bonus REAL NOT NULL,
		passive_recovery REAL NOT NULL,
		members_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cells (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		faction_id INTEGER NOT NULL,
		members_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_turn ON ledger(turn);
	CREATE INDEX IF NOT EXISTS idx_agents_alive ON agents(alive);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveAgents writes all agents to the database (full replace).
func (db *DB) SaveAgents(agentList []*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, name, background, faction_id, cell_id, alive, born_turn, emotions_json, memories_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range agentList {
		emotionsJSON, _ := json.Marshal(a.Emotions)
		memoriesJSON, _ := json.Marshal(a.Memories)

		alive := 0
		if a.Alive {
			alive = 1
		}

		_, err := stmt.Exec(
			a.ID, a.Name, a.Background, a.FactionID, a.CellID,
			alive, a.BornTurn, string(emotionsJSON), string(memoriesJSON),
		)
		if err != nil {
			return fmt.Errorf("insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAgents restores all agents from the database.
func (db *DB) LoadAgents() ([]*agents.Agent, error) {
	rows, err := db.conn.Queryx(`SELECT id, name, background, faction_id, cell_id,
		alive, born_turn, emotions_json, memories_json FROM agents ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*agents.Agent
	for rows.Next() {
		var (
			a                          agents.Agent
			alive                      int
			emotionsJSON, memoriesJSON string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Background, &a.FactionID, &a.CellID,
			&alive, &a.BornTurn, &emotionsJSON, &memoriesJSON); err != nil {
			return nil, err
		}
		a.Alive = alive != 0
		if err := json.Unmarshal([]byte(emotionsJSON), &a.Emotions); err != nil {
			return nil, fmt.Errorf("agent %d emotions: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(memoriesJSON), &a.Memories); err != nil {
			return nil, fmt.Errorf("agent %d memories: %w", a.ID, err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// SaveRelationships writes all edges to the database (full replace).
func (db *DB) SaveRelationships(net *relation.Network) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM relationships"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO relationships
		(from_id, to_id, kind, trust, loyalty, fear, affinity,
		 ideological_proximity, betrayal_potential, history_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range net.Edges() {
		historyJSON, _ := json.Marshal(r.History)
		_, err := stmt.Exec(
			r.FromID, r.ToID, r.Kind,
			r.Metrics.Trust, r.Metrics.Loyalty, r.Metrics.Fear,
			r.Metrics.Affinity, r.Metrics.IdeologicalProximity,
			r.Metrics.BetrayalPotential, string(historyJSON),
		)
		if err != nil {
			return fmt.Errorf("insert relationship %d->%d: %w", r.FromID, r.ToID, err)
		}
	}

	return tx.Commit()
}

// LoadRelationships restores all edges into the given network.
func (db *DB) LoadRelationships(net *relation.Network) error {
	rows, err := db.conn.Queryx(`SELECT from_id, to_id, kind, trust, loyalty, fear,
		affinity, ideological_proximity, betrayal_potential, history_json
		FROM relationships ORDER BY from_id, to_id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r           relation.Relationship
			historyJSON string
		)
		if err := rows.Scan(&r.FromID, &r.ToID, &r.Kind,
			&r.Metrics.Trust, &r.Metrics.Loyalty, &r.Metrics.Fear,
			&r.Metrics.Affinity, &r.Metrics.IdeologicalProximity,
			&r.Metrics.BetrayalPotential, &historyJSON); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(historyJSON), &r.History); err != nil {
			return fmt.Errorf("relationship %d->%d history: %w", r.FromID, r.ToID, err)
		}
		net.Restore(&r)
	}
	return rows.Err()
}

// SaveSupports writes all support networks to the database (full replace).
func (db *DB) SaveSupports(reg *therapy.Registry) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM supports"); err != nil {
		return err
	}

	for _, n := range reg.All() {
		membersJSON, _ := json.Marshal(n.Members())
		_, err := tx.Exec(`INSERT INTO supports
			(id, name, resilience_bonus, passive_recovery, members_json)
			VALUES (?, ?, ?, ?, ?)`,
			n.ID.String(), n.Name, n.ResilienceBonus, n.PassiveRecovery, string(membersJSON),
		)
		if err != nil {
			return fmt.Errorf("insert support %s: %w", n.Name, err)
		}
	}

	return tx.Commit()
}

// LoadSupports restores all support networks into the given registry.
func (db *DB) LoadSupports(reg *therapy.Registry) error {
	rows, err := db.conn.Queryx(
		"SELECT id, name, resilience_bonus, passive_recovery, members_json FROM supports ORDER BY name, id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idStr, name, membersJSON   string
			resilience, passiveRecover float32
		)
		if err := rows.Scan(&idStr, &name, &resilience, &passiveRecover, &membersJSON); err != nil {
			return err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return fmt.Errorf("support %q id: %w", name, err)
		}
		var members []agents.AgentID
		if err := json.Unmarshal([]byte(membersJSON), &members); err != nil {
			return fmt.Errorf("support %q members: %w", name, err)
		}
		reg.Restore(id, name, resilience, passiveRecover, members)
	}
	return rows.Err()
}

// SaveCells writes all cells to the database (full replace).
func (db *DB) SaveCells(cells []*social.Cell) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cells"); err != nil {
		return err
	}

	for _, c := range cells {
		membersJSON, _ := json.Marshal(c.Members())
		_, err := tx.Exec(
			"INSERT INTO cells (id, name, faction_id, members_json) VALUES (?, ?, ?, ?)",
			c.ID, c.Name, c.FactionID, string(membersJSON),
		)
		if err != nil {
			return fmt.Errorf("insert cell %d: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// LoadCells restores all cells from the database.
func (db *DB) LoadCells() ([]*social.Cell, error) {
	rows, err := db.conn.Queryx("SELECT id, name, faction_id, members_json FROM cells ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*social.Cell
	for rows.Next() {
		var (
			id          social.CellID
			faction     social.FactionID
			name        string
			membersJSON string
		)
		if err := rows.Scan(&id, &name, &faction, &membersJSON); err != nil {
			return nil, err
		}
		var members []agents.AgentID
		if err := json.Unmarshal([]byte(membersJSON), &members); err != nil {
			return nil, fmt.Errorf("cell %d members: %w", id, err)
		}
		c := social.NewCell(id, name, faction)
		for _, m := range members {
			c.AddMember(m)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveLedger appends ledger events past the already-stored count.
func (db *DB) SaveLedger(ledger *history.Ledger) error {
	var stored int
	if err := db.conn.Get(&stored, "SELECT COUNT(*) FROM ledger"); err != nil {
		return err
	}

	events := ledger.All()
	if stored >= len(events) {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events[stored:] {
		factionsJSON, _ := json.Marshal(e.FactionIDs)
		impactJSON, _ := json.Marshal(e.Impact)
		_, err := tx.Exec(
			"INSERT INTO ledger (turn, description, faction_ids_json, impact_json) VALUES (?, ?, ?, ?)",
			e.Turn, e.Description, string(factionsJSON), string(impactJSON),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadLedger restores the ledger from the database.
func (db *DB) LoadLedger() (*history.Ledger, error) {
	rows, err := db.conn.Queryx(
		"SELECT turn, description, faction_ids_json, impact_json FROM ledger ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ledger := history.NewLedger()
	for rows.Next() {
		var (
			e                        history.Event
			factionsJSON, impactJSON string
		)
		if err := rows.Scan(&e.Turn, &e.Description, &factionsJSON, &impactJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(factionsJSON), &e.FactionIDs); err != nil {
			return nil, fmt.Errorf("ledger faction ids: %w", err)
		}
		if err := json.Unmarshal([]byte(impactJSON), &e.Impact); err != nil {
			return nil, fmt.Errorf("ledger impact: %w", err)
		}
		ledger.Record(e)
	}
	return ledger, rows.Err()
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a previous snapshot exists.
func (db *DB) HasWorldState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM agents"); err != nil {
		return false
	}
	return count > 0
}

// SaveWorldState performs a full snapshot of the world.
func (db *DB) SaveWorldState(w *sim.World) error {
	slog.Info("saving world snapshot", "agents", len(w.Agents), "relationships", w.Net.EdgeCount())

	if err := db.SaveAgents(w.Agents); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := db.SaveRelationships(w.Net); err != nil {
		return fmt.Errorf("save relationships: %w", err)
	}
	if err := db.SaveSupports(w.Supports); err != nil {
		return fmt.Errorf("save supports: %w", err)
	}
	if err := db.SaveCells(w.Cells); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	if err := db.SaveLedger(w.Ledger); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	if err := db.SaveMeta("last_turn", fmt.Sprintf("%d", w.Turn)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("world snapshot saved")
	return nil
}

// LoadWorldState restores a full snapshot into a freshly constructed
// world: agents, relationships, support networks, cells, the event
// ledger, and the turn counter.
func (db *DB) LoadWorldState(w *sim.World) error {
	restored, err := db.LoadAgents()
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	for _, a := range restored {
		w.AddAgent(a)
	}

	if err := db.LoadRelationships(w.Net); err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}
	if err := db.LoadSupports(w.Supports); err != nil {
		return fmt.Errorf("load supports: %w", err)
	}

	cells, err := db.LoadCells()
	if err != nil {
		return fmt.Errorf("load cells: %w", err)
	}
	for _, c := range cells {
		w.AddCell(c)
	}

	ledger, err := db.LoadLedger()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	w.Ledger = ledger

	turnStr, err := db.GetMeta("last_turn")
	if err != nil {
		return fmt.Errorf("load meta: %w", err)
	}
	turn, err := strconv.ParseUint(turnStr, 10, 64)
	if err != nil {
		return fmt.Errorf("last_turn %q: %w", turnStr, err)
	}
	w.Turn = turn

	slog.Info("world snapshot loaded",
		"turn", w.Turn, "agents", len(w.Agents), "relationships", w.Net.EdgeCount())
	return nil
}
