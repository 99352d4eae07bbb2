// Package persistence provides the SQLite telemetry log: one row per run,
// the event stream and periodic stats snapshots. It is not a save format;
// a restarted process begins a new run.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/parkworld/internal/economy"
	"github.com/talgya/parkworld/internal/engine"
)

// ErrNoRun is returned when a run ID is unknown.
var ErrNoRun = errors.New("run not found")

// DB wraps a SQLite connection for telemetry.
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
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		config_yaml TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		sim_time TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		guests INTEGER NOT NULL,
		admitted INTEGER NOT NULL,
		departed INTEGER NOT NULL,
		queued INTEGER NOT NULL,
		riding INTEGER NOT NULL,
		avg_satisfaction REAL NOT NULL,
		avg_happiness REAL NOT NULL,
		rides_taken INTEGER NOT NULL,
		broken_rides INTEGER NOT NULL,
		litter INTEGER NOT NULL,
		full_bins INTEGER NOT NULL,
		lawn_length REAL NOT NULL,
		income INTEGER NOT NULL,
		expenses INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS park_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_stats_run_tick ON stats(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one simulation run.
type Run struct {
	ID         string `db:"id" json:"id"`
	StartedAt  string `db:"started_at" json:"started_at"`
	Seed       uint64 `db:"seed" json:"seed"`
	ConfigYAML string `db:"config_yaml" json:"-"`
}

// StartRun records a new run and makes it the current one.
func (db *DB) StartRun(seed uint64, configYAML string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, started_at, seed, config_yaml) VALUES (?, ?, ?, ?)",
		id, time.Now().UTC().Format(time.RFC3339), int64(seed), configYAML,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	if err := db.SaveMeta("current_run", id); err != nil {
		return "", fmt.Errorf("save meta: %w", err)
	}
	slog.Info("telemetry run started", "run_id", id, "seed", seed)
	return id, nil
}

// GetRun loads one run.
func (db *DB) GetRun(id string) (Run, error) {
	var r Run
	err := db.conn.Get(&r, "SELECT id, started_at, seed, config_yaml FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrNoRun, id)
	}
	return r, err
}

// Runs lists every run, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, started_at, seed, config_yaml FROM runs ORDER BY started_at DESC, id")
	return runs, err
}

// SaveEvents appends events to the run's log.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		meta := []byte("{}")
		if len(e.Meta) > 0 {
			if meta, err = json.Marshal(e.Meta); err != nil {
				return fmt.Errorf("encode event meta: %w", err)
			}
		}
		_, err := tx.Exec(
			`INSERT INTO events (run_id, tick, sim_time, category, description, meta_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, int64(e.Tick), e.Time, e.Category, e.Description, string(meta),
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// EventRow is a stored event.
type EventRow struct {
	Tick        uint64 `db:"tick" json:"tick"`
	Time        string `db:"sim_time" json:"time"`
	Category    string `db:"category" json:"category"`
	Description string `db:"description" json:"description"`
	MetaJSON    string `db:"meta_json" json:"-"`
}

// RecentEvents returns the run's most recent events, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]EventRow, error) {
	var events []EventRow
	err := db.conn.Select(&events,
		`SELECT tick, sim_time, category, description, meta_json FROM events
		WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	return events, err
}

// StatsRow is one stats snapshot.
type StatsRow struct {
	Tick            uint64        `db:"tick" json:"tick"`
	Guests          int           `db:"guests" json:"guests"`
	Admitted        int           `db:"admitted" json:"admitted"`
	Departed        int           `db:"departed" json:"departed"`
	Queued          int           `db:"queued" json:"queued"`
	Riding          int           `db:"riding" json:"riding"`
	AvgSatisfaction float64       `db:"avg_satisfaction" json:"avg_satisfaction"`
	AvgHappiness    float64       `db:"avg_happiness" json:"avg_happiness"`
	RidesTaken      int           `db:"rides_taken" json:"rides_taken"`
	BrokenRides     int           `db:"broken_rides" json:"broken_rides"`
	Litter          int           `db:"litter" json:"litter"`
	FullBins        int           `db:"full_bins" json:"full_bins"`
	LawnLength      float64       `db:"lawn_length" json:"lawn_length"`
	Income          economy.Money `db:"income" json:"income"`
	Expenses        economy.Money `db:"expenses" json:"expenses"`
}

// SaveStats appends a stats snapshot.
func (db *DB) SaveStats(runID string, st engine.Stats) error {
	_, err := db.conn.Exec(`INSERT INTO stats
		(run_id, tick, guests, admitted, departed, queued, riding,
		 avg_satisfaction, avg_happiness, rides_taken, broken_rides,
		 litter, full_bins, lawn_length, income, expenses)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, int64(st.Tick), st.Guests, st.Admitted, st.Departed, st.Queued, st.Riding,
		st.AvgSatisfaction, st.AvgHappiness, st.RidesTaken, st.BrokenRides,
		st.Litter, st.FullBins, st.LawnLength, int64(st.Income), int64(st.Expenses),
	)
	if err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}
	return nil
}

// LoadStatsHistory returns the run's snapshots with tick in [from, to],
// oldest first.
func (db *DB) LoadStatsHistory(runID string, from, to uint64, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows,
		`SELECT tick, guests, admitted, departed, queued, riding,
		        avg_satisfaction, avg_happiness, rides_taken, broken_rides,
		        litter, full_bins, lawn_length, income, expenses
		FROM stats WHERE run_id = ? AND tick >= ? AND tick <= ?
		ORDER BY tick ASC LIMIT ?`,
		runID, int64(from), int64(to), limit,
	)
	return rows, err
}

// SaveMeta stores a key-value pair in park metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO park_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM park_meta WHERE key = ?", key)
	return value, err
}

// SaveTelemetry flushes the simulation's pending events and a fresh stats
// snapshot.
func (db *DB) SaveTelemetry(runID string, sim *engine.Simulation) error {
	events := sim.TakePending()
	if err := db.SaveEvents(runID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveStats(runID, sim.CurrentStats()); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if err := db.SaveMeta("last_tick", fmt.Sprintf("%d", sim.CurrentTick())); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	slog.Debug("telemetry saved", "run_id", runID, "events", len(events))
	return nil
}
