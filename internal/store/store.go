// Package store implements SQLite persistence for riskmonitor:
// organizations, suppliers, dependency edges, events, risk history,
// future predictions, and live feed rows.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database. A single writer connection is used;
// SQLite serializes writes anyway and this avoids SQLITE_BUSY churn.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NotFoundError reports a missing row. Handlers map it to 404.
type NotFoundError struct {
	Kind string
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// New opens (or creates) the SQLite database at the given path.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for stats and tests.
func (s *Store) DB() *sql.DB { return s.db }

// initialize creates the required tables.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		industry TEXT NOT NULL,
		headquarters_location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		shipping_route TEXT NOT NULL DEFAULT '[]',
		current_risk_score REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		country TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		criticality TEXT NOT NULL DEFAULT 'Medium',
		tier INTEGER NOT NULL DEFAULT 1,
		lead_time_days INTEGER NOT NULL DEFAULT 30,
		reliability_score REAL NOT NULL DEFAULT 85,
		capacity_utilization REAL NOT NULL DEFAULT 70,
		contact_info TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_suppliers_org ON suppliers(organization_id);

	CREATE TABLE IF NOT EXISTS supplier_dependencies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		supplier_id INTEGER NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
		depends_on_supplier_id INTEGER NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
		dependency_type TEXT NOT NULL DEFAULT 'important',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deps_supplier ON supplier_dependencies(supplier_id);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		event_input TEXT NOT NULL,
		severity_level INTEGER NOT NULL DEFAULT 3,
		title TEXT NOT NULL DEFAULT '',
		event_type TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		impact_assessment TEXT NOT NULL DEFAULT '',
		affected_supplier_count INTEGER NOT NULL DEFAULT 0,
		overall_risk_score REAL NOT NULL DEFAULT 0,
		parsed_event TEXT,
		affected_suppliers TEXT,
		risk_analysis TEXT,
		recommendations TEXT,
		alternative_suppliers TEXT,
		playbook TEXT,
		agent_logs TEXT,
		processing_status TEXT NOT NULL DEFAULT 'pending',
		processing_time_seconds REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_events_org ON events(organization_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS risk_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		risk_score REAL NOT NULL,
		recorded_at TEXT NOT NULL,
		event_id INTEGER,
		notes TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_history_org ON risk_history(organization_id, recorded_at DESC);

	CREATE TABLE IF NOT EXISTS future_risk_predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		prediction_period_days INTEGER NOT NULL,
		predicted_risk_score REAL NOT NULL,
		risk_factors TEXT,
		recommendations TEXT,
		confidence_level REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_predictions_org ON future_risk_predictions(organization_id, prediction_period_days, created_at DESC);

	CREATE TABLE IF NOT EXISTS live_feeds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feeds_created ON live_feeds(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_feeds_source ON live_feeds(source);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Stats returns row counts per table.
func (s *Store) Stats() (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := []string{
		"organizations", "suppliers", "supplier_dependencies",
		"events", "risk_history", "future_risk_predictions", "live_feeds",
	}
	stats := make(map[string]int, len(tables))
	for _, table := range tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		stats[table] = n
	}
	return stats, nil
}

// =============================================================================
// TIME HELPERS
// =============================================================================

// Timestamps are stored as RFC3339 UTC strings so they survive any SQLite
// driver's type affinity rules.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func decodeTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := decodeTime(s.String)
	return &t
}
