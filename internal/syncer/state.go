package syncer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vitalvault/vitalvault/internal/models"
)

const lastSyncKey = "last_sync_date"

// StateStore persists the orchestrator's durable state: the last successful
// sync timestamp and a journal of sync outcomes. Everything else lives in
// memory only.
type StateStore struct {
	db *sql.DB
}

// OpenStateStore opens (or creates) the SQLite state database at
// dir/state.db.
func OpenStateStore(dir string) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sync_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sync_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			success       INTEGER NOT NULL,
			storj_uri     TEXT,
			content_hash  TEXT,
			tier          TEXT,
			score         INTEGER,
			metrics_count INTEGER,
			days_covered  INTEGER,
			error         TEXT,
			completed_at  TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating state schema: %w", err)
		}
	}

	return &StateStore{db: db}, nil
}

// LastSyncDate returns the persisted last successful sync time, or false if
// no sync has ever completed.
func (s *StateStore) LastSyncDate() (time.Time, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM sync_state WHERE key = ?`, lastSyncKey,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing last sync date: %w", err)
	}
	return t, true, nil
}

// SetLastSyncDate persists the last successful sync time.
func (s *StateStore) SetLastSyncDate(t time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`,
		lastSyncKey, t.Format(time.RFC3339),
	)
	return err
}

// AppendHistory records one sync attempt's outcome in the journal.
func (s *StateStore) AppendHistory(r models.SyncResult) error {
	_, err := s.db.Exec(
		`INSERT INTO sync_history
		 (success, storj_uri, content_hash, tier, score, metrics_count, days_covered, error, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Success, r.StorjURI, r.ContentHash, string(r.Tier),
		r.Score, r.MetricsCount, r.DaysCovered, r.Error, r.CompletedAt,
	)
	return err
}

// History returns the most recent sync outcomes, newest first.
func (s *StateStore) History(limit int) ([]models.SyncResult, error) {
	rows, err := s.db.Query(
		`SELECT success, storj_uri, content_hash, tier, score, metrics_count, days_covered, error, completed_at
		 FROM sync_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync history: %w", err)
	}
	defer rows.Close()

	var results []models.SyncResult
	for rows.Next() {
		var r models.SyncResult
		var tier string
		if err := rows.Scan(&r.Success, &r.StorjURI, &r.ContentHash, &tier,
			&r.Score, &r.MetricsCount, &r.DaysCovered, &r.Error, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scanning sync history: %w", err)
		}
		r.Tier = models.Tier(tier)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the state database.
func (s *StateStore) Close() error {
	return s.db.Close()
}
