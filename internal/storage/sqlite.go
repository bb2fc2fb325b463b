// Package storage provides SQLite-based persistence for best scores, session
// history and offline cache generations.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/zentiles/internal/config"
	"github.com/vovakirdan/zentiles/internal/games/zentiles"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Session is one won board in the history.
type Session struct {
	ID        int64
	Mode      config.Mode
	Moves     int
	Seconds   int
	NewRecord bool
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer at a time; the HTTP server and SSH sessions share the file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			moves INTEGER NOT NULL,
			seconds INTEGER NOT NULL,
			new_record INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_mode ON sessions(mode);

		CREATE TABLE IF NOT EXISTS cache_stores (
			name TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cache_entries (
			cache_name TEXT NOT NULL,
			key TEXT NOT NULL,
			status INTEGER NOT NULL,
			header TEXT NOT NULL,
			body BLOB NOT NULL,
			stored_at INTEGER NOT NULL,
			PRIMARY KEY (cache_name, key)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record returns the integer stored under key.
func (s *Store) Record(key string) (int, bool, error) {
	var value int
	err := s.db.QueryRow("SELECT value FROM records WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("storage: cannot query record %s: %w", key, err)
	}
	return value, true, nil
}

// SetRecord stores value under key, replacing any previous value.
func (s *Store) SetRecord(key string, value int) error {
	_, err := s.db.Exec(
		`INSERT INTO records (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save record %s: %w", key, err)
	}
	return nil
}

// BestMoves implements zentiles.Records.
func (s *Store) BestMoves(mode config.Mode) (int, bool, error) {
	return s.Record(mode.BestKey())
}

// SetBestMoves implements zentiles.Records.
func (s *Store) SetBestMoves(mode config.Mode, moves int) error {
	return s.SetRecord(mode.BestKey(), moves)
}

// ClearRecords deletes every stored best.
func (s *Store) ClearRecords() error {
	if _, err := s.db.Exec("DELETE FROM records"); err != nil {
		return fmt.Errorf("storage: cannot clear records: %w", err)
	}
	return nil
}

var _ zentiles.Records = (*Store)(nil)

// SaveSession appends a won session to the history.
// Returns the ID of the inserted row.
func (s *Store) SaveSession(sum zentiles.WinSummary) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO sessions (mode, moves, seconds, new_record) VALUES (?, ?, ?, ?)",
		string(sum.Mode), sum.Moves, sum.Elapsed, sum.NewRecord,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// RecentSessions returns the latest sessions, newest first.
// An empty mode returns sessions of every mode.
func (s *Store) RecentSessions(mode config.Mode, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, mode, moves, seconds, new_record, created_at
		 FROM sessions
		 WHERE ? = '' OR mode = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		string(mode), string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var m string
		var createdAt any
		if err := rows.Scan(&sess.ID, &m, &sess.Moves, &sess.Seconds, &sess.NewRecord, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		sess.Mode = config.Mode(m)
		sess.CreatedAt = parseTime(createdAt)
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return sessions, nil
}

// ModeStats contains aggregated statistics for a mode.
type ModeStats struct {
	Mode        config.Mode
	Games       int
	FewestMoves int
	AvgMoves    float64
	FastestSecs int
	LastPlayed  time.Time
}

// Stats retrieves aggregated session statistics for a mode.
func (s *Store) Stats(mode config.Mode) (*ModeStats, error) {
	stats := &ModeStats{Mode: mode}
	var lastPlayed any

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(MIN(moves), 0), COALESCE(AVG(moves), 0),
		        COALESCE(MIN(seconds), 0), MAX(created_at)
		 FROM sessions WHERE mode = ?`,
		string(mode),
	).Scan(&stats.Games, &stats.FewestMoves, &stats.AvgMoves, &stats.FastestSecs, &lastPlayed)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get stats: %w", err)
	}
	stats.LastPlayed = parseTime(lastPlayed)

	return stats, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
