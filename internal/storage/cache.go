package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vovakirdan/zentiles/internal/offline"
)

// CacheStorage persists offline cache generations in the store, so a
// deployed generation survives restarts.
type CacheStorage struct {
	db *sql.DB
}

// CacheStorage returns the cache generations kept in s.
func (s *Store) CacheStorage() *CacheStorage {
	return &CacheStorage{db: s.db}
}

var _ offline.Storage = (*CacheStorage)(nil)

// Open returns the named cache, creating it if absent.
func (c *CacheStorage) Open(ctx context.Context, name string) (offline.Cache, error) {
	_, err := c.db.ExecContext(ctx,
		"INSERT INTO cache_stores (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, time.Now().UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open cache %s: %w", name, err)
	}
	return &sqliteCache{db: c.db, name: name}, nil
}

// Keys lists cache names in creation order.
func (c *CacheStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT name FROM cache_stores ORDER BY created_at, name")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list caches: %w", err)
	}
	return scanStrings(rows)
}

// Delete removes the named cache and its entries.
func (c *CacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("storage: cannot delete cache %s: %w", name, err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after Commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_name = ?", name); err != nil {
		return false, fmt.Errorf("storage: cannot delete cache %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM cache_stores WHERE name = ?", name)
	if err != nil {
		return false, fmt.Errorf("storage: cannot delete cache %s: %w", name, err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("storage: cannot delete cache %s: %w", name, err)
	}
	return n > 0, nil
}

// Match looks key up across all caches, oldest generation first.
func (c *CacheStorage) Match(ctx context.Context, key string) (*offline.Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT e.key, e.status, e.header, e.body, e.stored_at
		 FROM cache_entries e JOIN cache_stores s ON s.name = e.cache_name
		 WHERE e.key = ?
		 ORDER BY s.created_at, s.name
		 LIMIT 1`,
		key,
	)
	return scanEntry(row)
}

type sqliteCache struct {
	db   *sql.DB
	name string
}

func (c *sqliteCache) Name() string {
	return c.name
}

func (c *sqliteCache) Match(ctx context.Context, key string) (*offline.Entry, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT key, status, header, body, stored_at FROM cache_entries WHERE cache_name = ? AND key = ?",
		c.name, key,
	)
	return scanEntry(row)
}

func (c *sqliteCache) Put(ctx context.Context, key string, e *offline.Entry) error {
	header, err := json.Marshal(e.Header)
	if err != nil {
		return fmt.Errorf("storage: cannot encode header for %s: %w", key, err)
	}
	storedAt := e.StoredAt
	if storedAt.IsZero() {
		storedAt = time.Now()
	}
	body := e.Body
	if body == nil {
		body = []byte{}
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_name, key, status, header, body, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_name, key) DO UPDATE SET
		   status = excluded.status, header = excluded.header,
		   body = excluded.body, stored_at = excluded.stored_at`,
		c.name, key, e.Status, string(header), body, storedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot cache %s: %w", key, err)
	}
	return nil
}

func (c *sqliteCache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT key FROM cache_entries WHERE cache_name = ? ORDER BY key",
		c.name,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot list cache %s: %w", c.name, err)
	}
	return scanStrings(rows)
}

func scanEntry(row *sql.Row) (*offline.Entry, error) {
	var (
		e        offline.Entry
		header   string
		storedAt int64
	)
	err := row.Scan(&e.URL, &e.Status, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offline.ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot read cache entry: %w", err)
	}
	e.Header = make(http.Header)
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, fmt.Errorf("storage: cannot decode header for %s: %w", e.URL, err)
	}
	e.StoredAt = time.Unix(0, storedAt)
	return &e, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}
