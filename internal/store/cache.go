// Package store caches git diffs in SQLite so re-runs and resumed sessions
// never recompute a diff they already paid for. A diff is immutable for a
// given (repository, from, to) triple, so entries never expire.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DiffCache is a SQLite-backed cache keyed by commit pair.
type DiffCache struct {
	db *sql.DB
}

// OpenDiffCache opens (creating if needed) the cache database at path and
// configures WAL mode.
func OpenDiffCache(path string) (*DiffCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}

	c := &DiffCache{db: db}
	if err := c.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS diffs (
	repository  TEXT NOT NULL,
	from_hash   TEXT NOT NULL,
	to_hash     TEXT NOT NULL,
	diff        TEXT NOT NULL,
	chars       INTEGER NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (repository, from_hash, to_hash)
);
`

func (c *DiffCache) migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Get returns the cached diff for the commit pair, or ("", false) on a miss.
func (c *DiffCache) Get(ctx context.Context, repo, from, to string) (string, bool, error) {
	var diff string
	err := c.db.QueryRowContext(ctx,
		`SELECT diff FROM diffs WHERE repository = ? AND from_hash = ? AND to_hash = ?`,
		repo, from, to,
	).Scan(&diff)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "store: get diff")
	}
	return diff, true, nil
}

// Put stores a diff, replacing any existing entry for the pair.
func (c *DiffCache) Put(ctx context.Context, repo, from, to, diff string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO diffs (repository, from_hash, to_hash, diff, chars)
		 VALUES (?, ?, ?, ?, ?)`,
		repo, from, to, diff, len(diff),
	)
	return eris.Wrap(err, "store: put diff")
}

// Close closes the underlying database.
func (c *DiffCache) Close() error {
	return c.db.Close()
}
