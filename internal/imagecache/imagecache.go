// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package imagecache persists the mapping from a level query to a previously
// hosted cover image URL, so repeated lookups for the same level skip the
// download and upload round trips.
package imagecache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/studiobutter/wonderland/internal/wonderland"
)

// Entry is a single ledger record. At most one entry exists per
// (GUID, server) pair.
type Entry struct {
	// HostedURL is the CDN URL of the previously uploaded cover image.
	HostedURL string
	// OriginalURL is the upstream URL the image was downloaded from. May be
	// empty.
	OriginalURL string
	// CreatedAt is when the entry was first written.
	CreatedAt time.Time
	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time
}

// Ledger is a SQLite-backed image cache ledger.
type Ledger struct {
	db *sql.DB

	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
}

// Open opens (creating it if needed) the ledger database at path.
func Open(path string) (*Ledger, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cached_images (
			guid TEXT NOT NULL,
			server TEXT NOT NULL,
			image_url TEXT NOT NULL,
			original_url TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (guid, server)
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &Ledger{db: db, now: time.Now}, nil
}

// Get retrieves the entry for q. It returns (nil, nil) when no entry exists.
func (l *Ledger) Get(ctx context.Context, q wonderland.LevelQuery) (*Entry, error) {
	var (
		e           Entry
		originalURL sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT image_url, original_url, created_at, updated_at
		FROM cached_images WHERE guid = ? AND server = ?;
	`, q.GUID, string(q.Server)).Scan(&e.HostedURL, &originalURL, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.OriginalURL = originalURL.String
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return &e, nil
}

// Upsert writes the entry for q, replacing the hosted and original URLs and
// bumping updated_at if one already exists. Two concurrent upserts for the
// same key are last-writer-wins; both describe an equivalent hosted copy.
func (l *Ledger) Upsert(ctx context.Context, q wonderland.LevelQuery, hostedURL, originalURL string) error {
	now := toMillis(l.now())
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO cached_images (guid, server, image_url, original_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (guid, server) DO UPDATE
		SET image_url = excluded.image_url,
		    original_url = excluded.original_url,
		    updated_at = excluded.updated_at;
	`, q.GUID, string(q.Server), hostedURL, nullable(originalURL), now, now)
	return err
}

// Delete removes the entry for q and reports whether one existed.
func (l *Ledger) Delete(ctx context.Context, q wonderland.LevelQuery) (bool, error) {
	res, err := l.db.ExecContext(ctx, `
		DELETE FROM cached_images WHERE guid = ? AND server = ?;
	`, q.GUID, string(q.Server))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
