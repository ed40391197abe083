// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package imagecache

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studiobutter/wonderland/internal/testutil"
	"github.com/studiobutter/wonderland/internal/wonderland"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	testutil.AssertNil(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func testQuery(t *testing.T) wonderland.LevelQuery {
	t.Helper()
	q, err := wonderland.NewLevelQuery("123456789", "os_asia")
	testutil.AssertNil(t, err)
	return q
}

func TestOpenEnablesWAL(t *testing.T) {
	t.Parallel()

	l := testLedger(t)

	// The DSN pragmas must actually reach the database.
	var mode string
	testutil.AssertNil(t, l.db.QueryRow("PRAGMA journal_mode;").Scan(&mode))
	testutil.AssertEqual(t, strings.ToLower(mode), "wal")
}

func TestGetAbsent(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	e, err := l.Get(context.Background(), testQuery(t))
	testutil.AssertNil(t, err)
	if e != nil {
		t.Fatalf("got %+v, want nil", e)
	}
}

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	q := testQuery(t)

	now := time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	err := l.Upsert(context.Background(), q, "https://cdn.example.com/a.png", "https://example.com/a.png")
	testutil.AssertNil(t, err)

	e, err := l.Get(context.Background(), q)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, e, &Entry{
		HostedURL:   "https://cdn.example.com/a.png",
		OriginalURL: "https://example.com/a.png",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func TestUpsertReplacesExisting(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	q := testQuery(t)
	ctx := context.Background()

	created := time.Date(2025, time.June, 14, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return created }
	testutil.AssertNil(t, l.Upsert(ctx, q, "https://cdn.example.com/old.png", ""))

	updated := created.Add(48 * time.Hour)
	l.now = func() time.Time { return updated }
	testutil.AssertNil(t, l.Upsert(ctx, q, "https://cdn.example.com/new.png", "https://example.com/new.png"))

	e, err := l.Get(ctx, q)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, e, &Entry{
		HostedURL:   "https://cdn.example.com/new.png",
		OriginalURL: "https://example.com/new.png",
		CreatedAt:   created,
		UpdatedAt:   updated,
	})
}

func TestEntriesAreKeyedByGUIDAndServer(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	ctx := context.Background()

	asia, err := wonderland.NewLevelQuery("123", "os_asia")
	testutil.AssertNil(t, err)
	europe, err := wonderland.NewLevelQuery("123", "os_euro")
	testutil.AssertNil(t, err)

	testutil.AssertNil(t, l.Upsert(ctx, asia, "https://cdn.example.com/asia.png", ""))

	e, err := l.Get(ctx, europe)
	testutil.AssertNil(t, err)
	if e != nil {
		t.Fatalf("got %+v for another server, want nil", e)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	l := testLedger(t)
	q := testQuery(t)
	ctx := context.Background()

	testutil.AssertNil(t, l.Upsert(ctx, q, "https://cdn.example.com/a.png", ""))

	deleted, err := l.Delete(ctx, q)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, deleted, true)

	e, err := l.Get(ctx, q)
	testutil.AssertNil(t, err)
	if e != nil {
		t.Fatalf("got %+v after delete, want nil", e)
	}

	// Deleting again reports that nothing was there.
	deleted, err = l.Delete(ctx, q)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, deleted, false)
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	q := testQuery(t)
	ctx := context.Background()

	l, err := Open(path)
	testutil.AssertNil(t, err)
	testutil.AssertNil(t, l.Upsert(ctx, q, "https://cdn.example.com/a.png", ""))
	testutil.AssertNil(t, l.Close())

	// Reopening the same file must keep existing entries.
	l, err = Open(path)
	testutil.AssertNil(t, err)
	defer l.Close()

	e, err := l.Get(ctx, q)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, e.HostedURL, "https://cdn.example.com/a.png")
}
