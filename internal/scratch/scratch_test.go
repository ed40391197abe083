// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package scratch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studiobutter/wonderland/internal/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000000000")

func testDir(t *testing.T) *Dir {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "cache"))
	testutil.AssertNil(t, err)
	return d
}

func TestSave(t *testing.T) {
	t.Parallel()

	d := testDir(t)
	d.now = func() time.Time { return time.Unix(1750000000, 0) }

	path, err := d.Save(pngBytes, "123456789", "os_asia", "")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Base(path), "123456789_os_asia_1750000000.png")

	content, err := os.ReadFile(path)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, content, pngBytes)
}

func TestSaveSniffsContentOverHeader(t *testing.T) {
	t.Parallel()

	d := testDir(t)

	// The byte signature wins over a lying Content-Type header.
	path, err := d.Save(pngBytes, "1", "os_asia", "image/jpeg")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Ext(path), ".png")
}

func TestSaveFallsBackToHeader(t *testing.T) {
	t.Parallel()

	d := testDir(t)

	// Unsniffable content defers to the header.
	path, err := d.Save([]byte("\x00\x01\x02\x03"), "1", "os_asia", "image/webp; charset=binary")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Ext(path), ".webp")

	// No usable header either: generic binary extension.
	path, err = d.Save([]byte("\x00\x01\x02\x03"), "1", "os_asia", "")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Ext(path), ".bin")
}

func TestSaveJPEGExtension(t *testing.T) {
	t.Parallel()

	d := testDir(t)

	path, err := d.Save([]byte("\xff\xd8\xff\xe000000"), "1", "os_asia", "")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Ext(path), ".jpg")
}

func TestSaveWithoutIdentifiers(t *testing.T) {
	t.Parallel()

	d := testDir(t)
	d.now = func() time.Time { return time.Unix(1750000000, 0) }

	path, err := d.Save(pngBytes, "", "", "")
	testutil.AssertNil(t, err)

	name := filepath.Base(path)
	if !strings.HasSuffix(name, "_1750000000.png") {
		t.Fatalf("got %q, want a random token plus timestamp", name)
	}
	// The random token must not be empty.
	if strings.HasPrefix(name, "_") {
		t.Fatalf("got %q, want a non-empty name token", name)
	}
}

func TestSaveEmptyContent(t *testing.T) {
	t.Parallel()

	d := testDir(t)
	if _, err := d.Save(nil, "1", "os_asia", ""); err == nil {
		t.Fatal("want error for empty content")
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	d := testDir(t)
	path, err := d.Save(pngBytes, "1", "os_asia", "")
	testutil.AssertNil(t, err)

	testutil.AssertEqual(t, d.Remove(path), true)
	// Removing an already-removed file is not an error.
	testutil.AssertEqual(t, d.Remove(path), false)
}

func TestSweep(t *testing.T) {
	t.Parallel()

	d := testDir(t)

	oldPath, err := d.Save(pngBytes, "111", "os_asia", "")
	testutil.AssertNil(t, err)
	freshPath, err := d.Save(pngBytes, "222", "os_asia", "")
	testutil.AssertNil(t, err)

	stale := time.Now().Add(-2 * time.Hour)
	testutil.AssertNil(t, os.Chtimes(oldPath, stale, stale))

	n, err := d.Sweep(time.Hour)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, n, 1)

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("stale file still exists: %v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("fresh file was swept: %v", err)
	}
}

func TestSweepSkipsDirectories(t *testing.T) {
	t.Parallel()

	d := testDir(t)
	sub := filepath.Join(d.Path(), "sub")
	testutil.AssertNil(t, os.Mkdir(sub, 0o755))
	stale := time.Now().Add(-2 * time.Hour)
	testutil.AssertNil(t, os.Chtimes(sub, stale, stale))

	n, err := d.Sweep(time.Hour)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, n, 0)
	if _, err := os.Stat(sub); err != nil {
		t.Fatalf("directory was swept: %v", err)
	}
}

func TestDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	d := testDir(t)
	d.httpc = srv.Client()

	path, err := d.Download(context.Background(), srv.URL, "123456789", "os_asia")
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, filepath.Ext(path), ".png")

	content, err := os.ReadFile(path)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, content, pngBytes)
}

func TestDownloadHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	d := testDir(t)
	d.httpc = srv.Client()

	if _, err := d.Download(context.Background(), srv.URL, "1", "os_asia"); err == nil {
		t.Fatal("want error for 404 response")
	}
}
