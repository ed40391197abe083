// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package scratch manages the local scratch directory that holds downloaded
// cover images while they wait to be uploaded. Files here have no lifetime
// beyond the request that created them; a periodic sweep deletes anything
// that leaked.
package scratch

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Dir is a scratch directory.
type Dir struct {
	path string

	// httpc is the HTTP client used for downloads; nil means a client with a
	// 15 second timeout.
	httpc *http.Client
	// now acts as time.Now, but can be mocked for testing.
	now func() time.Time
}

// New ensures the scratch directory exists and returns it.
func New(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	return &Dir{path: path, now: time.Now}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string { return d.path }

// Save writes content to a uniquely named file in the scratch directory and
// returns its path. The name is derived from guid and server plus a timestamp
// so concurrent requests for the same level never collide; when no
// identifiers are available a random ULID token is used instead. The file
// extension is sniffed from the content first, then taken from contentType,
// then falls back to a generic binary extension.
func (d *Dir) Save(content []byte, guid, server, contentType string) (string, error) {
	if len(content) == 0 {
		return "", errors.New("content is empty")
	}

	ext := guessExtension(content, contentType)

	var base string
	ts := d.now().Unix()
	switch {
	case guid != "" && server != "":
		base = fmt.Sprintf("%s_%s_%d", guid, server, ts)
	case guid != "":
		base = fmt.Sprintf("%s_%d", guid, ts)
	default:
		base = fmt.Sprintf("%s_%d", strings.ToLower(ulid.Make().String()), ts)
	}

	path := filepath.Join(d.path, base+"."+ext)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing scratch file: %w", err)
	}
	return path, nil
}

// Remove deletes a scratch file by path. It reports whether a file was
// removed; removing an already-absent path returns false and never fails.
func (d *Dir) Remove(path string) bool {
	return os.Remove(path) == nil
}

// Sweep deletes regular files in the scratch directory whose modification
// time is older than maxAge and returns the number deleted. The scan is
// non-recursive. The caller guarantees sweeps never run concurrently.
func (d *Dir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, err
	}

	cutoff := d.now().Add(-maxAge)
	var deleted int
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if fi.ModTime().After(cutoff) {
			continue
		}
		if os.Remove(filepath.Join(d.path, e.Name())) == nil {
			deleted++
		}
	}
	return deleted, nil
}

// guessExtension picks a file extension (without dot) for content, preferring
// the byte signature over the Content-Type header.
func guessExtension(content []byte, contentType string) string {
	if ext, ok := extensionFor(http.DetectContentType(content)); ok {
		return ext
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			if ext, ok := extensionFor(mt); ok {
				return ext
			}
		}
	}
	return "bin"
}

func extensionFor(mediaType string) (string, bool) {
	sub, ok := strings.CutPrefix(mediaType, "image/")
	if !ok {
		return "", false
	}
	if sub == "jpeg" {
		sub = "jpg"
	}
	return sub, true
}
