// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package scratch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studiobutter/wonderland/internal/version"
)

// downloadTimeout bounds a single cover image download.
const downloadTimeout = 15 * time.Second

// maxDownloadSize caps a cover image download at 25 MB, the platform's
// attachment limit; anything larger could never be uploaded anyway.
const maxDownloadSize = 25 << 20

// Download fetches url and saves it to the scratch directory using [Dir.Save]
// naming, returning the saved file's path. The caller owns the file and must
// remove it when done.
func (d *Dir) Download(ctx context.Context, url, guid, server string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	httpc := d.httpc
	if httpc == nil {
		httpc = &http.Client{Timeout: downloadTimeout}
	}

	res, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading image: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading image: want 200, got %d", res.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(res.Body, maxDownloadSize))
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	return d.Save(content, guid, server, res.Header.Get("Content-Type"))
}
