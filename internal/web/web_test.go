// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studiobutter/wonderland/internal/testutil"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	RespondJSON(rec, map[string]string{"status": "ok"})

	testutil.AssertEqual(t, rec.Code, http.StatusOK)
	testutil.AssertEqual(t, rec.Header().Get("Content-Type"), "application/json")
	got := testutil.UnmarshalJSON[map[string]string](t, rec.Body.Bytes())
	testutil.AssertEqual(t, got, map[string]string{"status": "ok"})
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err      error
		wantCode int
	}{
		"bad request": {
			err:      fmt.Errorf("%w: malformed body", ErrBadRequest),
			wantCode: http.StatusBadRequest,
		},
		"unauthorized": {
			err:      fmt.Errorf("%w: invalid signature", ErrUnauthorized),
			wantCode: http.StatusUnauthorized,
		},
		"not found": {
			err:      ErrNotFound,
			wantCode: http.StatusNotFound,
		},
		"plain error maps to 500": {
			err:      fmt.Errorf("something broke"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			RespondJSONError(t.Logf, rec, tc.err)
			testutil.AssertEqual(t, rec.Code, tc.wantCode)
			got := testutil.UnmarshalJSON[map[string]string](t, rec.Body.Bytes())
			testutil.AssertEqual(t, got["status"], "error")
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	testutil.AssertEqual(t, rec.Code, http.StatusOK)
}

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", Health)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- ListenAndServe(ctx, &ListenAndServeConfig{
			Addr:  "localhost:0",
			Mux:   mux,
			Logf:  t.Logf,
			Ready: func() { close(ready) },
		})
	}()

	select {
	case <-ready:
	case err := <-errCh:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	// Canceling the context shuts the server down gracefully.
	cancel()
	select {
	case err := <-errCh:
		testutil.AssertNil(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never shut down")
	}
}

func TestListenAndServeValidatesConfig(t *testing.T) {
	t.Parallel()

	if err := ListenAndServe(context.Background(), &ListenAndServeConfig{Mux: http.NewServeMux()}); err == nil {
		t.Fatal("want error for empty Addr")
	}
	if err := ListenAndServe(context.Background(), &ListenAndServeConfig{Addr: "localhost:0"}); err == nil {
		t.Fatal("want error for nil Mux")
	}
}
