// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package wonderland

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studiobutter/wonderland/internal/testutil"
)

var testQuery = LevelQuery{GUID: "123456789", Server: RegionAsia}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&PayloadConfig{
		URL:     srv.URL,
		Payload: map[string]any{"biz": "ugc", "level_id": "", "region": ""},
	}, srv.Client())
}

func respondWith(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{
		"retcode": 0,
		"message": "OK",
		"data": {
			"resp_map": {
				"level_detail": {
					"retcode": 0,
					"data": {
						"level_detail_response": {
							"level_info": {
								"level_name": "Sky Maze",
								"desc": "A maze in the sky.",
								"level_id": "123456789",
								"cover_img": {"url": "https://example.com/cover.png"}
							}
						}
					}
				}
			}
		}
	}`))

	got, err := c.Fetch(context.Background(), testQuery)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, got, &LevelInfo{
		Name:          "Sky Maze",
		Description:   "A maze in the sky.",
		CoverImageURL: "https://example.com/cover.png",
		LevelID:       "123456789",
	})
}

func TestFetchNoCoverImage(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{
		"retcode": 0,
		"data": {
			"resp_map": {
				"level_detail": {
					"retcode": 0,
					"data": {
						"level_detail_response": {
							"level_info": {
								"level_name": "Sky Maze",
								"desc": "A maze in the sky.",
								"level_id": "123456789"
							}
						}
					}
				}
			}
		}
	}`))

	got, err := c.Fetch(context.Background(), testQuery)
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, got.CoverImageURL, "")
}

func TestFetchSubstitutesPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		respondWith(`{"retcode": 1, "message": "whatever"}`)(w, r)
	})

	c.Fetch(context.Background(), testQuery)

	testutil.AssertEqual(t, got, map[string]any{
		"biz":      "ugc",
		"level_id": "123456789",
		"region":   "os_asia",
	})

	// The template payload must stay pristine for the next request.
	testutil.AssertEqual(t, c.cfg.Payload["level_id"], "")
}

func TestFetchHTTPError(t *testing.T) {
	t.Parallel()

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), testQuery)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("got %T (%v), want *TransportError", err, err)
	}
	testutil.AssertEqual(t, te.StatusCode, http.StatusBadGateway)
}

func TestFetchInvalidJSON(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`<html>not json</html>`))

	_, err := c.Fetch(context.Background(), testQuery)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("got %T (%v), want *DecodeError", err, err)
	}
}

func TestFetchAPIError(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{"retcode": -502, "message": "system busy"}`))

	_, err := c.Fetch(context.Background(), testQuery)
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("got %T (%v), want *APIError", err, err)
	}
	testutil.AssertEqual(t, ae.Code, -502)
	testutil.AssertEqual(t, ae.Message, "system busy")
}

func TestFetchAPIErrorNoMessage(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{"retcode": -1}`))

	_, err := c.Fetch(context.Background(), testQuery)
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("got %T (%v), want *APIError", err, err)
	}
	testutil.AssertEqual(t, ae.Message, "Unknown error")
}

func TestFetchMissingLevelDetail(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{"retcode": 0, "data": {"resp_map": {}}}`))

	_, err := c.Fetch(context.Background(), testQuery)
	var le *LevelError
	if !errors.As(err, &le) {
		t.Fatalf("got %T (%v), want *LevelError", err, err)
	}
	testutil.AssertEqual(t, le.InvalidLevel, false)
	testutil.AssertEqual(t, le.Message, "Level not found")
}

func TestFetchInvalidLevel(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{
		"retcode": 0,
		"data": {
			"resp_map": {
				"level_detail": {"retcode": 1001, "message": "level does not exist"}
			}
		}
	}`))

	_, err := c.Fetch(context.Background(), testQuery)
	var le *LevelError
	if !errors.As(err, &le) {
		t.Fatalf("got %T (%v), want *LevelError", err, err)
	}
	testutil.AssertEqual(t, le.InvalidLevel, true)
	testutil.AssertEqual(t, le.Code, 1001)
	testutil.AssertEqual(t, le.Message, "level does not exist")
}

func TestFetchMissingLevelData(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{
		"retcode": 0,
		"data": {
			"resp_map": {
				"level_detail": {"retcode": 0}
			}
		}
	}`))

	_, err := c.Fetch(context.Background(), testQuery)
	var le *LevelError
	if !errors.As(err, &le) {
		t.Fatalf("got %T (%v), want *LevelError", err, err)
	}
	// Missing data with a zero retcode is a malformed reply, not proof the
	// level is gone. No cache eviction happens for it.
	testutil.AssertEqual(t, le.InvalidLevel, false)
}

func TestFetchMissingLevelInfo(t *testing.T) {
	t.Parallel()

	c := testClient(t, respondWith(`{
		"retcode": 0,
		"data": {
			"resp_map": {
				"level_detail": {
					"retcode": 0,
					"data": {"level_detail_response": {}}
				}
			}
		}
	}`))

	_, err := c.Fetch(context.Background(), testQuery)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("got %v, want ErrMalformedResponse", err)
	}
}

func TestLoadPayloadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadPayloadConfig([]byte(`{"url": "https://example.com/lookup", "payload": {"biz": "ugc"}}`))
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, cfg.URL, "https://example.com/lookup")

	if _, err := LoadPayloadConfig([]byte(`{"payload": {}}`)); err == nil {
		t.Fatal("want error for missing url")
	}
	if _, err := LoadPayloadConfig([]byte(`not json`)); err == nil {
		t.Fatal("want error for invalid JSON")
	}
}
