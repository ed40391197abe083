// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package wonderland

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/studiobutter/wonderland/internal/version"
)

// lookupTimeout bounds the level lookup call.
const lookupTimeout = 30 * time.Second

// TransportError reports that the lookup request itself failed: either the
// server answered with a non-200 status, or the request never completed.
type TransportError struct {
	// StatusCode is the HTTP status code, or 0 when the request failed before
	// a response was received.
	StatusCode int
	// Err is the underlying network error, if any.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lookup request failed: %v", e.Err)
	}
	return fmt.Sprintf("lookup request failed: want 200, got %d", e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports that the response body could not be decoded as the
// expected JSON envelope.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string { return fmt.Sprintf("decoding lookup response: %v", e.Err) }

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// APIError reports a non-zero top-level retcode in the response envelope.
type APIError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string { return fmt.Sprintf("api error %d: %s", e.Code, e.Message) }

// LevelError reports that the nested level_detail response is missing,
// carries a non-zero retcode, or lacks its data payload.
type LevelError struct {
	Code    int
	Message string
	// InvalidLevel is true when the nested retcode is non-zero, which means
	// the level itself does not exist (anymore). Callers should evict any
	// cache entries they hold for it.
	InvalidLevel bool
}

// Error implements the error interface.
func (e *LevelError) Error() string { return fmt.Sprintf("level error %d: %s", e.Code, e.Message) }

// ErrMalformedResponse is returned when the envelope is well-formed but the
// level_info object is missing from its expected place.
var ErrMalformedResponse = errors.New("level information missing from response")

// PayloadConfig is the request template for the lookup endpoint: the endpoint
// URL plus the fixed payload fields the endpoint expects, into which the
// level id and region are substituted per request.
type PayloadConfig struct {
	URL     string         `json:"url"`
	Payload map[string]any `json:"payload"`
}

// LoadPayloadConfig parses a payload template document.
func LoadPayloadConfig(b []byte) (*PayloadConfig, error) {
	var cfg PayloadConfig
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing payload template: %w", err)
	}
	if cfg.URL == "" {
		return nil, errors.New("payload template has no url")
	}
	if cfg.Payload == nil {
		cfg.Payload = make(map[string]any)
	}
	return &cfg, nil
}

// Client fetches level metadata from the Wonderland API.
type Client struct {
	cfg   *PayloadConfig
	httpc *http.Client
}

// NewClient returns a Client using the given payload template. If httpc is
// nil, a client with a 30 second timeout is used.
func NewClient(cfg *PayloadConfig, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: lookupTimeout}
	}
	return &Client{cfg: cfg, httpc: httpc}
}

// Response envelope. Pointers distinguish "absent" from "zero" at each layer.
type envelope struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    struct {
		RespMap struct {
			LevelDetail *levelDetail `json:"level_detail"`
		} `json:"resp_map"`
	} `json:"data"`
}

type levelDetail struct {
	Retcode int    `json:"retcode"`
	Message string `json:"message"`
	Data    *struct {
		LevelDetailResponse struct {
			LevelInfo *levelInfo `json:"level_info"`
		} `json:"level_detail_response"`
	} `json:"data"`
}

type levelInfo struct {
	LevelName string `json:"level_name"`
	Desc      string `json:"desc"`
	LevelID   string `json:"level_id"`
	CoverImg  struct {
		URL string `json:"url"`
	} `json:"cover_img"`
}

// Fetch performs a single lookup round trip for q and normalizes the response
// envelope. Validation is layered; the first failing layer short-circuits
// with its own error type. Fetch never retries.
func (c *Client) Fetch(ctx context.Context, q LevelQuery) (*LevelInfo, error) {
	payload := maps.Clone(c.cfg.Payload)
	payload["level_id"] = q.GUID
	payload["region"] = string(q.Server)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding lookup payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &TransportError{StatusCode: res.StatusCode}
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if env.Retcode != 0 {
		return nil, &APIError{Code: env.Retcode, Message: orUnknown(env.Message)}
	}

	detail := env.Data.RespMap.LevelDetail
	switch {
	case detail == nil:
		return nil, &LevelError{Message: orNotFound(env.Message)}
	case detail.Retcode != 0:
		return nil, &LevelError{
			Code:         detail.Retcode,
			Message:      orNotFound(firstNonEmpty(detail.Message, env.Message)),
			InvalidLevel: true,
		}
	case detail.Data == nil:
		return nil, &LevelError{Message: orNotFound(firstNonEmpty(detail.Message, env.Message))}
	}

	info := detail.Data.LevelDetailResponse.LevelInfo
	if info == nil {
		return nil, ErrMalformedResponse
	}

	return &LevelInfo{
		Name:          info.LevelName,
		Description:   info.Desc,
		CoverImageURL: info.CoverImg.URL,
		LevelID:       info.LevelID,
	}, nil
}

func firstNonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func orUnknown(s string) string { return firstNonEmpty(s, "Unknown error") }

func orNotFound(s string) string { return firstNonEmpty(s, "Level not found") }
