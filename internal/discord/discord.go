// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package discord provides a client for the parts of the Discord REST API the
// bot needs: interaction callbacks, followup and channel sends with optional
// file attachments, message fetches and command registration.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/studiobutter/wonderland/internal/request"
)

const defaultAPI = "https://discord.com/api/v10"

// Client is a Discord REST API client.
type Client struct {
	// Token is the bot token used for authentication.
	Token string
	// ApplicationID is the application the bot belongs to.
	ApplicationID string
	// APIURL overrides the API base URL. Used in tests.
	APIURL string
	// HTTPClient is an optional custom HTTP client object to use for requests.
	// If not provided, request.DefaultClient will be used.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs the bot token from
	// error messages.
	Scrubber *strings.Replacer
}

func (c *Client) api() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return defaultAPI
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bot " + c.Token}
}

// CreateInteractionResponse responds to an interaction through the callback
// endpoint. It is used both for deferring ("thinking") and for immediate
// replies; it fails when the interaction token has expired.
func (c *Client) CreateInteractionResponse(ctx context.Context, id, token string, resp *InteractionResponse) error {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method:     http.MethodPost,
		URL:        c.api() + "/interactions/" + id + "/" + token + "/callback",
		Body:       resp,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	return err
}

// CreateFollowupMessage sends a followup message for a deferred interaction
// and returns the created message.
func (c *Client) CreateFollowupMessage(ctx context.Context, token string, msg *MessageSend, files ...File) (*Message, error) {
	return c.sendMessage(ctx, c.api()+"/webhooks/"+c.ApplicationID+"/"+token+"?wait=true", msg, files)
}

// CreateMessage sends a message directly to a channel and returns the created
// message. This is the fallback delivery path used when the interaction token
// is no longer valid.
func (c *Client) CreateMessage(ctx context.Context, channelID string, msg *MessageSend, files ...File) (*Message, error) {
	return c.sendMessage(ctx, c.api()+"/channels/"+channelID+"/messages", msg, files)
}

// Message fetches a single message by channel and message id.
func (c *Client) Message(ctx context.Context, channelID, messageID string) (*Message, error) {
	return request.Make[*Message](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        c.api() + "/channels/" + channelID + "/messages/" + messageID,
		Headers:    c.headers(),
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
}

// BulkOverwriteCommands replaces all global application commands with cmds.
func (c *Client) BulkOverwriteCommands(ctx context.Context, cmds []Command) error {
	_, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method:     http.MethodPut,
		URL:        c.api() + "/applications/" + c.ApplicationID + "/commands",
		Headers:    c.headers(),
		Body:       cmds,
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	return err
}

func (c *Client) sendMessage(ctx context.Context, url string, msg *MessageSend, files []File) (*Message, error) {
	if len(files) == 0 {
		return request.Make[*Message](ctx, request.Params{
			Method:     http.MethodPost,
			URL:        url,
			Headers:    c.headers(),
			Body:       msg,
			HTTPClient: c.HTTPClient,
			Scrubber:   c.Scrubber,
		})
	}

	// Attachment uploads use a multipart body: a payload_json field carrying
	// the message, then one files[N] part per attachment.
	// https://discord.com/developers/docs/reference#uploading-files
	withAttachments := *msg
	withAttachments.Attachments = make([]AttachmentSend, 0, len(files))
	for i, f := range files {
		withAttachments.Attachments = append(withAttachments.Attachments, AttachmentSend{
			ID:       i,
			Filename: f.Name,
		})
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	payload, err := json.Marshal(&withAttachments)
	if err != nil {
		return nil, fmt.Errorf("encoding payload_json: %w", err)
	}
	fw, err := mw.CreateFormField("payload_json")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(payload); err != nil {
		return nil, err
	}

	for i, f := range files {
		part, err := mw.CreateFormFile(fmt.Sprintf("files[%d]", i), f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, fmt.Errorf("writing attachment %q: %w", f.Name, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	return request.Make[*Message](ctx, request.Params{
		Method:      http.MethodPost,
		URL:         url,
		Headers:     c.headers(),
		RawBody:     &buf,
		ContentType: mw.FormDataContentType(),
		HTTPClient:  c.HTTPClient,
		Scrubber:    c.Scrubber,
	})
}
