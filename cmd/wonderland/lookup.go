// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/studiobutter/wonderland/internal/card"
	"github.com/studiobutter/wonderland/internal/discord"
	"github.com/studiobutter/wonderland/internal/wonderland"
)

// Discord attaches CDN URLs to uploads asynchronously, so the message is
// re-fetched a few times before giving up on caching the hosted copy.
var pollSchedule = []time.Duration{
	1500 * time.Millisecond,
	3 * time.Second,
	4500 * time.Millisecond,
}

func (b *bot) handleWonderland(ctx context.Context, in *discord.Interaction) {
	q, err := wonderland.NewLevelQuery(in.Data.StringOption("guid"), in.Data.StringOption("server"))
	if err != nil {
		// Bad input is rejected before any network round trip.
		desc := "Invalid GUID. A GUID consists of digits only."
		if errors.Is(err, wonderland.ErrUnknownRegion) {
			desc = "Unknown server region."
		}
		b.respond(ctx, in, &discord.InteractionResponse{
			Type: discord.CallbackChannelMessage,
			Data: &discord.MessageSend{
				Embeds: []discord.Embed{card.Error(desc)},
				Flags:  discord.FlagEphemeral,
			},
		})
		return
	}

	// Defer the reply to buy time for the lookup. If even that fails, the
	// interaction token is unusable and replies go to the channel instead.
	var delivery discord.Delivery
	ack := &discord.InteractionResponse{Type: discord.CallbackDeferredChannelMessage}
	if err := b.discordc.CreateInteractionResponse(ctx, in.ID, in.Token, ack); err != nil {
		b.slog.Warn("deferring interaction failed, falling back to channel delivery", "error", err)
		delivery = b.discordc.ChannelDelivery(in.ChannelID)
	} else {
		delivery = b.discordc.FollowupDelivery(in.Token)
	}

	info, err := b.lookupc.Fetch(ctx, q)
	if err != nil {
		b.deliverLookupError(ctx, delivery, q, err)
		return
	}

	c := b.tmpl.Render(info, q)

	if info.CoverImageURL == "" {
		b.deliver(ctx, delivery, &discord.MessageSend{Embeds: []discord.Embed{c.Embed}, Components: c.Components})
		return
	}

	entry, err := b.ledger.Get(ctx, q)
	if err != nil {
		b.slog.Warn("image cache lookup failed, treating as a miss", "guid", q.GUID, "server", q.Server, "error", err)
	}
	if entry != nil {
		c.Embed.Image = &discord.EmbedImage{URL: entry.HostedURL}
		b.deliver(ctx, delivery, &discord.MessageSend{Embeds: []discord.Embed{c.Embed}, Components: c.Components})
		return
	}

	path, err := b.cache.Download(ctx, info.CoverImageURL, q.GUID, string(q.Server))
	if err != nil {
		b.slog.Warn("cover image download failed, sending card without image", "url", info.CoverImageURL, "error", err)
		b.deliverWithoutImage(ctx, delivery, c)
		return
	}
	defer b.cache.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		b.slog.Warn("opening downloaded image failed", "path", path, "error", err)
		b.deliverWithoutImage(ctx, delivery, c)
		return
	}
	defer f.Close()

	name := filepath.Base(path)
	c.Embed.Image = &discord.EmbedImage{URL: "attachment://" + name}
	sent, err := delivery.Send(ctx, &discord.MessageSend{
		Embeds:     []discord.Embed{c.Embed},
		Components: c.Components,
	}, discord.File{Name: name, Reader: f})
	if err != nil {
		b.slog.Warn("attachment upload failed, sending card without image", "error", err)
		b.deliverWithoutImage(ctx, delivery, c)
		return
	}

	hosted := b.hostedAttachmentURL(ctx, sent)
	if hosted == "" {
		b.slog.Warn("hosted attachment URL unavailable, skipping cache write", "guid", q.GUID, "server", q.Server)
		return
	}
	if err := b.ledger.Upsert(ctx, q, hosted, info.CoverImageURL); err != nil {
		b.slog.Warn("image cache write failed", "guid", q.GUID, "server", q.Server, "error", err)
	}
}

func (b *bot) deliverLookupError(ctx context.Context, delivery discord.Delivery, q wonderland.LevelQuery, err error) {
	var (
		transportErr *wonderland.TransportError
		decodeErr    *wonderland.DecodeError
		apiErr       *wonderland.APIError
		levelErr     *wonderland.LevelError
	)

	desc := "Unknown error"
	switch {
	case errors.As(err, &transportErr):
		desc = "The level server could not be reached."
	case errors.As(err, &decodeErr):
		desc = "The level server returned an unreadable response."
	case errors.As(err, &apiErr):
		desc = apiErr.Message
	case errors.As(err, &levelErr):
		desc = levelErr.Message
		if levelErr.InvalidLevel {
			// The level is gone, so a hosted copy of its cover must not
			// outlive it.
			if _, derr := b.ledger.Delete(ctx, q); derr != nil {
				b.slog.Warn("evicting stale cache entry failed", "guid", q.GUID, "server", q.Server, "error", derr)
			}
		}
	case errors.Is(err, wonderland.ErrMalformedResponse):
		desc = "No level information was found in the response."
	}

	b.slog.Warn("level lookup failed", "guid", q.GUID, "server", q.Server, "error", err)
	b.deliver(ctx, delivery, &discord.MessageSend{
		Embeds: []discord.Embed{card.Error(desc)},
		Flags:  discord.FlagEphemeral,
	})
}

func (b *bot) deliverWithoutImage(ctx context.Context, delivery discord.Delivery, c card.Card) {
	c.Embed.Image = nil
	b.deliver(ctx, delivery, &discord.MessageSend{Embeds: []discord.Embed{c.Embed}, Components: c.Components})
}

func (b *bot) deliver(ctx context.Context, delivery discord.Delivery, msg *discord.MessageSend) {
	if _, err := delivery.Send(ctx, msg); err != nil {
		b.slog.Warn("message delivery failed", "error", err)
	}
}

func (b *bot) hostedAttachmentURL(ctx context.Context, sent *discord.Message) string {
	if url := attachmentURL(sent); url != "" {
		return url
	}
	if sent == nil || sent.ID == "" || sent.ChannelID == "" {
		return ""
	}
	for _, wait := range pollSchedule {
		if !b.sleep(ctx, wait) {
			return ""
		}
		m, err := b.discordc.Message(ctx, sent.ChannelID, sent.ID)
		if err != nil {
			b.slog.Warn("fetching uploaded message failed", "id", sent.ID, "error", err)
			continue
		}
		if url := attachmentURL(m); url != "" {
			return url
		}
	}
	return ""
}

func attachmentURL(m *discord.Message) string {
	if m == nil || len(m.Attachments) == 0 {
		return ""
	}
	return m.Attachments[0].URL
}
