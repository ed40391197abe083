// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package discord

import "context"

// Delivery abstracts where outbound messages for one interaction go. It is
// selected once, right after the acknowledgment attempt: followup delivery
// when the interaction token is still valid, channel delivery otherwise. All
// later sends for that interaction go through the same Delivery.
type Delivery interface {
	// Send delivers a message, optionally with file attachments, and returns
	// the created message.
	Send(ctx context.Context, msg *MessageSend, files ...File) (*Message, error)
}

// FollowupDelivery returns a Delivery replying through the interaction's
// followup webhook.
func (c *Client) FollowupDelivery(token string) Delivery {
	return &followupDelivery{c: c, token: token}
}

// ChannelDelivery returns a Delivery sending directly to the originating
// channel. It is the degraded path used when the interaction token expired
// before it could be acknowledged.
func (c *Client) ChannelDelivery(channelID string) Delivery {
	return &channelDelivery{c: c, channelID: channelID}
}

type followupDelivery struct {
	c     *Client
	token string
}

func (d *followupDelivery) Send(ctx context.Context, msg *MessageSend, files ...File) (*Message, error) {
	return d.c.CreateFollowupMessage(ctx, d.token, msg, files...)
}

type channelDelivery struct {
	c         *Client
	channelID string
}

func (d *channelDelivery) Send(ctx context.Context, msg *MessageSend, files ...File) (*Message, error) {
	if msg.Flags&FlagEphemeral != 0 {
		// Plain channel messages cannot be ephemeral.
		clone := *msg
		clone.Flags &^= FlagEphemeral
		msg = &clone
	}
	return d.c.CreateMessage(ctx, d.channelID, msg, files...)
}
