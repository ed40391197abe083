// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package discord

import "io"

// Interaction types.
// https://discord.com/developers/docs/interactions/receiving-and-responding
const (
	InteractionPing               = 1
	InteractionApplicationCommand = 2
	InteractionMessageComponent   = 3
)

// Interaction callback types.
const (
	CallbackPong                   = 1
	CallbackChannelMessage         = 4
	CallbackDeferredChannelMessage = 5
	CallbackUpdateMessage          = 7
)

// FlagEphemeral marks a message as visible only to the invoking user.
const FlagEphemeral = 1 << 6

// Component types and button styles.
const (
	ComponentActionRow = 1
	ComponentButton    = 2

	ButtonStyleSecondary = 2
	ButtonStyleLink      = 5
)

// Option types for application command options.
const OptionString = 3

// Interaction is an inbound interaction delivered to the webhook endpoint.
type Interaction struct {
	ID        string           `json:"id"`
	Type      int              `json:"type"`
	Token     string           `json:"token"`
	ChannelID string           `json:"channel_id"`
	Data      *InteractionData `json:"data"`
}

// InteractionData carries the command name and options, or the custom id of a
// pressed component.
type InteractionData struct {
	Name     string   `json:"name"`
	CustomID string   `json:"custom_id"`
	Options  []Option `json:"options"`
}

// Option is a single command option value.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StringOption returns the value of the named string option, or "".
func (d *InteractionData) StringOption(name string) string {
	for _, o := range d.Options {
		if o.Name == name {
			return o.Value
		}
	}
	return ""
}

// Embed is a rich message card.
// https://discord.com/developers/docs/resources/message#embed-object
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

// EmbedImage is the image slot of an embed.
type EmbedImage struct {
	URL string `json:"url"`
}

// EmbedField is a titled value inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// Component is a message component: an action row, a link button or a custom
// id button. Rows nest their children in Components.
type Component struct {
	Type       int         `json:"type"`
	Style      int         `json:"style,omitempty"`
	Label      string      `json:"label,omitempty"`
	URL        string      `json:"url,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Disabled   bool        `json:"disabled,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// MessageSend is an outbound message payload.
type MessageSend struct {
	Content     string           `json:"content,omitempty"`
	Embeds      []Embed          `json:"embeds,omitempty"`
	Components  []Component      `json:"components,omitempty"`
	Flags       int              `json:"flags,omitempty"`
	Attachments []AttachmentSend `json:"attachments,omitempty"`
}

// AttachmentSend describes an uploaded file in a multipart message payload.
type AttachmentSend struct {
	ID       int    `json:"id"`
	Filename string `json:"filename"`
}

// File is a file to upload alongside a message.
type File struct {
	Name   string
	Reader io.Reader
}

// Message is a message returned by the API.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channel_id"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is a file hosted by the platform's CDN.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// InteractionResponse is the payload for the interaction callback endpoint.
type InteractionResponse struct {
	Type int          `json:"type"`
	Data *MessageSend `json:"data,omitempty"`
}

// Command describes an application command for registration.
type Command struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// CommandOption is a single option of an application command.
type CommandOption struct {
	Type        int             `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Required    bool            `json:"required,omitempty"`
	Choices     []CommandChoice `json:"choices,omitempty"`
}

// CommandChoice is a fixed choice for a command option.
type CommandChoice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
