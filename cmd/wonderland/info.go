// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"

	"github.com/studiobutter/wonderland/internal/discord"
)

func (b *bot) handleAbout(ctx context.Context, in *discord.Interaction) {
	embed := discord.Embed{
		Title: "About this bot",
		Description: "Looks up Miliastra Wonderland levels by their GUID and " +
			"shows their name, description and cover image.\n\n" +
			"Use `/wonderland` with a level GUID and a server region to get started.",
		Color: 15844367,
		Fields: []discord.EmbedField{
			{Name: "Source", Value: "https://github.com/studiobutter/wonderland"},
		},
	}
	if v := b.latestVersion(); v != "" {
		embed.Footer = &discord.EmbedFooter{Text: v}
	}
	b.respond(ctx, in, &discord.InteractionResponse{
		Type: discord.CallbackChannelMessage,
		Data: &discord.MessageSend{
			Embeds: []discord.Embed{embed},
			Flags:  discord.FlagEphemeral,
		},
	})
}
