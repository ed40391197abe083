// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"

	"github.com/studiobutter/wonderland/internal/discord"
	"github.com/studiobutter/wonderland/internal/wonderland"
)

func commands() []discord.Command {
	var regions []discord.CommandChoice
	for _, r := range wonderland.Regions() {
		regions = append(regions, discord.CommandChoice{
			Name:  r.DisplayName(),
			Value: string(r),
		})
	}
	return []discord.Command{
		{
			Name:        "wonderland",
			Description: "Look up a Miliastra Wonderland level by its GUID.",
			Options: []discord.CommandOption{
				{
					Type:        discord.OptionString,
					Name:        "guid",
					Description: "The GUID of the level.",
					Required:    true,
				},
				{
					Type:        discord.OptionString,
					Name:        "server",
					Description: "The server region the level lives on.",
					Required:    true,
					Choices:     regions,
				},
			},
		},
		{
			Name:        "changelogs",
			Description: "Browse the bot's release notes.",
		},
		{
			Name:        "about",
			Description: "Show what this bot does.",
		},
	}
}

func (b *bot) registerCommands(ctx context.Context) error {
	cmds := commands()
	if err := b.discordc.BulkOverwriteCommands(ctx, cmds); err != nil {
		return err
	}
	b.logf("Registered %d application command(s).", len(cmds))
	return nil
}
