// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/studiobutter/wonderland/internal/card"
	"github.com/studiobutter/wonderland/internal/discord"
)

type changelogEntry struct {
	Version string   `json:"version"`
	Date    string   `json:"date"`
	Changes []string `json:"changes"`
}

// loadChangelogs reads the changelog file and returns its entries newest
// first. The file stores them oldest first so new releases append at the end.
func (b *bot) loadChangelogs() ([]changelogEntry, error) {
	data, err := os.ReadFile(b.cfg.ChangelogsPath)
	if err != nil {
		return nil, err
	}
	var file struct {
		Changelogs []changelogEntry `json:"changelogs"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", b.cfg.ChangelogsPath, err)
	}
	entries := file.Changelogs
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// latestVersion returns the most recent release version, like "v1.2.0", or ""
// if the changelog file is missing or empty.
func (b *bot) latestVersion() string {
	entries, err := b.loadChangelogs()
	if err != nil || len(entries) == 0 {
		return ""
	}
	return "v" + strings.TrimPrefix(entries[0].Version, "v")
}

func changelogPage(entries []changelogEntry, page int) *discord.MessageSend {
	if page < 0 {
		page = 0
	}
	if page > len(entries)-1 {
		page = len(entries) - 1
	}
	e := entries[page]

	var sb strings.Builder
	for _, change := range e.Changes {
		sb.WriteString("- ")
		sb.WriteString(change)
		sb.WriteString("\n")
	}

	embed := discord.Embed{
		Title:       "v" + strings.TrimPrefix(e.Version, "v") + " — " + e.Date,
		Description: sb.String(),
		Color:       5814783,
		Footer:      &discord.EmbedFooter{Text: fmt.Sprintf("Version %d of %d", page+1, len(entries))},
	}

	row := discord.Component{
		Type: discord.ComponentActionRow,
		Components: []discord.Component{
			{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonStyleSecondary,
				Label:    "Previous",
				CustomID: fmt.Sprintf("changelogs:%d", page-1),
				Disabled: page == 0,
			},
			{
				Type:     discord.ComponentButton,
				Style:    discord.ButtonStyleSecondary,
				Label:    "Next",
				CustomID: fmt.Sprintf("changelogs:%d", page+1),
				Disabled: page == len(entries)-1,
			},
		},
	}

	return &discord.MessageSend{
		Embeds:     []discord.Embed{embed},
		Components: []discord.Component{row},
		Flags:      discord.FlagEphemeral,
	}
}

func (b *bot) handleChangelogs(ctx context.Context, in *discord.Interaction) {
	entries, err := b.loadChangelogs()
	if err != nil || len(entries) == 0 {
		b.slog.Warn("loading changelogs failed", "error", err)
		b.respond(ctx, in, &discord.InteractionResponse{
			Type: discord.CallbackChannelMessage,
			Data: &discord.MessageSend{
				Embeds: []discord.Embed{card.Error("No changelogs are available.")},
				Flags:  discord.FlagEphemeral,
			},
		})
		return
	}
	b.respond(ctx, in, &discord.InteractionResponse{
		Type: discord.CallbackChannelMessage,
		Data: changelogPage(entries, 0),
	})
}

func (b *bot) handleChangelogsPage(ctx context.Context, in *discord.Interaction) {
	pageStr := strings.TrimPrefix(in.Data.CustomID, "changelogs:")
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		b.slog.Warn("bad changelog page", "custom_id", in.Data.CustomID)
		return
	}
	entries, err := b.loadChangelogs()
	if err != nil || len(entries) == 0 {
		b.slog.Warn("loading changelogs failed", "error", err)
		return
	}
	b.respond(ctx, in, &discord.InteractionResponse{
		Type: discord.CallbackUpdateMessage,
		Data: changelogPage(entries, page),
	})
}

func (b *bot) respond(ctx context.Context, in *discord.Interaction, resp *discord.InteractionResponse) {
	if err := b.discordc.CreateInteractionResponse(ctx, in.ID, in.Token, resp); err != nil {
		b.slog.Warn("responding to interaction failed", "error", err)
	}
}
