// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package card renders level information into a Discord embed card.
//
// Rendering is a pure function over a declarative template: a single embed
// plus rows of link buttons whose field values and URLs contain the
// placeholder tokens "level_id" and "server_region". The renderer never
// performs I/O, so a template plus inputs always produce the same card.
package card

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/studiobutter/wonderland/internal/discord"
	"github.com/studiobutter/wonderland/internal/wonderland"
)

// Placeholder tokens substituted during rendering.
const (
	tokenLevelID = "level_id"
	tokenRegion  = "server_region"
)

// errorColor is the red used for error cards.
const errorColor = 15158332

// Template is the declarative shape of the level card.
type Template struct {
	Embeds     []discord.Embed     `json:"embeds"`
	Components []discord.Component `json:"components"`
}

// LoadTemplate parses a card template document.
func LoadTemplate(b []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parsing card template: %w", err)
	}
	if len(t.Embeds) == 0 {
		return nil, errors.New("card template has no embeds")
	}
	return &t, nil
}

// Card is a rendered level card ready for delivery.
type Card struct {
	Embed      discord.Embed
	Components []discord.Component
}

// Render merges info and q into the template. If the level has no cover
// image, the card's image slot is left empty and delivery skips the image leg
// entirely.
func (t *Template) Render(info *wonderland.LevelInfo, q wonderland.LevelQuery) Card {
	embed := t.Embeds[0]
	embed.Title = orNA(info.Name)
	embed.Description = orNA(info.Description)
	embed.Fields = slices.Clone(embed.Fields)
	for i, f := range embed.Fields {
		switch f.Value {
		case tokenLevelID:
			embed.Fields[i].Value = orNA(info.LevelID)
		case tokenRegion:
			embed.Fields[i].Value = q.Server.DisplayName()
		}
	}

	if info.CoverImageURL != "" {
		embed.Image = &discord.EmbedImage{URL: info.CoverImageURL}
	} else {
		embed.Image = nil
	}

	sub := strings.NewReplacer(tokenLevelID, q.GUID, tokenRegion, string(q.Server))
	components := make([]discord.Component, 0, len(t.Components))
	for _, row := range t.Components {
		row.Components = slices.Clone(row.Components)
		for i, c := range row.Components {
			if c.URL != "" {
				row.Components[i].URL = sub.Replace(c.URL)
			}
		}
		components = append(components, row)
	}

	return Card{Embed: embed, Components: components}
}

// Error returns the red error card shown to the user when a lookup fails.
func Error(description string) discord.Embed {
	return discord.Embed{
		Title:       "An error occurred",
		Description: description,
		Color:       errorColor,
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
