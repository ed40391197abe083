// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Wonderland is a Discord bot that looks up Miliastra Wonderland levels.

It receives Discord interactions over an HTTP webhook, fetches level
details from the game's level API and replies with a card showing the
level's name, description and cover image. Cover images are re-uploaded
to Discord and the hosted URLs are cached in a SQLite database so a
level's image is uploaded at most once per server region.

# Usage

	$ wonderland [flags...]

Run with the -register flag to overwrite the bot's application commands
on Discord and exit:

	$ wonderland -register

# Environment Variables

The wonderland program relies on the following environment variables:

  - DISCORD_TOKEN: Discord bot token for accessing the Discord API.
  - DISCORD_APP_ID: Discord application ID of the bot.
  - DISCORD_PUBLIC_KEY: hex-encoded ed25519 public key used to verify
    webhook request signatures.
  - ADDR: network address to listen on. Defaults to "localhost:3000".
  - DATABASE_PATH: path to the SQLite database holding cached image
    URLs. Defaults to "wonderland_cache.db".
  - CACHE_DIR: directory for temporarily downloaded images. Defaults to
    ".cache".
  - CHANGELOGS_PATH: path to the changelog file served by the
    /changelogs command. Defaults to "changelogs.json".

# Endpoints

  - POST /webhook: receives interactions from Discord.
  - GET /health: returns 200 OK when the bot is running.
*/
package main

import (
	_ "embed"

	"github.com/studiobutter/wonderland/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
