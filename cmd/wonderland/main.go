// © 2025 Studio Butter. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"crypto/ed25519"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/studiobutter/wonderland/internal/card"
	"github.com/studiobutter/wonderland/internal/cli"
	"github.com/studiobutter/wonderland/internal/discord"
	"github.com/studiobutter/wonderland/internal/imagecache"
	"github.com/studiobutter/wonderland/internal/logger"
	"github.com/studiobutter/wonderland/internal/scratch"
	"github.com/studiobutter/wonderland/internal/web"
	"github.com/studiobutter/wonderland/internal/wonderland"
)

func main() { cli.Main(new(bot)) }

// Scratch files are swept hourly; anything older than an hour has leaked from
// a request that failed to clean up after itself.
const (
	sweepInterval = time.Hour
	sweepMaxAge   = time.Hour
)

// drainTimeout bounds how long shutdown waits for in-flight interaction
// handlers to finish their replies.
const drainTimeout = 10 * time.Second

var (
	//go:embed ref/payload.json
	payloadJSON []byte
	//go:embed ref/embed.json
	embedJSON []byte
)

type config struct {
	Addr           string `env:"ADDR" envDefault:"localhost:3000"`
	Token          string `env:"DISCORD_TOKEN,required,notEmpty"`
	ApplicationID  string `env:"DISCORD_APP_ID,required,notEmpty"`
	PublicKey      string `env:"DISCORD_PUBLIC_KEY,required,notEmpty"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"wonderland_cache.db"`
	CacheDir       string `env:"CACHE_DIR" envDefault:".cache"`
	ChangelogsPath string `env:"CHANGELOGS_PATH" envDefault:"changelogs.json"`
}

var configKeys = []string{
	"ADDR",
	"DISCORD_TOKEN",
	"DISCORD_APP_ID",
	"DISCORD_PUBLIC_KEY",
	"DATABASE_PATH",
	"CACHE_DIR",
	"CHANGELOGS_PATH",
}

func loadConfig(getenv func(string) string) (*config, error) {
	environ := make(map[string]string)
	for _, k := range configKeys {
		if v := getenv(k); v != "" {
			environ[k] = v
		}
	}
	cfg := new(config)
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, err
	}
	return cfg, nil
}

type bot struct {
	register bool

	cfg      *config
	discordc *discord.Client
	lookupc  *wonderland.Client
	tmpl     *card.Template
	ledger   *imagecache.Ledger
	cache    *scratch.Dir
	pubKey   ed25519.PublicKey
	mux      *http.ServeMux
	logf     logger.Logf
	slog     *slog.Logger
	scrubber *strings.Replacer

	baseCtx  context.Context
	handlers sync.WaitGroup

	// for tests
	httpc         *http.Client
	sleep         func(context.Context, time.Duration) bool
	discordAPI    string
	lookupURL     string
	noServerStart bool
	ready         func()
}

func (b *bot) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&b.register, "register", false, "Register application commands and exit.")
}

func (b *bot) Run(ctx context.Context, env *cli.Env) error {
	cfg, err := loadConfig(env.Getenv)
	if err != nil {
		return err
	}
	b.cfg = cfg

	if err := b.doInit(env); err != nil {
		return err
	}

	if b.register {
		defer b.ledger.Close()
		return b.registerCommands(ctx)
	}

	b.baseCtx = ctx

	if v := b.latestVersion(); v != "" {
		b.logf("Running %s.", v)
	}

	// Used in tests.
	if b.noServerStart {
		return nil
	}
	defer b.ledger.Close()

	go b.sweepLoop(ctx)

	err = web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Addr:  cfg.Addr,
		Mux:   b.mux,
		Logf:  b.logf,
		Ready: b.ready,
	})
	if !b.drainHandlers(drainTimeout) {
		b.slog.Warn("shutting down with interaction handlers still running")
	}
	return err
}

// drainHandlers waits for in-flight interaction handlers to finish, giving up
// after timeout. It reports whether everything finished.
func (b *bot) drainHandlers(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (b *bot) doInit(env *cli.Env) error {
	b.logf = env.Logf
	b.slog = slog.New(slog.NewTextHandler(env.Stderr, nil))
	if b.sleep == nil {
		b.sleep = sleep
	}

	pub, err := hex.DecodeString(b.cfg.PublicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.New("DISCORD_PUBLIC_KEY is not a valid ed25519 public key")
	}
	b.pubKey = ed25519.PublicKey(pub)

	b.scrubber = strings.NewReplacer(b.cfg.Token, "[EXPUNGED]")

	b.discordc = &discord.Client{
		Token:         b.cfg.Token,
		ApplicationID: b.cfg.ApplicationID,
		APIURL:        b.discordAPI,
		HTTPClient:    b.httpc,
		Scrubber:      b.scrubber,
	}

	pcfg, err := wonderland.LoadPayloadConfig(payloadJSON)
	if err != nil {
		return err
	}
	if b.lookupURL != "" {
		pcfg.URL = b.lookupURL
	}
	b.lookupc = wonderland.NewClient(pcfg, b.httpc)

	b.tmpl, err = card.LoadTemplate(embedJSON)
	if err != nil {
		return err
	}

	b.ledger, err = imagecache.Open(b.cfg.DatabasePath)
	if err != nil {
		return err
	}

	b.cache, err = scratch.New(b.cfg.CacheDir)
	if err != nil {
		return err
	}

	b.mux = http.NewServeMux()
	b.mux.HandleFunc("POST /webhook", b.handleWebhook)
	b.mux.HandleFunc("GET /health", web.Health)

	return nil
}

func (b *bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		web.RespondJSONError(b.logf, w, fmt.Errorf("%w: reading body", web.ErrBadRequest))
		return
	}

	if !discord.VerifySignature(b.pubKey, r, body) {
		web.RespondJSONError(b.logf, w, fmt.Errorf("%w: invalid request signature", web.ErrUnauthorized))
		return
	}

	var in discord.Interaction
	if err := json.Unmarshal(body, &in); err != nil {
		web.RespondJSONError(b.logf, w, fmt.Errorf("%w: %v", web.ErrBadRequest, err))
		return
	}

	switch in.Type {
	case discord.InteractionPing:
		web.RespondJSON(w, &discord.InteractionResponse{Type: discord.CallbackPong})
	case discord.InteractionApplicationCommand, discord.InteractionMessageComponent:
		// Interactions are acknowledged right away and processed in the
		// background; every response goes out through the REST API.
		b.handlers.Add(1)
		go func() {
			defer b.handlers.Done()
			b.dispatch(b.baseCtx, &in)
		}()
		w.WriteHeader(http.StatusAccepted)
	default:
		web.RespondJSONError(b.logf, w, fmt.Errorf("%w: unsupported interaction type %d", web.ErrBadRequest, in.Type))
	}
}

func (b *bot) dispatch(ctx context.Context, in *discord.Interaction) {
	if in.Data == nil {
		b.slog.Warn("interaction without data", "id", in.ID, "type", in.Type)
		return
	}
	switch {
	case in.Type == discord.InteractionApplicationCommand && in.Data.Name == "wonderland":
		b.handleWonderland(ctx, in)
	case in.Type == discord.InteractionApplicationCommand && in.Data.Name == "changelogs":
		b.handleChangelogs(ctx, in)
	case in.Type == discord.InteractionApplicationCommand && in.Data.Name == "about":
		b.handleAbout(ctx, in)
	case in.Type == discord.InteractionMessageComponent && strings.HasPrefix(in.Data.CustomID, "changelogs:"):
		b.handleChangelogsPage(ctx, in)
	default:
		b.slog.Warn("unknown interaction", "name", in.Data.Name, "custom_id", in.Data.CustomID)
	}
}

func (b *bot) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := b.cache.Sweep(sweepMaxAge)
			if err != nil {
				b.slog.Warn("cache sweep failed", "error", err)
				continue
			}
			if n > 0 {
				b.logf("Cache sweep removed %d old file(s).", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
