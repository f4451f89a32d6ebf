package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/filmlink/filmlink/internal/config"
	"github.com/filmlink/filmlink/internal/database"
	"github.com/filmlink/filmlink/internal/logger"
	"github.com/filmlink/filmlink/internal/metadata"
	"github.com/filmlink/filmlink/internal/metadata/mock"
	"github.com/filmlink/filmlink/internal/settings"
	"github.com/filmlink/filmlink/internal/suggest"
)

// app holds the services shared by all commands.
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB
	store *settings.Service
	meta  *metadata.Service
}

type appOptions struct {
	// quietConsole keeps log output off the terminal, e.g. while the
	// picker owns the screen.
	quietConsole bool
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	useMock, _ := cmd.Flags().GetBool("mock")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}
	if opts.quietConsole {
		logCfg.Output = io.Discard
	}
	log := logger.New(logCfg)

	a := &app{cfg: cfg, log: log}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Database.Path).Msg("Settings database unavailable, stored token will not be used")
	} else {
		a.db = db
		a.store = settings.NewService(db.Conn(), cfg.Settings.Passphrase, log.Logger)
	}

	cacheCfg := metadata.CacheConfig{
		TTL:      cfg.Suggest.ExternalIDCacheTTL(),
		MaxItems: cfg.Suggest.ExternalIDCacheSize,
	}

	if useMock {
		log.Info().Msg("Using mock metadata")
		a.meta = metadata.NewServiceWithClient(mock.NewTMDBClient(), cacheCfg, log.Logger)
		return a, nil
	}

	tmdbCfg := cfg.TMDB
	if a.store != nil {
		tmdbCfg.Token = a.store.EffectiveToken(cmd.Context(), cfg.TMDB.Token)
	}
	a.meta = metadata.NewService(tmdbCfg, cacheCfg, log.Logger)

	return a, nil
}

// session starts a suggestion session reporting notices to notifier.
func (a *app) session(ctx context.Context, kind metadata.MediaKind, notifier suggest.Notifier) *suggest.Session {
	opts := suggest.OptionsFromConfig(a.cfg.Suggest, a.log.Logger)
	opts.Notifier = notifier
	return suggest.NewSession(ctx, a.meta, kind, opts)
}

// requireProvider fails early with a helpful message when no token is set.
func (a *app) requireProvider() error {
	if !a.meta.IsConfigured() {
		return fmt.Errorf("no TMDB token configured: run \"filmlink config set-token <token>\", set FILMLINK_TMDB_TOKEN, or use --mock")
	}
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	a.log.Close()
}
