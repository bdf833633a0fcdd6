package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/auth"
	"github.com/parkhub/parkhub-tui/internal/config"
	"github.com/parkhub/parkhub-tui/internal/kv"
	"github.com/parkhub/parkhub-tui/internal/logging"
	"github.com/parkhub/parkhub-tui/internal/parkhub"
	"github.com/parkhub/parkhub-tui/internal/ui"
)

// Options configure the ParkHub client.
type Options struct {
	ConfigPath string
	PollEvery  int    // seconds; negative keeps the configured interval
	LogLevel   string // empty keeps the configured level
}

// Env holds everything Run wires together.
type Env struct {
	Config  config.Config
	Logger  zerolog.Logger
	Session *auth.Session
	Client  *parkhub.Client
	Prefs   *kv.File
	UI      ui.Options

	closers []io.Closer
}

// Close releases the log file.
func (e *Env) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Run boots the TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := ApplyOverrides(&cfg, opts); err != nil {
		return err
	}

	env, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info().
		Str("api_url", cfg.APIURL).
		Int("page_size", cfg.PageSize).
		Dur("poll_interval", cfg.PollInterval).
		Msg("starting")
	err = ui.Run(env.UI)
	env.Logger.Info().Err(err).Msg("stopped")
	return err
}

// ApplyOverrides applies command-line flags on top of cfg and validates it.
func ApplyOverrides(cfg *config.Config, opts Options) error {
	if opts.PollEvery >= 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Build opens the log and state files and connects the session, the API
// client and the UI. When the API rejects the token the session drops it and
// the UI is notified through Options.Expired.
func Build(ctx context.Context, cfg config.Config) (*Env, error) {
	logger, closer, err := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
		Version: parkhub.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	env := &Env{Config: cfg, Logger: logger, closers: []io.Closer{closer}}

	prefs, err := kv.OpenFile(cfg.StatePath)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	env.Prefs = prefs

	expired := make(chan struct{}, 1)
	notify := func() {
		select {
		case expired <- struct{}{}:
		default:
		}
	}
	env.Session = auth.NewSession(kv.NewMemory(), prefs, notify,
		logger.With().Str("component", "auth").Logger())

	env.Client, err = parkhub.NewClient(cfg.APIURL,
		parkhub.WithTimeout(cfg.RequestTimeout),
		parkhub.WithTokenSource(env.Session),
		parkhub.WithUnauthorizedHandler(env.Session.HandleUnauthorized),
		parkhub.WithLogger(logger.With().Str("component", "api").Logger()),
	)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	env.UI = ui.Options{
		Context:      ctx,
		API:          env.Client,
		Session:      env.Session,
		Prefs:        prefs,
		PageSize:     cfg.PageSize,
		PollInterval: cfg.PollInterval,
		LogFile:      cfg.LogFile,
		Logger:       logger.With().Str("component", "ui").Logger(),
		Expired:      expired,
	}
	return env, nil
}
