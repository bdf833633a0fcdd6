// Package logging builds the zerolog logger shared by the client. The terminal
// belongs to the UI, so records go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination.
type Config struct {
	Level   string `validate:"oneof=debug info warn error"`
	Format  string `validate:"oneof=json console"`
	File    string
	Service string
	Version string
}

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Service == "" {
		c.Service = "parkhub-tui"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}

// New opens cfg.File for appending and returns a logger writing to it. The
// returned closer releases the file. An empty File yields a disabled logger.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("logger config validation error: %w", err)
	}
	if cfg.File == "" {
		return zerolog.Nop(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
	}

	logger, err := NewWithWriter(cfg, file)
	if err != nil {
		_ = file.Close()
		return zerolog.Nop(), nopCloser{}, err
	}
	return logger, file, nil
}

// NewWithWriter builds a logger writing to w.
func NewWithWriter(cfg Config, w io.Writer) (zerolog.Logger, error) {
	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return zerolog.Nop(), fmt.Errorf("logger config validation error: %w", err)
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.Service).
		Str("version", cfg.Version).
		Logger(), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
