package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the client settings.
type Config struct {
	APIURL         string        `validate:"required"`
	PageSize       int           `validate:"min=1,max=100"`
	PollInterval   time.Duration `validate:"min=0"`
	RequestTimeout time.Duration `validate:"gt=0"`
	StatePath      string        `validate:"required"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	LogFormat      string        `validate:"oneof=json console"`
	LogFile        string        `validate:"required"`
}

const (
	defaultConfigPath     = "~/.config/parkhub/config.toml"
	defaultEnvFile        = ".env"
	defaultAPIURL         = "http://127.0.0.1:8000"
	defaultPageSize       = 10
	defaultRequestTimeout = 10 * time.Second
	defaultStatePath      = "~/.config/parkhub/state.toml"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultLogFile        = "~/.local/state/parkhub/parkhub.log"
)

// Environment variables that override the file settings.
const (
	EnvAPIURL         = "PARKHUB_API_URL"
	EnvPageSize       = "PARKHUB_PAGE_SIZE"
	EnvPollSeconds    = "PARKHUB_POLL_SECONDS"
	EnvRequestTimeout = "PARKHUB_REQUEST_TIMEOUT"
	EnvStatePath      = "PARKHUB_STATE_PATH"
	EnvLogLevel       = "PARKHUB_LOG_LEVEL"
	EnvLogFormat      = "PARKHUB_LOG_FORMAT"
	EnvLogFile        = "PARKHUB_LOG_FILE"
)

var envKeys = []string{
	EnvAPIURL, EnvPageSize, EnvPollSeconds, EnvRequestTimeout,
	EnvStatePath, EnvLogLevel, EnvLogFormat, EnvLogFile,
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PageSize:       defaultPageSize,
		RequestTimeout: defaultRequestTimeout,
		StatePath:      mustExpand(defaultStatePath),
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load reads the config file at path (or the default location) and overlays
// ./.env and the process environment.
func Load(path string) (Config, error) {
	return LoadFrom(path, defaultEnvFile)
}

// LoadFrom is Load with an explicit .env file. An empty envFile skips it.
func LoadFrom(path, envFile string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}

	values, err := readEnvFile(envFile)
	if err != nil {
		return Config{}, err
	}
	for _, key := range envKeys {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}
	if err := applyEnv(&cfg, values); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL         string `toml:"api_url"`
		PageSize       int    `toml:"page_size"`
		PollSeconds    int    `toml:"poll_seconds"`
		RequestTimeout string `toml:"request_timeout"`
		StatePath      string `toml:"state_path"`
		LogLevel       string `toml:"log_level"`
		LogFormat      string `toml:"log_format"`
		LogFile        string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	if raw.PageSize != 0 {
		cfg.PageSize = raw.PageSize
	}
	if raw.PollSeconds != 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if v := strings.TrimSpace(raw.StatePath); v != "" {
		cfg.StatePath = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.LogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

func applyEnv(cfg *Config, values map[string]string) error {
	str := func(key string, dest *string) {
		if v := strings.TrimSpace(values[key]); v != "" {
			*dest = v
		}
	}
	str(EnvAPIURL, &cfg.APIURL)
	str(EnvStatePath, &cfg.StatePath)
	str(EnvLogLevel, &cfg.LogLevel)
	str(EnvLogFormat, &cfg.LogFormat)
	str(EnvLogFile, &cfg.LogFile)

	if v := strings.TrimSpace(values[EnvPageSize]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPageSize, err)
		}
		cfg.PageSize = n
	}
	if v := strings.TrimSpace(values[EnvPollSeconds]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPollSeconds, err)
		}
		cfg.PollInterval = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(values[EnvRequestTimeout]); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func (c *Config) normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.StatePath = mustExpand(c.StatePath)
	c.LogFile = mustExpand(c.LogFile)
}

// LogDir returns the directory holding the client log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
