// Package config loads titlecss runtime configuration from defaults, an
// optional YAML file and TITLECSS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kraciasty/titlecss/internal/logging"
	"github.com/kraciasty/titlecss/render"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: TITLECSS_RENDER__STRATEGY sets render.strategy.
const EnvPrefix = "TITLECSS_"

// Style application strategies. A deployment uses exactly one.
const (
	StrategyStylesheet = "stylesheet"
	StrategyInline     = "inline"
)

// Config holds the runtime configuration.
type Config struct {
	Addr       string `koanf:"addr"`        // Listen address (e.g. ":8080")
	DataDir    string `koanf:"data_dir"`    // Directory holding the database
	LogLevel   string `koanf:"log_level"`   // debug, info, warn or error
	AdminToken string `koanf:"admin_token"` // Bearer token identifying staff; empty disables writes
	Render     Render `koanf:"render"`
}

// Render configures the style applicator.
type Render struct {
	Strategy      string `koanf:"strategy"`
	MaxCacheSize  int    `koanf:"max_cache_size"`
	TitleSelector string `koanf:"title_selector"`
	StylesheetID  string `koanf:"stylesheet_id"`
	TitlePosition string `koanf:"title_position"`
}

// Defaults returns the base layer every other source overrides.
func Defaults() map[string]any {
	return map[string]any{
		"addr":                  ":8080",
		"data_dir":              defaultDataDir(),
		"log_level":             "info",
		"admin_token":           "",
		"render.strategy":       StrategyStylesheet,
		"render.max_cache_size": render.DefaultMaxEntries,
		"render.title_selector": render.DefaultTitleSelector,
		"render.stylesheet_id":  render.DefaultStylesheetID,
		"render.title_position": render.DefaultTitlePosition,
	}
}

// Load builds a Config. path names an optional YAML file; an empty path
// skips it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks the configuration values and ensures the data directory
// exists.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := c.Render.Validate(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(c.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	return nil
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() slog.Level {
	l, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// DBPath returns the path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "titlecss.db")
}

// Validate checks the applicator settings.
func (r Render) Validate() error {
	switch r.Strategy {
	case StrategyStylesheet, StrategyInline:
	default:
		return fmt.Errorf("unknown strategy %q", r.Strategy)
	}
	if r.MaxCacheSize < 1 {
		return fmt.Errorf("max_cache_size must be positive, got %d", r.MaxCacheSize)
	}
	if strings.TrimSpace(r.TitleSelector) == "" {
		return errors.New("title_selector is required")
	}
	return nil
}

// Options translates the settings into render options.
func (r Render) Options() []render.Option {
	return []render.Option{
		render.WithMaxEntries(r.MaxCacheSize),
		render.WithTitleSelector(r.TitleSelector),
		render.WithStylesheetID(r.StylesheetID),
		render.WithTitlePosition(r.TitlePosition),
	}
}

// NewApplicator creates the applicator selected by Strategy. extra options
// are applied after the configured ones.
func (r Render) NewApplicator(extra ...render.Option) render.Applicator {
	opts := append(r.Options(), extra...)
	if r.Strategy == StrategyInline {
		return render.NewInline(opts...)
	}
	return render.NewStylesheet(opts...)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "titlecss")
	}
	return filepath.Join(home, ".config", "titlecss")
}
