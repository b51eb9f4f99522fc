package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abelbrown/talkatoo/internal/moon"
)

// Config is the persistent application configuration
type Config struct {
	// Label languages: the recognizer reads InputLanguage, the player reads
	// OutputLanguage.
	InputLanguage  moon.Language `json:"input_language"`
	OutputLanguage moon.Language `json:"output_language"`

	// Kingdoms the player cycles through, in route order
	ActiveKingdoms []moon.Kingdom `json:"active_kingdoms"`

	// UI preferences
	CompactMode  bool `json:"compact_mode"`
	ShowPostGame bool `json:"show_post_game"`

	// Inputs
	CatalogPath string `json:"catalog_path"`
	FeedPath    string `json:"feed_path"`
	FeedPollMs  int    `json:"feed_poll_ms"`

	// Optional ntfy topic URL for push notifications
	NtfyTopic string `json:"ntfy_topic,omitempty"`

	// Trace logs every UI message to the event log. Environment only.
	Trace bool `json:"-"`
}

// envOverrides are read from the environment on top of the file.
type envOverrides struct {
	DataDir        string `env:"TALKATOO_DATA_DIR"`
	Catalog        string `env:"TALKATOO_CATALOG"`
	Feed           string `env:"TALKATOO_FEED"`
	NtfyTopic      string `env:"TALKATOO_NTFY_TOPIC"`
	InputLanguage  string `env:"TALKATOO_INPUT_LANGUAGE"`
	OutputLanguage string `env:"TALKATOO_OUTPUT_LANGUAGE"`
	Trace          bool   `env:"TALKATOO_TRACE"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		InputLanguage:  moon.ChineseTraditional,
		OutputLanguage: moon.English,
		ActiveKingdoms: []moon.Kingdom{
			moon.Cascade,
			moon.Sand,
			moon.Lake,
			moon.Wooded,
			moon.Lost,
			moon.Metro,
			moon.Snow,
			moon.Seaside,
			moon.Luncheon,
			moon.Bowsers,
		},
		CompactMode:  false,
		ShowPostGame: false,
		CatalogPath:  "moon-list.json",
		FeedPath:     filepath.Join(DataDir(), "mentions.jsonl"),
		FeedPollMs:   250,
	}
}

// DataDir returns the directory holding config, database, logs and events.
// TALKATOO_DATA_DIR overrides the default of ~/.talkatoo.
func DataDir() string {
	if o, err := env.ParseAs[envOverrides](); err == nil && o.DataDir != "" {
		return o.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".talkatoo")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// Load reads the config file from the data dir and applies environment
// overrides.
func Load() (*Config, error) {
	cfg, err := LoadFrom(ConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads config from path. A missing or corrupt file yields defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), nil
	}
	return cfg, nil
}

// Save writes config to the data dir
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays TALKATOO_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.Catalog != "" {
		c.CatalogPath = o.Catalog
	}
	if o.Feed != "" {
		c.FeedPath = o.Feed
	}
	if o.NtfyTopic != "" {
		c.NtfyTopic = o.NtfyTopic
	}
	if o.InputLanguage != "" {
		c.InputLanguage = moon.Language(o.InputLanguage)
	}
	if o.OutputLanguage != "" {
		c.OutputLanguage = moon.Language(o.OutputLanguage)
	}
	c.Trace = o.Trace
	return nil
}

// Validate rejects unknown languages and kingdoms, and repeated kingdoms.
func (c *Config) Validate() error {
	var errs []error
	if !c.InputLanguage.Valid() {
		errs = append(errs, fmt.Errorf("input_language: unknown language %q", c.InputLanguage))
	}
	if !c.OutputLanguage.Valid() {
		errs = append(errs, fmt.Errorf("output_language: unknown language %q", c.OutputLanguage))
	}

	seen := make(map[moon.Kingdom]bool, len(c.ActiveKingdoms))
	for _, k := range c.ActiveKingdoms {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("active_kingdoms: %w: %d", moon.ErrUnknownKingdom, int(k)))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("active_kingdoms: %s listed twice", k))
		}
		seen[k] = true
	}

	if c.FeedPollMs < 0 {
		errs = append(errs, fmt.Errorf("feed_poll_ms: must not be negative, got %d", c.FeedPollMs))
	}
	return errors.Join(errs...)
}

// DisplayKingdoms returns the active kingdoms in configured order, without
// the post-game ones unless ShowPostGame is set. An empty list means every
// kingdom.
func (c *Config) DisplayKingdoms() []moon.Kingdom {
	src := c.ActiveKingdoms
	if len(src) == 0 {
		src = moon.Kingdoms()
	}
	out := make([]moon.Kingdom, 0, len(src))
	for _, k := range src {
		if !k.Valid() {
			continue
		}
		if k.Info().IsPostGame && !c.ShowPostGame {
			continue
		}
		out = append(out, k)
	}
	return out
}

// FeedPoll is the feed polling interval.
func (c *Config) FeedPoll() time.Duration {
	if c.FeedPollMs <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.FeedPollMs) * time.Millisecond
}

// CatalogFile resolves CatalogPath. A relative path that does not exist in
// the working directory falls back to the data dir.
func (c *Config) CatalogFile(dataDir string) string {
	path := c.CatalogPath
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	candidate := filepath.Join(dataDir, path)
	if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
		return path
	}
	return candidate
}
