package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jasonDeichert/path-of-claude/internal/pob"
)

const (
	DefaultBaseURL   = "https://poe.ninja"
	DefaultUserAgent = "path-of-claude/0.1 (+ladder research)"
	DefaultDelayMS   = 1000
	DefaultFileName  = "ladder.toml"
)

type ScrapeConfig struct {
	BaseURL   string `toml:"base_url"`
	League    string `toml:"league"`
	DelayMS   int    `toml:"delay_ms"`
	Limit     int    `toml:"limit"`
	UserAgent string `toml:"user_agent"`
	CodesDir  string `toml:"codes_dir"`
}

type POBConfig struct {
	SupportKeywords []string `toml:"support_keywords"`
	NodeTable       string   `toml:"node_table"`
	FirstSpec       bool     `toml:"first_spec"` // ignore Tree@activeSpec
}

type StorageConfig struct {
	DB string `toml:"db"`
}

type Config struct {
	Scrape  ScrapeConfig  `toml:"scrape"`
	POB     POBConfig     `toml:"pob"`
	Storage StorageConfig `toml:"storage"`

	// Environment is not read from the file; LADDER_ENV only.
	Environment string `toml:"-"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			BaseURL:   DefaultBaseURL,
			DelayMS:   DefaultDelayMS,
			UserAgent: DefaultUserAgent,
		},
		POB: POBConfig{
			SupportKeywords: append([]string(nil), pob.DefaultSupportKeywords...),
		},
		Environment: "development",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error when path is the default name.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse TOML '%s': %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && path == DefaultFileName:
		default:
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Storage.DB = getEnv("LADDER_DB", c.Storage.DB)
	c.Scrape.BaseURL = getEnv("LADDER_BASE_URL", c.Scrape.BaseURL)
	c.Scrape.League = getEnv("LADDER_LEAGUE", c.Scrape.League)
	c.Scrape.DelayMS = getEnvInt("LADDER_DELAY_MS", c.Scrape.DelayMS)
	c.POB.NodeTable = getEnv("LADDER_NODE_TABLE", c.POB.NodeTable)
	c.Environment = getEnv("LADDER_ENV", c.Environment)
}

// Validate rejects values no command can run with.
func (c *Config) Validate() error {
	if c.Scrape.DelayMS < DefaultDelayMS {
		return fmt.Errorf("scrape.delay_ms must be at least %d, got %d", DefaultDelayMS, c.Scrape.DelayMS)
	}
	if c.Scrape.Limit < 0 {
		return fmt.Errorf("scrape.limit must not be negative, got %d", c.Scrape.Limit)
	}
	if !strings.HasPrefix(c.Scrape.BaseURL, "http://") && !strings.HasPrefix(c.Scrape.BaseURL, "https://") {
		return fmt.Errorf("scrape.base_url must be an http(s) URL, got %q", c.Scrape.BaseURL)
	}
	return nil
}

// Delay is the pause between successive export-code fetches. Validate keeps
// it at or above DefaultDelayMS.
func (c *Config) Delay() time.Duration {
	return time.Duration(c.Scrape.DelayMS) * time.Millisecond
}

// SupportPredicate builds the gem classifier from the configured keywords.
func (c *Config) SupportPredicate() pob.SupportPredicate {
	if len(c.POB.SupportKeywords) == 0 {
		return pob.KeywordPredicate(pob.DefaultSupportKeywords)
	}
	return pob.KeywordPredicate(c.POB.SupportKeywords)
}

// Analyzer returns a POB analyzer configured with the support keywords and,
// when configured, the passive node table.
func (c *Config) Analyzer() (*pob.Analyzer, error) {
	opts := []pob.Option{pob.WithSupportPredicate(c.SupportPredicate())}
	if c.POB.FirstSpec {
		opts = append(opts, pob.WithFirstSpec())
	}
	if c.POB.NodeTable != "" {
		table, err := pob.LoadNodeTable(c.POB.NodeTable)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pob.WithNodeTable(table))
	}
	return pob.NewAnalyzer(opts...), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
