// # internal/config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

type Config struct {
	DB            Database      `toml:"db"`
	Recommend     Recommend     `toml:"recommend"`
	Observability Observability `toml:"observability"`
}

type Database struct {
	Path        string `toml:"path"`
	BusyTimeout int    `toml:"busy_timeout_ms"`
}

type Recommend struct {
	Cap              int      `toml:"cap"`
	LikedWindow      int      `toml:"liked_window"`
	ExcludeUsernames []string `toml:"exclude_usernames"`
	RatePerMinute    float64  `toml:"rate_per_minute"`
	RateBurst        int      `toml:"rate_burst"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func DefaultConfig() *Config {
	return &Config{
		DB: Database{
			Path:        "reelgraph.db",
			BusyTimeout: 2000,
		},
		Recommend: Recommend{
			Cap:           5,
			LikedWindow:   5,
			RatePerMinute: 60,
			RateBurst:     10,
		},
		Observability: Observability{
			MetricsAddr: ":9091",
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the tunables a reload could break at runtime.
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.Recommend.Cap <= 0 {
		return fmt.Errorf("recommend.cap must be positive, got %d", c.Recommend.Cap)
	}
	if c.Recommend.LikedWindow <= 0 {
		return fmt.Errorf("recommend.liked_window must be positive, got %d", c.Recommend.LikedWindow)
	}
	for _, pattern := range c.Recommend.ExcludeUsernames {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("recommend.exclude_usernames pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// ExcludeGlobs compiles the username exclusion patterns. Validate has already
// checked them, so compile errors here only occur for configs that skipped it;
// those patterns are dropped.
func (c *Config) ExcludeGlobs() []glob.Glob {
	globs := make([]glob.Glob, 0, len(c.Recommend.ExcludeUsernames))
	for _, pattern := range c.Recommend.ExcludeUsernames {
		g, err := glob.Compile(pattern)
		if err != nil {
			continue
		}
		globs = append(globs, g)
	}
	return globs
}
