// Package config loads and validates the plank.yml configuration file.
// Credentials never live in the file: the access token comes from the
// PLANK_TOKEN environment variable, optionally populated from a .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultCacheTTL = 15 * time.Minute

// Config represents the top-level plank.yml configuration.
type Config struct {
	Version  string       `yaml:"version"`
	Service  Service      `yaml:"service"`
	Project  string       `yaml:"project"`
	Team     string       `yaml:"team,omitempty"`     // default team for board commands, empty = estimate from area path
	Location string       `yaml:"location,omitempty"` // UI-context label for telemetry, defaults to "cli"
	Redis    *RedisConfig `yaml:"redis,omitempty"`
}

// Service points at the work-tracking service.
type Service struct {
	URL string `yaml:"url"`
}

// RedisConfig enables the board cache. When the whole section is absent the
// CLI talks to the service directly.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db,omitempty"`
	CacheTTL string `yaml:"cache_ttl,omitempty"` // Go duration, default 15m

	ttl time.Duration
}

// TTL returns the parsed cache TTL. Valid only after Validate has run.
func (r *RedisConfig) TTL() time.Duration {
	if r.ttl == 0 {
		return defaultCacheTTL
	}
	return r.ttl
}

// Validate performs strict validation on the configuration.
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Service.URL == "" {
		return fmt.Errorf("service.url is required")
	}
	u, err := url.Parse(c.Service.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service.url must be an http(s) URL, got %q", c.Service.URL)
	}

	if c.Project == "" {
		return fmt.Errorf("project is required")
	}

	if c.Location == "" {
		c.Location = "cli"
	}

	if c.Redis != nil {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when the redis section is present")
		}
		if c.Redis.CacheTTL != "" {
			ttl, err := time.ParseDuration(c.Redis.CacheTTL)
			if err != nil {
				return fmt.Errorf("redis.cache_ttl is not a valid duration: %q", c.Redis.CacheTTL)
			}
			if ttl <= 0 {
				return fmt.Errorf("redis.cache_ttl must be positive, got %q", c.Redis.CacheTTL)
			}
			c.Redis.ttl = ttl
		}
	}

	return nil
}

// Load reads and validates plank.yml from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Token returns the service access token from the PLANK_TOKEN environment
// variable, loading a .env file first when one exists in the working
// directory.
func Token() (string, error) {
	// A missing .env is fine; the variable may be set in the environment.
	_ = godotenv.Load()

	token := os.Getenv("PLANK_TOKEN")
	if token == "" {
		return "", fmt.Errorf("PLANK_TOKEN is not set (export it or add it to .env)")
	}
	return token, nil
}
