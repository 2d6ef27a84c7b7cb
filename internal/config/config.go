package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the prempred configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Odds     OddsConfig     `mapstructure:"odds"`
	Game     GameConfig     `mapstructure:"game"`
	Scoring  ScoringConfig  `mapstructure:"scoring"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects Postgres when URL is set, otherwise the in-memory store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig selects the Redis odds cache when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Odds sources.
const (
	OddsSnapshot  = "snapshot"
	OddsSimulated = "simulated"
)

type OddsConfig struct {
	Source         string        `mapstructure:"source"`
	SnapshotFile   string        `mapstructure:"snapshot_file"`
	TeamsFile      string        `mapstructure:"teams_file"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	SimulationRuns int           `mapstructure:"simulation_runs"`
	Seed           int64         `mapstructure:"seed"`
}

type GameConfig struct {
	Season   string `mapstructure:"season"`
	Deadline string `mapstructure:"deadline"`
	Workers  int    `mapstructure:"workers"`
}

// DeadlineTime parses Deadline. An empty deadline never locks.
func (g GameConfig) DeadlineTime() (time.Time, error) {
	if g.Deadline == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, g.Deadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing deadline %q: %w", g.Deadline, err)
	}
	return t, nil
}

type ScoringConfig struct {
	ExpectationsFile string `mapstructure:"expectations_file"`
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("odds.source", OddsSnapshot)
	v.SetDefault("odds.snapshot_file", "configs/odds-2024-25.yaml")
	v.SetDefault("odds.teams_file", "configs/teams-2024-25.yaml")
	v.SetDefault("odds.cache_ttl", 5*time.Minute)
	v.SetDefault("odds.fetch_timeout", 2*time.Second)
	v.SetDefault("odds.simulation_runs", 2000)
	v.SetDefault("odds.seed", 1)
	v.SetDefault("game.season", "2024-25")
	v.SetDefault("game.deadline", "2025-12-31T23:00:00Z")
	v.SetDefault("game.workers", 4)
	v.SetDefault("scoring.expectations_file", "")
}

// Load reads defaults, an optional config file and PREMPRED_* environment
// variables into a Config. With an empty path it looks for prempred.{yaml,yml,json}
// in the working directory and tolerates its absence.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("prempred")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables
	v.SetEnvPrefix("PREMPRED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 || cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if cfg.Odds.Source != OddsSnapshot && cfg.Odds.Source != OddsSimulated {
		return fmt.Errorf("invalid odds source: %s. Must be '%s' or '%s'", cfg.Odds.Source, OddsSnapshot, OddsSimulated)
	}
	if cfg.Odds.CacheTTL <= 0 || cfg.Odds.FetchTimeout <= 0 {
		return fmt.Errorf("odds cache_ttl and fetch_timeout must be positive")
	}
	if cfg.Odds.Source == OddsSimulated && cfg.Odds.SimulationRuns < 1 {
		return fmt.Errorf("simulation_runs must be at least 1")
	}
	if cfg.Game.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if cfg.Game.Season == "" {
		return fmt.Errorf("season is required")
	}
	if _, err := cfg.Game.DeadlineTime(); err != nil {
		return err
	}
	return nil
}
