package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"supply-rounds/internal/model"
	"supply-rounds/internal/strategy"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Arbiter  ArbiterConfig  `yaml:"arbiter"`
	Topology TopologyConfig `yaml:"topology"`
	Game     GameConfig     `yaml:"game"`
	Server   ServerConfig   `yaml:"server"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
	Output   OutputConfig   `yaml:"output"`
}

type ArbiterConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RateRPS   float64       `yaml:"rate_rps"` // 0 disables pacing
	RateBurst int           `yaml:"rate_burst"`
}

type TopologyConfig struct {
	// DataDir holds the CSV tables. Ignored when DSN is set.
	DataDir   string `yaml:"data_dir"`
	Separator string `yaml:"separator"`
	// DSN points at an already provisioned PostgreSQL topology database.
	DSN string `yaml:"dsn"`
}

type GameConfig struct {
	Rounds            int     `yaml:"rounds"`
	GraceDays         int     `yaml:"grace_days"`
	PipelineType      string  `yaml:"pipeline_type"`
	NonPipelineFactor float64 `yaml:"non_pipeline_factor"`
}

type ServerConfig struct {
	Port         string   `yaml:"port"`
	Env          string   `yaml:"env"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type EventsConfig struct {
	RedisURL      string `yaml:"redis_url"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type OutputConfig struct {
	LedgerCSV string `yaml:"ledger_csv"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Arbiter: ArbiterConfig{
			BaseURL:   "localhost:8080",
			Timeout:   10 * time.Second,
			RateBurst: 1,
		},
		Topology: TopologyConfig{DataDir: "data", Separator: ";"},
		Game: GameConfig{
			Rounds:            42,
			GraceDays:         2,
			PipelineType:      string(model.ConnectionPipeline),
			NonPipelineFactor: 0.5,
		},
		Server: ServerConfig{Port: "8090", Env: "development"},
		Events: EventsConfig{ChannelPrefix: "rounds"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads config over the defaults, but does not validate it or
// apply environment overrides. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	// Relative data dirs are resolved against the config file when that
	// location exists, otherwise left relative to cwd.
	if c.Topology.DataDir != "" && !filepath.IsAbs(c.Topology.DataDir) {
		cand := filepath.Join(filepath.Dir(path), c.Topology.DataDir)
		if _, err := os.Stat(cand); err == nil {
			c.Topology.DataDir = cand
		}
	}
	return c, nil
}

// ApplyEnv overlays non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Arbiter.BaseURL, "BASE_URL")
	set(&c.Arbiter.APIKey, "API_KEY")
	set(&c.Server.Port, "API_PORT")
	set(&c.Server.Env, "API_ENV")
	set(&c.Events.RedisURL, "REDIS_URL")
	set(&c.Topology.DSN, "TOPOLOGY_DSN")
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Log.Format, "LOG_FORMAT")
	if v := getenv("ARBITER_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Arbiter.RateRPS = f
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Arbiter.BaseURL == "" {
		return errors.New("arbiter.base_url is required")
	}
	if c.Arbiter.RateRPS < 0 {
		return errors.New("arbiter.rate_rps must be >= 0")
	}
	if c.Game.Rounds <= 0 {
		return errors.New("game.rounds must be > 0")
	}
	if c.Game.GraceDays < 0 {
		return errors.New("game.grace_days must be >= 0")
	}
	if c.Game.NonPipelineFactor <= 0 || c.Game.NonPipelineFactor > 1 {
		return fmt.Errorf("game.non_pipeline_factor must be in (0,1], got %v", c.Game.NonPipelineFactor)
	}
	if c.Game.PipelineType == "" {
		return errors.New("game.pipeline_type is required")
	}
	if c.Topology.DSN == "" && c.Topology.DataDir == "" {
		return errors.New("topology.data_dir or topology.dsn is required")
	}
	if len([]rune(c.Topology.Separator)) > 1 {
		return fmt.Errorf("topology.separator must be a single character, got %q", c.Topology.Separator)
	}
	return nil
}

// StrategyParams converts the game section to planner parameters.
func (g GameConfig) StrategyParams() strategy.Params {
	return strategy.Params{
		PipelineType:      model.ConnectionType(g.PipelineType),
		NonPipelineFactor: g.NonPipelineFactor,
		GraceDays:         g.GraceDays,
	}
}

// SeparatorRune returns the CSV separator, defaulting to ';'.
func (t TopologyConfig) SeparatorRune() rune {
	for _, r := range t.Separator {
		return r
	}
	return ';'
}
