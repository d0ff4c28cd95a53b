package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Narrative NarrativeConfig `yaml:"narrative" mapstructure:"narrative"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS        float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst      int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// StoreConfig configures scenario persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// CacheConfig configures the report cache.
type CacheConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"` // memory, redis or none
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	TTLSecs       int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	MaxEntries    int    `yaml:"max_entries" mapstructure:"max_entries"`
}

// EngineConfig holds the engine's empirical constants.
type EngineConfig struct {
	TablesPath        string            `yaml:"tables_path" mapstructure:"tables_path"`
	TargetUtilization float64           `yaml:"target_utilization" mapstructure:"target_utilization"`
	Azeo              AzeoConfig        `yaml:"azeo" mapstructure:"azeo"`
	Score             ScoreConfig       `yaml:"score" mapstructure:"score"`
	Dampening         []DampeningConfig `yaml:"dampening" mapstructure:"dampening"`
}

// AzeoConfig sets the default AZEO target: min(target_cap, target_fraction * total limit).
type AzeoConfig struct {
	TargetCap      float64 `yaml:"target_cap" mapstructure:"target_cap"`
	TargetFraction float64 `yaml:"target_fraction" mapstructure:"target_fraction"`
}

// ScoreConfig bounds estimated scores.
type ScoreConfig struct {
	Min float64 `yaml:"min" mapstructure:"min"`
	Max float64 `yaml:"max" mapstructure:"max"`
}

// DampeningConfig is one diminishing-returns band.
type DampeningConfig struct {
	Above      float64 `yaml:"above" mapstructure:"above"`
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier"`
}

// NarrativeConfig configures optional LLM report summaries.
type NarrativeConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	APIKey      string `yaml:"api_key" mapstructure:"api_key"`
	Model       string `yaml:"model" mapstructure:"model"`
	MaxTokens   int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch evaluation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CREDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "credit-optimizer.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("cache.max_entries", 1000)
	v.SetDefault("engine.target_utilization", 10.0)
	v.SetDefault("engine.azeo.target_cap", 100.0)
	v.SetDefault("engine.azeo.target_fraction", 0.01)
	v.SetDefault("engine.score.min", 300.0)
	v.SetDefault("engine.score.max", 850.0)
	v.SetDefault("engine.dampening", []map[string]any{
		{"above": 700.0, "multiplier": 0.7},
		{"above": 650.0, "multiplier": 0.85},
	})
	v.SetDefault("narrative.enabled", false)
	v.SetDefault("narrative.model", "claude-haiku-4-5-20251001")
	v.SetDefault("narrative.max_tokens", 512)
	v.SetDefault("narrative.timeout_secs", 20)
	v.SetDefault("batch.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given command mode:
// "cli", "serve" or "store".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		errs = append(errs, "batch.concurrency must be between 1 and 64")
	}
	if c.Engine.Score.Min >= c.Engine.Score.Max {
		errs = append(errs, "engine.score.min must be < engine.score.max")
	}
	if c.Engine.Azeo.TargetCap < 0 || c.Engine.Azeo.TargetFraction < 0 {
		errs = append(errs, "engine.azeo values must be >= 0")
	}
	if c.Engine.TargetUtilization < 0 {
		errs = append(errs, "engine.target_utilization must be >= 0")
	}
	for _, d := range c.Engine.Dampening {
		if d.Multiplier < 0 || d.Multiplier > 1 {
			errs = append(errs, fmt.Sprintf("engine.dampening multiplier above %.0f must be between 0 and 1", d.Above))
		}
	}
	switch c.Cache.Driver {
	case "memory", "none", "":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "cache.redis_addr is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown cache.driver %q", c.Cache.Driver))
	}
	if c.Narrative.Enabled && c.Narrative.APIKey == "" {
		errs = append(errs, "narrative.api_key is required when narrative is enabled")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimitRPS <= 0 {
			errs = append(errs, "server.rate_limit_rps must be > 0")
		}
		errs = append(errs, c.validateStore()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
