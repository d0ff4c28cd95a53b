package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-optimizer/internal/azeo"
	"github.com/sells-group/credit-optimizer/internal/cache"
	"github.com/sells-group/credit-optimizer/internal/config"
	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/narrative"
	"github.com/sells-group/credit-optimizer/internal/resilience"
	"github.com/sells-group/credit-optimizer/internal/scorer"
	"github.com/sells-group/credit-optimizer/internal/store"
	"github.com/sells-group/credit-optimizer/pkg/anthropic"
)

// engineOptions maps engine config onto engine options.
func engineOptions(c config.EngineConfig) engine.Options {
	opts := engine.Options{
		Azeo: azeo.Defaults{
			TargetCap:      c.Azeo.TargetCap,
			TargetFraction: c.Azeo.TargetFraction,
		},
		TargetUtilization: c.TargetUtilization,
	}
	if c.Score.Max > c.Score.Min {
		opts.Scale = &scorer.Scale{Min: c.Score.Min, Max: c.Score.Max}
	}
	if len(c.Dampening) > 0 {
		opts.Dampening = make([]scorer.DampeningBand, len(c.Dampening))
		for i, d := range c.Dampening {
			opts.Dampening[i] = scorer.DampeningBand{Above: d.Above, Multiplier: d.Multiplier}
		}
	}
	return opts
}

// buildEngine loads the tables file, if any, and builds an Engine.
func buildEngine(c config.EngineConfig) (*engine.Engine, error) {
	tables := engine.DefaultTables()
	if c.TablesPath != "" {
		t, err := engine.LoadTables(c.TablesPath)
		if err != nil {
			return nil, err
		}
		tables = t
	}
	e, err := engine.New(tables, engineOptions(c))
	if err != nil {
		return nil, eris.Wrap(err, "build engine")
	}
	zap.L().Debug("engine ready",
		zap.String("tables", e.Hash()),
		zap.Strings("calculators", e.Calculators()),
	)
	return e, nil
}

// initStore opens the configured scenario store and applies migrations.
// store.database_url is required for both drivers; see Config.Validate.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		var lite *store.SQLiteStore
		if lite, err = store.NewSQLite(cfg.Store.DatabaseURL); err == nil {
			st = lite
		}
	case "postgres":
		st, err = resilience.DoVal(ctx, resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			OnRetry:        resilience.RetryLogger("postgres", "connect"),
		}, func(ctx context.Context) (store.Store, error) {
			pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
			if err != nil {
				return nil, err
			}
			return pg, nil
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initCache builds the configured report cache. A nil Cache disables caching.
func initCache(ctx context.Context, c config.CacheConfig) (cache.Cache, error) {
	switch c.Driver {
	case "none":
		return nil, nil
	case "redis":
		rc, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "memory", "":
		return cache.NewMemory(c.MaxEntries), nil
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", c.Driver)
	}
}

// initSummarizer returns a Summarizer backed by the Anthropic API when
// narrative summaries are enabled, or the template-only Summarizer otherwise.
func initSummarizer(c config.NarrativeConfig) *narrative.Summarizer {
	var client anthropic.Client
	if c.Enabled && c.APIKey != "" {
		client = anthropic.NewClient(c.APIKey)
	}
	return narrative.New(client, narrative.Options{
		Model:     c.Model,
		MaxTokens: int64(c.MaxTokens),
		Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
	})
}
