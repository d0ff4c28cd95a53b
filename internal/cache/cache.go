// Package cache memoizes calculator reports keyed by a hash of the request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credit-optimizer/internal/model"
)

// Cache is a byte-oriented key/value store with per-entry TTL. Backend
// failures on Get are reported as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Key returns the SHA-256 of the request's canonical JSON, salted with the
// engine's table hash so a table change invalidates earlier entries.
func Key(req model.Request, tablesHash string) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", eris.Wrap(err, "cache: marshal request")
	}
	h := sha256.New()
	h.Write([]byte(tablesHash))
	h.Write([]byte{0})
	h.Write(data)
	return "report:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Runner evaluates a calculator request. *engine.Engine satisfies it.
type Runner interface {
	Run(req model.Request) (model.Report, error)
	Hash() string
}

// Reports runs requests through a Runner, serving repeated requests from a Cache.
type Reports struct {
	runner Runner
	cache  Cache
	ttl    time.Duration
}

// NewReports wraps runner with cache. A nil cache disables caching.
func NewReports(runner Runner, c Cache, ttl time.Duration) *Reports {
	return &Reports{runner: runner, cache: c, ttl: ttl}
}

// Run returns the report for req and whether it came from the cache. Engine
// errors are returned unchanged and never cached.
func (r *Reports) Run(ctx context.Context, req model.Request) (model.Report, bool, error) {
	if r.cache == nil {
		report, err := r.runner.Run(req)
		return report, false, err
	}

	key, err := Key(req, r.runner.Hash())
	if err != nil {
		return model.Report{}, false, err
	}

	if data, ok := r.cache.Get(ctx, key); ok {
		var report model.Report
		if err := json.Unmarshal(data, &report); err == nil {
			return report, true, nil
		}
		zap.L().Warn("cache: discarding undecodable entry", zap.String("key", key))
	}

	report, err := r.runner.Run(req)
	if err != nil {
		return model.Report{}, false, err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return report, false, eris.Wrap(err, "cache: marshal report")
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		zap.L().Warn("cache: set failed", zap.String("key", key), zap.Error(err))
	}
	return report, false, nil
}
