// Package catalog serves player and enemy stat blocks, caching them in
// front of the static game configuration.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/LemmyAI/arenasync/internal/game"
)

// ErrMiss is returned by a Cache that has no value for a key.
var ErrMiss = errors.New("cache miss")

// ErrUnknownEnemy is returned for an enemy type the configuration lacks.
var ErrUnknownEnemy = errors.New("unknown enemy type")

// Cache is a byte-value cache with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   clock.Clock
}

// NewMemoryCache creates an empty cache. A nil clk uses the wall clock.
func NewMemoryCache(clk clock.Clock) *MemoryCache {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), clock: clk}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && c.clock.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, ErrMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.clock.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Provider resolves stat blocks, reading through the cache. A cache
// failure falls back to the configuration and is only logged.
type Provider struct {
	config game.Config
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewProvider(config game.Config, cache Cache, ttl time.Duration, logger *zap.Logger) *Provider {
	if cache == nil {
		cache = NewMemoryCache(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{config: config, cache: cache, ttl: ttl, logger: logger}
}

// PlayerBase returns the base stats new players start with.
func (p *Provider) PlayerBase(ctx context.Context) game.PlayerStats {
	var stats game.PlayerStats
	if p.load(ctx, "player:base", &stats) {
		return stats
	}
	stats = p.config.PlayerBase
	p.store(ctx, "player:base", stats)
	return stats
}

// EnemyType returns the stat block for an enemy type. It matches
// game.EnemyStatsFunc so the engine can populate sessions through it.
func (p *Provider) EnemyType(ctx context.Context, name string) (game.EnemyStats, error) {
	key := "enemy:" + name
	var stats game.EnemyStats
	if p.load(ctx, key, &stats) {
		return stats, nil
	}
	stats, ok := p.config.EnemyTypes[name]
	if !ok {
		return game.EnemyStats{}, fmt.Errorf("%w: %s", ErrUnknownEnemy, name)
	}
	if stats.Type == "" {
		stats.Type = name
	}
	p.store(ctx, key, stats)
	return stats, nil
}

func (p *Provider) load(ctx context.Context, key string, dst any) bool {
	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			p.logger.Warn("⚠️ catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		p.logger.Warn("⚠️ catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *Provider) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
		p.logger.Warn("⚠️ catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
