package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docgen-api/pkg/memorydb"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgen_template_cache_hits_total",
		Help: "Template cache hits by tier",
	}, []string{"tier"})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docgen_template_cache_misses_total",
		Help: "Template lookups that missed every tier",
	})
)

const distKeyPrefix = "template:"

// DistributedCache is the shared tier 2 cache. Satisfied by
// memorydb.RedisClient in production; any error on Get falls through
// to the durable store, only the redis nil reply is a silent miss.
type DistributedCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Cache resolves template ids through three tiers: an in-process LRU,
// the distributed cache, and the durable store. Each tier is a strict
// superset fallback of the one before it.
type Cache struct {
	local *expirable.LRU[string, CachedTemplate]
	dist  DistributedCache
	store DurableStore
	ttl   time.Duration
}

func NewCache(size int, ttl time.Duration, dist DistributedCache, store DurableStore) *Cache {
	return &Cache{
		local: expirable.NewLRU[string, CachedTemplate](size, nil, ttl),
		dist:  dist,
		store: store,
		ttl:   ttl,
	}
}

// Get resolves a template, populating the faster tiers on the way back.
// Expiry is cooperative: checked here on every read, never swept.
func (c *Cache) Get(ctx context.Context, id string) (CachedTemplate, error) {
	// Tier 1: in-process
	if entry, ok := c.local.Get(id); ok && !entry.Expired() {
		cacheHitsTotal.WithLabelValues("local").Inc()
		return entry, nil
	}

	// Tier 2: distributed
	if c.dist != nil {
		raw, err := c.dist.Get(ctx, distKeyPrefix+id)
		switch {
		case err == nil:
			var entry CachedTemplate
			if err := json.Unmarshal([]byte(raw), &entry); err == nil && !entry.Expired() {
				cacheHitsTotal.WithLabelValues("distributed").Inc()
				c.local.Add(id, entry)
				return entry, nil
			}
		case !memorydb.IsNil(err):
			// A broken tier 2 is a degraded read, not a miss. Log it
			// and fall through to the durable store.
			fylogger.ErrorLog(ctx, fmt.Sprintf("Distributed template cache read failed for %q", id), err, nil)
		}
	}

	// Tier 3: durable store
	content, err := c.store.Load(ctx, id)
	if err != nil {
		cacheMissesTotal.Inc()
		return CachedTemplate{}, fmt.Errorf("template %q: %w", id, ErrTemplateNotFound)
	}
	cacheHitsTotal.WithLabelValues("durable").Inc()

	entry := c.entry(content, "")
	c.populate(ctx, id, entry)
	return entry, nil
}

// Set writes through all three tiers. The durable store is written
// first so a crash mid-write never leaves the caches ahead of durable
// truth; the caches then follow.
func (c *Cache) Set(ctx context.Context, id, content, version string) error {
	if err := c.store.Save(ctx, id, content); err != nil {
		return fmt.Errorf("failed to persist template %q: %w", id, err)
	}
	c.populate(ctx, id, c.entry(content, version))
	return nil
}

// Invalidate removes the entry from tiers 1 and 2 only; the durable
// store is the source of truth and is left untouched.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	c.local.Remove(id)
	if c.dist != nil {
		if err := c.dist.Del(ctx, distKeyPrefix+id); err != nil {
			return fmt.Errorf("failed to invalidate template %q: %w", id, err)
		}
	}
	return nil
}

func (c *Cache) entry(content, version string) CachedTemplate {
	if version == "" {
		version = "1.0.0"
	}
	return CachedTemplate{
		Content:    content,
		CompiledAt: time.Now().UTC(),
		TTLSeconds: int64(c.ttl / time.Second),
		Version:    version,
	}
}

func (c *Cache) populate(ctx context.Context, id string, entry CachedTemplate) {
	if c.dist != nil {
		if data, err := json.Marshal(entry); err == nil {
			// Cache write failures are non-fatal: the durable store
			// already has the content and the next read revalidates.
			_ = c.dist.Set(ctx, distKeyPrefix+id, string(data), c.ttl)
		}
	}
	c.local.Add(id, entry)
}
