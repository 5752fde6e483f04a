package services

import (
	"context"
	"fmt"
	"time"

	"xiaofei/internal/api"
	"xiaofei/internal/cache"
	"xiaofei/internal/core"
	"xiaofei/internal/ui"
)

const (
	keyChannels  = "channels"
	keyMainTypes = "main-types"
	keySubTypes  = "sub-types"
)

// CatalogSource is what the catalog reads through to.
type CatalogSource interface {
	api.LookupReader
	api.StatisticsReader
}

// Catalog caches the select options and the statistics summary. Lookups live
// for the TTL; statistics are also dropped on every consumption change.
type Catalog struct {
	source  CatalogSource
	lookups *cache.LRUCache[[]core.Lookup]
	stats   *cache.LRUCache[core.Statistics]
	soon    func(struct{})
}

// NewCatalog builds a catalog over source. Remote change bursts are coalesced
// into one invalidation per quiet period.
func NewCatalog(source CatalogSource, ttl, quiet time.Duration) *Catalog {
	c := &Catalog{
		source:  source,
		lookups: cache.NewLRUCache[[]core.Lookup](8, ttl),
		stats:   cache.NewLRUCache[core.Statistics](64, ttl),
	}
	c.soon = ui.Debounce(func(struct{}) { c.InvalidateAll() }, quiet)
	return c
}

// Caches exposes the underlying caches for the cleanup manager.
func (c *Catalog) Caches() map[string]cache.Cleaner {
	return map[string]cache.Cleaner{"lookups": c.lookups, "statistics": c.stats}
}

func (c *Catalog) Channels(ctx context.Context) ([]core.Lookup, error) {
	return c.lookup(ctx, keyChannels, c.source.Channels)
}

func (c *Catalog) MainTypes(ctx context.Context) ([]core.Lookup, error) {
	return c.lookup(ctx, keyMainTypes, c.source.MainTypes)
}

func (c *Catalog) SubTypes(ctx context.Context) ([]core.Lookup, error) {
	return c.lookup(ctx, keySubTypes, c.source.SubTypes)
}

func (c *Catalog) lookup(ctx context.Context, key string, load func(context.Context) ([]core.Lookup, error)) ([]core.Lookup, error) {
	if v, ok := c.lookups.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	c.lookups.Set(key, v)
	return v, nil
}

func (c *Catalog) Statistics(ctx context.Context, startDate, endDate string) (core.Statistics, error) {
	key := startDate + "|" + endDate
	if v, ok := c.stats.Get(key); ok {
		return v, nil
	}
	v, err := c.source.Statistics(ctx, startDate, endDate)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("load statistics: %w", err)
	}
	c.stats.Set(key, v)
	return v, nil
}

func (c *Catalog) InvalidateStatistics() {
	c.stats.Purge()
}

func (c *Catalog) InvalidateAll() {
	c.stats.Purge()
	c.lookups.Purge()
}

// InvalidateSoon schedules InvalidateAll after the quiet period.
func (c *Catalog) InvalidateSoon() {
	c.soon(struct{}{})
}
