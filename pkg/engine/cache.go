package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Loader constructs an Engine for a model size. Loading is expected to
// be expensive, so Cache guarantees at most one load per size.
type Loader func(ctx context.Context, modelSize string) (Engine, error)

type cacheEntry struct {
	mu     sync.Mutex
	engine Engine
}

// Cache keeps one loaded engine per model size. Concurrent callers
// asking for the same size share a single load; callers asking for
// different sizes do not block each other.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	loader  Loader
	logger  *zap.Logger
}

// NewCache creates an engine cache backed by the given loader.
func NewCache(loader Loader, logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		loader:  loader,
		logger:  logger,
	}
}

// Get returns the engine for the model size, loading it on first use.
func (c *Cache) Get(ctx context.Context, modelSize string) (Engine, error) {
	if !IsValidModelSize(modelSize) {
		return nil, fmt.Errorf("invalid model size: %q", modelSize)
	}

	c.mu.Lock()
	entry, ok := c.entries[modelSize]
	if !ok {
		entry = &cacheEntry{}
		c.entries[modelSize] = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.engine != nil {
		return entry.engine, nil
	}

	start := time.Now()
	eng, err := c.loader(ctx, modelSize)
	if err != nil {
		return nil, fmt.Errorf("load %s model: %w", modelSize, err)
	}
	entry.engine = eng

	if c.logger != nil {
		c.logger.Info("model loaded",
			zap.String("model", modelSize),
			zap.String("device", eng.Device()),
			zap.Duration("load_time", time.Since(start)))
	}
	return entry.engine, nil
}

// LoadedSizes lists the model sizes currently held by the cache.
func (c *Cache) LoadedSizes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var sizes []string
	for size, entry := range c.entries {
		entry.mu.Lock()
		if entry.engine != nil {
			sizes = append(sizes, size)
		}
		entry.mu.Unlock()
	}
	return sizes
}

// Clear drops all cached engines. Subsequent Get calls reload.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
