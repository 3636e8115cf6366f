package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blossomshop/cart-client/pkg/redis"
)

// StockCache holds short-lived flower snapshots so repeated add-to-cart
// clicks do not hammer the catalog endpoints.
type StockCache interface {
	Get(ctx context.Context, flowerID string) (*Snapshot, error)
	Put(ctx context.Context, snap *Snapshot) error
	Forget(ctx context.Context, flowerID string) error
}

type redisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStockCache caches snapshots in redis with the configured TTL.
func NewRedisStockCache(client *redis.Client, ttl time.Duration) (StockCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("stock ttl must be positive")
	}
	return &redisStockCache{client: client, ttl: ttl}, nil
}

func (c *redisStockCache) Get(ctx context.Context, flowerID string) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, c.client.StockKey(flowerID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading stock snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		// Treat a corrupt entry as a miss; the next Put repairs it.
		_ = c.client.Del(ctx, c.client.StockKey(flowerID))
		return nil, nil
	}
	return &snap, nil
}

func (c *redisStockCache) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.FlowerID == "" {
		return fmt.Errorf("snapshot with flower id required")
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding stock snapshot: %w", err)
	}
	return c.client.Set(ctx, c.client.StockKey(snap.FlowerID), string(encoded), c.ttl)
}

func (c *redisStockCache) Forget(ctx context.Context, flowerID string) error {
	return c.client.Del(ctx, c.client.StockKey(flowerID))
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

type memoryStockCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	clock   func() time.Time
}

// NewMemoryStockCache is the fallback used when no redis endpoint is
// configured, e.g. a single kiosk without shared infrastructure.
func NewMemoryStockCache(ttl time.Duration) StockCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &memoryStockCache{
		ttl:     ttl,
		entries: map[string]memoryEntry{},
		clock:   time.Now,
	}
}

func (c *memoryStockCache) Get(ctx context.Context, flowerID string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[flowerID]
	if !ok {
		return nil, nil
	}
	if c.clock().After(entry.expiresAt) {
		delete(c.entries, flowerID)
		return nil, nil
	}
	snap := entry.snap
	return &snap, nil
}

func (c *memoryStockCache) Put(ctx context.Context, snap *Snapshot) error {
	if snap == nil || snap.FlowerID == "" {
		return fmt.Errorf("snapshot with flower id required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.FlowerID] = memoryEntry{snap: *snap, expiresAt: c.clock().Add(c.ttl)}
	return nil
}

func (c *memoryStockCache) Forget(ctx context.Context, flowerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, flowerID)
	return nil
}
