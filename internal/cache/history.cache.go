package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"webstore-orders/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	historyKeyPrefix    = "orders:history:"
	generationKeyPrefix = "orders:history:gen:"
)

// HistoryCache stores assembled order histories in Redis under a per-customer
// generation. Placing an order bumps the generation, so an entry built from a
// read that raced the commit lands under a key nobody asks for again.
// Every failure is treated as a miss so the database stays the source of truth.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger

	mu sync.Mutex
	// customers whose generation could not be bumped; bypassed until a bump succeeds
	stale map[int64]struct{}
}

func NewHistoryCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *HistoryCache {
	return &HistoryCache{client: client, ttl: ttl, log: log, stale: make(map[int64]struct{})}
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func historyKey(customerID, gen int64) string {
	return fmt.Sprintf("%s%d:%d", historyKeyPrefix, customerID, gen)
}

func generationKey(customerID int64) string {
	return fmt.Sprintf("%s%d", generationKeyPrefix, customerID)
}

// Generation returns the customer's current generation. ok is false when the
// cache must be bypassed for this read.
func (c *HistoryCache) Generation(ctx context.Context, customerID int64) (int64, bool) {
	if c.isStale(customerID) {
		gen, err := c.client.Incr(ctx, generationKey(customerID)).Result()
		if err != nil {
			c.log.Debug("history cache still bypassed", zap.Int64("customer_id", customerID), zap.Error(err))
			return 0, false
		}
		c.clearStale(customerID)
		return gen, true
	}

	gen, err := c.client.Get(ctx, generationKey(customerID)).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		c.log.Warn("history cache generation read failed", zap.Int64("customer_id", customerID), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (c *HistoryCache) Get(ctx context.Context, customerID, gen int64) ([]domain.OrderHistory, bool) {
	data, err := c.client.Get(ctx, historyKey(customerID, gen)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("history cache read failed", zap.Int64("customer_id", customerID), zap.Error(err))
		}
		return nil, false
	}

	orders, err := decodeHistory(data)
	if err != nil {
		c.log.Warn("history cache entry corrupt", zap.Int64("customer_id", customerID), zap.Error(err))
		return nil, false
	}
	return orders, true
}

func (c *HistoryCache) Set(ctx context.Context, customerID, gen int64, orders []domain.OrderHistory) {
	data, err := json.Marshal(orders)
	if err != nil {
		c.log.Warn("history cache encode failed", zap.Int64("customer_id", customerID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, historyKey(customerID, gen), data, c.ttl).Err(); err != nil {
		c.log.Warn("history cache write failed", zap.Int64("customer_id", customerID), zap.Error(err))
	}
}

// Invalidate bumps the customer's generation. When the bump fails the customer
// is bypassed locally until a later bump succeeds.
func (c *HistoryCache) Invalidate(ctx context.Context, customerID int64) {
	if err := c.client.Incr(ctx, generationKey(customerID)).Err(); err != nil {
		c.markStale(customerID)
		c.log.Warn("history cache invalidation failed, bypassing customer",
			zap.Int64("customer_id", customerID), zap.Error(err))
		return
	}
	c.clearStale(customerID)
}

func (c *HistoryCache) isStale(customerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.stale[customerID]
	return ok
}

func (c *HistoryCache) markStale(customerID int64) {
	c.mu.Lock()
	c.stale[customerID] = struct{}{}
	c.mu.Unlock()
}

func (c *HistoryCache) clearStale(customerID int64) {
	c.mu.Lock()
	delete(c.stale, customerID)
	c.mu.Unlock()
}

func decodeHistory(data []byte) ([]domain.OrderHistory, error) {
	var orders []domain.OrderHistory
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i] = orders[i].Normalize()
	}
	return orders, nil
}
