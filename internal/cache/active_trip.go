package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	driverActiveTripKey  = "driver:active_trip:"
	defaultActiveTripTTL = 12 * time.Hour
)

// ActiveTripCache remembers which trip a driver is currently running.
type ActiveTripCache interface {
	SetActiveTrip(ctx context.Context, personID, tripID string) error
	// GetActiveTrip returns "" on a cache miss.
	GetActiveTrip(ctx context.Context, personID string) (string, error)
	ClearActiveTrip(ctx context.Context, personID string) error
}

type redisActiveTripCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewActiveTripCache(redisClient *redis.Client, ttl time.Duration) ActiveTripCache {
	if ttl <= 0 {
		ttl = defaultActiveTripTTL
	}
	return &redisActiveTripCache{redis: redisClient, ttl: ttl}
}

func (c *redisActiveTripCache) SetActiveTrip(ctx context.Context, personID, tripID string) error {
	key := driverActiveTripKey + personID
	return c.redis.Set(ctx, key, tripID, c.ttl).Err()
}

func (c *redisActiveTripCache) GetActiveTrip(ctx context.Context, personID string) (string, error) {
	key := driverActiveTripKey + personID
	result, err := c.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (c *redisActiveTripCache) ClearActiveTrip(ctx context.Context, personID string) error {
	key := driverActiveTripKey + personID
	return c.redis.Del(ctx, key).Err()
}

type memoryEntry struct {
	tripID  string
	expires time.Time
}

// MemoryActiveTripCache is used when no Redis is configured.
type MemoryActiveTripCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryActiveTripCache(ttl time.Duration) *MemoryActiveTripCache {
	if ttl <= 0 {
		ttl = defaultActiveTripTTL
	}
	return &MemoryActiveTripCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryActiveTripCache) SetActiveTrip(ctx context.Context, personID, tripID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[personID] = memoryEntry{tripID: tripID, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryActiveTripCache) GetActiveTrip(ctx context.Context, personID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[personID]
	if !ok {
		return "", nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, personID)
		return "", nil
	}
	return e.tripID, nil
}

func (c *MemoryActiveTripCache) ClearActiveTrip(ctx context.Context, personID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, personID)
	return nil
}
