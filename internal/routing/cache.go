package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enrutador/dispatch-backend/internal/models"
)

// Cache stores routed results in Redis keyed by the rounded coordinate
// pair. Providers are rate-limited, so repeat pairs should not burn quota.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Four decimals is ~11 m, well below routing resolution.
func cacheKey(origin, destination models.Coordinates) string {
	return fmt.Sprintf("route:%.4f,%.4f:%.4f,%.4f",
		origin.Lat, origin.Lon, destination.Lat, destination.Lon)
}

func (c *Cache) Get(ctx context.Context, origin, destination models.Coordinates) (Result, bool) {
	raw, err := c.rdb.Get(ctx, cacheKey(origin, destination)).Bytes()
	if err != nil {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (c *Cache) Put(ctx context.Context, origin, destination models.Coordinates, res Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	// Cache write failures are not worth failing a ranking over.
	_ = c.rdb.Set(ctx, cacheKey(origin, destination), raw, c.ttl).Err()
}
