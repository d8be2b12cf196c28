package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/quickship/charge-console/models"
	"github.com/redis/go-redis/v9"
)

const defaultCachePrefix = "charge-console"

// CatalogCache fronts the reference route catalog with a Redis TTL cache.
// The catalog changes rarely and is re-read on every modal session, so one
// shared snapshot keeps the backend out of the hot path. With no Redis
// configured every read falls through to the backend.
type CatalogCache struct {
	rc     *redis.Client
	client MarketplaceClient
	key    string
	ttl    time.Duration
}

func NewCatalogCache(rc *redis.Client, client MarketplaceClient, prefix string, ttl time.Duration) *CatalogCache {
	if prefix == "" {
		prefix = defaultCachePrefix
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{rc: rc, client: client, key: prefix + ":route-catalog", ttl: ttl}
}

// Routes returns the cached catalog, fetching and caching it on miss.
func (c *CatalogCache) Routes(ctx context.Context) ([]models.ReferenceRoute, error) {
	if c.rc != nil {
		raw, err := c.rc.Get(ctx, c.key).Bytes()
		if err == nil {
			var routes []models.ReferenceRoute
			if err := json.Unmarshal(raw, &routes); err == nil {
				return routes, nil
			}
			// Corrupt cache entry; drop it and refetch.
			c.rc.Del(ctx, c.key)
		} else if !errors.Is(err, redis.Nil) {
			log.Println("Catalog cache read failed:", err)
		}
	}

	routes, err := c.client.GetRouteCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if c.rc != nil {
		if raw, err := json.Marshal(routes); err == nil {
			if err := c.rc.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
				log.Println("Catalog cache write failed:", err)
			}
		}
	}
	return routes, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if c.rc == nil {
		return
	}
	if err := c.rc.Del(ctx, c.key).Err(); err != nil {
		log.Println("Catalog cache invalidate failed:", err)
	}
}
