// Package cache provides a redis read-through cache for station catalogs.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19radio/internal/domain/track"
	"github.com/osa030/19radio/internal/infra/config"
	"github.com/osa030/19radio/internal/infra/storage"
)

const catalogKey = "catalog:"

// Observer records cache outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveCacheLookup(result string)
}

// CatalogCache wraps a Store and caches ListTracks in redis. Mutations go to
// the store and then drop the cached entry. When redis is unreachable every
// call falls through to the store.
type CatalogCache struct {
	storage.Store

	client   *redis.Client
	prefix   string
	ttl      time.Duration
	observer Observer
}

// NewClient creates a redis client from config and checks the connection.
func NewClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis: addr=%s", cfg.Addr)
	}
	return client, nil
}

// NewCatalogCache wraps store. observer may be nil.
func NewCatalogCache(store storage.Store, client *redis.Client, prefix string, ttl time.Duration, observer Observer) *CatalogCache {
	return &CatalogCache{
		Store:    store,
		client:   client,
		prefix:   prefix,
		ttl:      ttl,
		observer: observer,
	}
}

func (c *CatalogCache) key(stationID string) string {
	return c.prefix + catalogKey + stationID
}

func (c *CatalogCache) observe(result string) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(result)
	}
}

// ListTracks returns the cached catalog or loads and caches it.
func (c *CatalogCache) ListTracks(ctx context.Context, stationID string) ([]track.Track, error) {
	key := c.key(stationID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var tracks []track.Track
		if uerr := json.Unmarshal(data, &tracks); uerr == nil {
			c.observe("hit")
			return tracks, nil
		}
		zlog.Warn().Msgf("cache: dropping undecodable entry: key=%s", key)
		c.observe("error")
	case errors.Is(err, redis.Nil):
		c.observe("miss")
	default:
		zlog.Warn().Err(err).Msgf("cache: get failed, reading store: key=%s", key)
		c.observe("error")
	}

	tracks, err := c.Store.ListTracks(ctx, stationID)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(tracks); merr == nil {
		if serr := c.client.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			zlog.Debug().Err(serr).Msgf("cache: set failed: key=%s", key)
		}
	}
	return tracks, nil
}

// Invalidate drops the cached catalog of a station.
func (c *CatalogCache) Invalidate(ctx context.Context, stationID string) {
	if err := c.client.Del(ctx, c.key(stationID)).Err(); err != nil {
		zlog.Warn().Err(err).Msgf("cache: invalidate failed: station=%s", stationID)
	}
}

func (c *CatalogCache) CreateTrack(ctx context.Context, stationID string, t track.Track) error {
	if err := c.Store.CreateTrack(ctx, stationID, t); err != nil {
		return err
	}
	c.Invalidate(ctx, stationID)
	return nil
}

func (c *CatalogCache) UpdateTrack(ctx context.Context, stationID string, t track.Track) error {
	if err := c.Store.UpdateTrack(ctx, stationID, t); err != nil {
		return err
	}
	c.Invalidate(ctx, stationID)
	return nil
}

func (c *CatalogCache) DeleteTrack(ctx context.Context, stationID, trackID string) error {
	if err := c.Store.DeleteTrack(ctx, stationID, trackID); err != nil {
		return err
	}
	c.Invalidate(ctx, stationID)
	return nil
}

func (c *CatalogCache) SwapPlayOrder(ctx context.Context, stationID, trackA, trackB string) error {
	if err := c.Store.SwapPlayOrder(ctx, stationID, trackA, trackB); err != nil {
		return err
	}
	c.Invalidate(ctx, stationID)
	return nil
}

// Close closes the redis client and the wrapped store.
func (c *CatalogCache) Close() error {
	cerr := c.client.Close()
	if err := c.Store.Close(); err != nil {
		return err
	}
	return cerr
}
