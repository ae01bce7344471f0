package cache

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ladderlink/ladderlink/internal/league"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

var _ StandingsCache = (*RedisCache)(nil)

// RedisCache stores msgpack-encoded standings in Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect returns a Redis-backed cache, or a no-op cache when addr is empty or
// the server cannot be reached. Startup never fails because of the cache.
func Connect(ctx context.Context, addr, password string) StandingsCache {
	if addr == "" {
		log.Info("REDIS_ADDR not set, standings cache disabled")
		return Noop{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Could not connect to Redis, standings cache disabled", "addr", addr, "error", err)
		client.Close()
		return Noop{}
	}

	log.Info("Connected to Redis", "addr", addr)
	return NewRedisCache(client, DefaultTTL)
}

func standingsKey(leagueID string) string {
	return "standings:" + leagueID
}

func (c *RedisCache) Get(ctx context.Context, leagueID string) ([]league.Standing, bool) {
	data, err := c.client.Get(ctx, standingsKey(leagueID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("Failed to read cached standings", "leagueID", leagueID, "error", err)
		}
		return nil, false
	}

	var standings []league.Standing
	if err := msgpack.Unmarshal(data, &standings); err != nil {
		log.Warn("Discarding undecodable cached standings", "leagueID", leagueID, "error", err)
		c.Invalidate(ctx, leagueID)
		return nil, false
	}
	return standings, true
}

func (c *RedisCache) Set(ctx context.Context, leagueID string, standings []league.Standing) {
	data, err := msgpack.Marshal(standings)
	if err != nil {
		log.Error("Failed to encode standings", "leagueID", leagueID, "error", err)
		return
	}
	if err := c.client.Set(ctx, standingsKey(leagueID), data, c.ttl).Err(); err != nil {
		log.Warn("Failed to cache standings", "leagueID", leagueID, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, leagueID string) {
	if err := c.client.Del(ctx, standingsKey(leagueID)).Err(); err != nil {
		log.Warn("Failed to invalidate cached standings", "leagueID", leagueID, "error", err)
		return
	}
	log.Debug("Invalidated cached standings", "leagueID", leagueID)
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
