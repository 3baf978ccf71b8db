package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
)

// RedisCache is the Redis-backed synthesis cache, for setups where several
// server instances should share one cache. SetNX keeps the first write.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(cfg config.RedisCacheConfig) *RedisCache {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "donotts:cache:"
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	}
}

// NewRedisCacheWithClient wires an existing client, used by tests.
func NewRedisCacheWithClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "donotts:cache:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// cachedArtifact is the Redis value encoding of an artifact.
type cachedArtifact struct {
	Provider   string `json:"provider"`
	Voice      string `json:"voice"`
	Format     string `json:"format"`
	Audio      []byte `json:"audio"`
	DurationMS int64  `json:"duration_ms"`
	SampleRate int    `json:"sample_rate"`
}

func (c *RedisCache) Lookup(ctx context.Context, fingerprint string) (*tts.Artifact, error) {
	raw, err := c.client.Get(ctx, c.prefix+fingerprint).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cache.lookup", "redis get failed", err)
	}

	var entry cachedArtifact
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cache.lookup", "corrupt cache value", err)
	}
	return &tts.Artifact{
		Fingerprint: fingerprint,
		Provider:    entry.Provider,
		Voice:       entry.Voice,
		Format:      providers.Format(entry.Format),
		Data:        entry.Audio,
		Duration:    time.Duration(entry.DurationMS) * time.Millisecond,
		SampleRate:  entry.SampleRate,
	}, nil
}

func (c *RedisCache) Store(ctx context.Context, art *tts.Artifact) error {
	raw, err := sonic.Marshal(cachedArtifact{
		Provider:   art.Provider,
		Voice:      art.Voice,
		Format:     string(art.Format),
		Audio:      art.Data,
		DurationMS: art.Duration.Milliseconds(),
		SampleRate: art.SampleRate,
	})
	if err != nil {
		return errors.Wrap(errors.KindStorage, "cache.store", "failed to encode artifact", err)
	}
	if err := c.client.SetNX(ctx, c.prefix+art.Fingerprint, raw, 0).Err(); err != nil {
		return errors.Wrap(errors.KindStorage, "cache.store", "redis setnx failed", err)
	}
	return nil
}

// NewCache selects the synthesis-cache backend from configuration.
func NewCache(cfg config.CacheConfig, db *gorm.DB) (tts.Cache, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return NewCacheRepository(db), nil
	case "redis":
		return NewRedisCache(cfg.Redis), nil
	default:
		return nil, errors.New(errors.KindConfig, "storage.NewCache", "unknown cache backend: "+cfg.Backend)
	}
}
