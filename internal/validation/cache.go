package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/redis/go-redis/v9"
)

// ResultCache short-circuits identical repeated validation requests
// (SPEC_FULL.md §4.8, §6.6).
type ResultCache interface {
	Get(ctx context.Context, key string) (*BootstrapResultDTO, bool, error)
	Set(ctx context.Context, key string, result *BootstrapResultDTO, ttl time.Duration) error
}

// FingerprintKey hashes the series and bootstrap config into a cache key so
// identical requests (a common pattern when iterating on a strategy's exit
// rule) hit the same entry. Uses blake2b rather than a general hash/crc
// because the platform already depends on golang.org/x/crypto elsewhere
// (internal/config's EnvManager uses x/crypto/scrypt).
func FingerprintKey(stat string, returns []float64, cfg BootstrapRequestConfig) (string, error) {
	payload, err := json.Marshal(struct {
		Stat    string                 `json:"stat"`
		Returns []float64              `json:"returns"`
		Cfg     BootstrapRequestConfig `json:"cfg"`
	}{stat, returns, cfg})
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(payload)
	return fmt.Sprintf("qcat:validation:result:%x", sum), nil
}

// RedisResultCache is a redis/go-redis/v9-backed ResultCache.
type RedisResultCache struct {
	client *redis.Client
}

// NewRedisResultCache wraps an already-connected redis client.
func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{client: client}
}

// Get implements ResultCache.
func (c *RedisResultCache) Get(ctx context.Context, key string) (*BootstrapResultDTO, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result BootstrapResultDTO
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// Set implements ResultCache.
func (c *RedisResultCache) Set(ctx context.Context, key string, result *BootstrapResultDTO, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}
