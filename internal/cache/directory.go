// Package cache keeps each channel's sub-channel directory in Redis so live
// overlap checks do not hit PostgreSQL on every keystroke.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/channel-attribution/internal/domain"
)

const (
	keyPrefix = "attr:directory:"
	genPrefix = "attr:directory-gen:"
)

// setIfCurrent stores the snapshot only if the generation it was read under
// is still current. A missing generation counts as 0.
var setIfCurrent = redis.NewScript(`
	local cur = redis.call("get", KEYS[1]) or "0"
	if cur ~= ARGV[1] then
		return 0
	end
	if tonumber(ARGV[3]) > 0 then
		redis.call("set", KEYS[2], ARGV[2], "PX", ARGV[3])
	else
		redis.call("set", KEYS[2], ARGV[2])
	end
	return 1
`)

// DirectoryCache stores sub-channel directories keyed by parent channel.
type DirectoryCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDirectoryCache creates a cache whose entries expire after ttl.
func NewDirectoryCache(client *redis.Client, ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{redis: client, ttl: ttl}
}

func directoryKey(parentChannelID string) string {
	return keyPrefix + parentChannelID
}

func generationKey(parentChannelID string) string {
	return genPrefix + parentChannelID
}

// Get returns the cached directory. On a miss ok is false and gen is the
// generation to hand back to Set.
func (c *DirectoryCache) Get(ctx context.Context, parentChannelID string) ([]domain.SubChannel, int64, bool, error) {
	raw, err := c.redis.Get(ctx, directoryKey(parentChannelID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return c.miss(ctx, parentChannelID)
	case err != nil:
		return nil, 0, false, fmt.Errorf("get directory %s: %w", parentChannelID, err)
	}

	subs := []domain.SubChannel{}
	if err := json.Unmarshal(raw, &subs); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.redis.Del(ctx, directoryKey(parentChannelID))
		return c.miss(ctx, parentChannelID)
	}
	return subs, 0, true, nil
}

func (c *DirectoryCache) miss(ctx context.Context, parentChannelID string) ([]domain.SubChannel, int64, bool, error) {
	gen, err := c.redis.Get(ctx, generationKey(parentChannelID)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("get directory generation %s: %w", parentChannelID, err)
	}
	return nil, gen, false, nil
}

// Set stores a directory snapshot read under generation gen. The snapshot is
// dropped if the directory was invalidated since.
func (c *DirectoryCache) Set(ctx context.Context, parentChannelID string, gen int64, subs []domain.SubChannel) error {
	if subs == nil {
		subs = []domain.SubChannel{}
	}
	raw, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("encode directory %s: %w", parentChannelID, err)
	}
	keys := []string{generationKey(parentChannelID), directoryKey(parentChannelID)}
	if err := setIfCurrent.Run(ctx, c.redis, keys, gen, raw, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("set directory %s: %w", parentChannelID, err)
	}
	return nil
}

// Invalidate drops the cached directory of one channel and advances its
// generation.
func (c *DirectoryCache) Invalidate(ctx context.Context, parentChannelID string) error {
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(parentChannelID))
		pipe.Del(ctx, directoryKey(parentChannelID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate directory %s: %w", parentChannelID, err)
	}
	return nil
}
