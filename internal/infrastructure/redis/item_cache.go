package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auction-marketplace/internal/domain"

	"github.com/go-redis/redis/v8"
)

// publishIfNewer stores the item snapshot and publishes the event in one
// step, but only when the incoming version is newer than the cached one.
// Late or duplicate deliveries are dropped so listeners never see an item
// move backwards.
var publishIfNewer = redis.NewScript(`
    local stored = redis.call('HGET', KEYS[1], 'version')
    if stored and tonumber(stored) >= tonumber(ARGV[1]) then
        return 0
    end

    redis.call('HSET', KEYS[1], 'version', ARGV[1], 'snapshot', ARGV[2])
    redis.call('PEXPIRE', KEYS[1], ARGV[5])
    redis.call('PUBLISH', ARGV[3], ARGV[4])
    return 1
`)

// ItemCache holds the latest published snapshot of each item so a client
// that connects late can be brought up to date.
type ItemCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewItemCache(client *redis.Client, ttl time.Duration) *ItemCache {
	return &ItemCache{client: client, ttl: ttl}
}

func itemKey(itemID string) string {
	return fmt.Sprintf("item:%s", itemID)
}

// PublishSnapshot reports false when a newer snapshot was already cached.
func (c *ItemCache) PublishSnapshot(ctx context.Context, item *domain.AuctionItem, channel string, event []byte) (bool, error) {
	snapshot, err := json.Marshal(item)
	if err != nil {
		return false, err
	}

	result, err := publishIfNewer.Run(ctx, c.client, []string{itemKey(item.ID)},
		item.Version, snapshot, channel, event, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

func (c *ItemCache) GetSnapshot(ctx context.Context, itemID string) (*domain.AuctionItem, error) {
	data, err := c.client.HGet(ctx, itemKey(itemID), "snapshot").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: no snapshot for item %s", domain.ErrNotFound, itemID)
	}
	if err != nil {
		return nil, err
	}

	var item domain.AuctionItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
