package leader

import (
	"context"
	"errors"
	"time"

	"auction-marketplace/pkg/logger"

	"github.com/go-redis/redis/v8"
)

const leaderKey = "auction_marketplace:scheduler_leader"

var (
	releaseScript = redis.NewScript(`
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `)
	extendScript = redis.NewScript(`
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("PEXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `)
)

// RedisLeaderElection elects one instance to run the expiry sweep. The
// lease expires after ttl unless the holder keeps refreshing it.
type RedisLeaderElection struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewRedisLeaderElection(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisLeaderElection {
	return &RedisLeaderElection{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (r *RedisLeaderElection) BecomeLeader(ctx context.Context, instanceID string) (bool, error) {
	return r.client.SetNX(ctx, leaderKey, instanceID, r.ttl).Result()
}

func (r *RedisLeaderElection) IsLeader(ctx context.Context, instanceID string) (bool, error) {
	currentLeader, err := r.client.Get(ctx, leaderKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return currentLeader == instanceID, nil
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context, instanceID string) error {
	return releaseScript.Run(ctx, r.client, []string{leaderKey}, instanceID).Err()
}

// Campaign keeps instanceID in the race until ctx is done: it refreshes the
// lease while holding it and retries acquisition otherwise. The lease is
// released on return.
func (r *RedisLeaderElection) Campaign(ctx context.Context, instanceID string) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	leading := false
	for {
		leading = r.step(ctx, instanceID, leading)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if leading {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := r.ReleaseLeadership(releaseCtx, instanceID); err != nil {
					r.log.Warn("Failed to release leadership", "instance_id", instanceID, "error", err)
				}
				cancel()
			}
			return
		}
	}
}

func (r *RedisLeaderElection) step(ctx context.Context, instanceID string, leading bool) bool {
	if leading {
		extended, err := extendScript.Run(ctx, r.client, []string{leaderKey},
			instanceID, r.ttl.Milliseconds()).Int64()
		if err == nil && extended == 1 {
			return true
		}
		r.log.Warn("Lost leadership", "instance_id", instanceID, "error", err)
	}

	acquired, err := r.BecomeLeader(ctx, instanceID)
	if err != nil {
		r.log.Error("Leader election failed", "instance_id", instanceID, "error", err)
		return false
	}
	if acquired {
		r.log.Info("Became leader", "instance_id", instanceID)
	}
	return acquired
}
