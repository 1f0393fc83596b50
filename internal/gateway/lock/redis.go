package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "labtrace/pkg/domain-errors"
)

const (
	leaseTTL      = 10 * time.Second
	acquirePoll   = 25 * time.Millisecond
	acquireBudget = 5 * time.Second
)

// releaseScript deletes the lease only if this holder still owns it, so an
// expired lease reclaimed by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker serializes mutations across processes with a leased key. The
// lease expires on holder crash instead of blocking the entity forever.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := "labtrace:lock:" + key
	token := uuid.NewString()

	deadline := time.Now().Add(acquireBudget)
	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, leaseTTL).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "entity lock unavailable")
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, dErrors.New(dErrors.CodeTimeout, "entity lock acquisition timed out")
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "entity lock acquisition cancelled")
		case <-time.After(acquirePoll):
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}, nil
}
