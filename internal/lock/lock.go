package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseScript only deletes the key if we still own it, so a lock that
// expired and got re-acquired elsewhere is never released by the old holder.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Lock is a best-effort redis mutex. The sweeper takes it per tick so
// overlapping cron fires don't run concurrent sweeps; the per-lead claim in
// the lead repository remains the actual correctness guarantee.
type Lock struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	token string
}

func New(rdb *redis.Client, key string, ttl time.Duration) *Lock {
	return &Lock{rdb: rdb, key: key, ttl: ttl, token: uuid.NewString()}
}

// Acquire returns false when another holder owns the lock.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

func (l *Lock) Release(ctx context.Context) error {
	return l.rdb.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}
