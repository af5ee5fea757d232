package submitguard

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ai-newsletter/subscription-api/internal/ports/out/submitguard"
)

const keyPrefix = "newsletter:subscribe:"

// releaseScript deletes the key only while it still carries the caller's lease.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard is a Redis-backed submitguard.Guard shared by every API instance.
type Guard struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewGuard(rdb *goredis.Client, ttl time.Duration) *Guard {
	return &Guard{rdb: rdb, ttl: ttl}
}

// Acquire stores a fresh lease under the email's key only if the key is absent. A false
// result means another request for the same address is in flight or has just succeeded.
func (g *Guard) Acquire(ctx context.Context, email string) (submitguard.Lease, bool, error) {
	lease := submitguard.Lease(uuid.NewString())
	ok, err := g.rdb.SetNX(ctx, Key(email), string(lease), g.ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return lease, true, nil
}

func (g *Guard) Release(ctx context.Context, email string, lease submitguard.Lease) error {
	return releaseScript.Run(ctx, g.rdb, []string{Key(email)}, string(lease)).Err()
}

// Key returns the Redis key guarding email.
func Key(email string) string {
	return keyPrefix + email
}
