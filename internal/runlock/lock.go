package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Lock guards campaign runs with a Redis key so that at most one dispatch
// loop is active per campaign, even when a deferred trigger and a manual
// re-submission race.
type Lock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewLock constructs a run lock.
func NewLock(client *redis.Client, keyPrefix string, ttl time.Duration) *Lock {
	if keyPrefix == "" {
		keyPrefix = "voicecampaign:run"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Lock{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Lease is a held run lock. Release is safe to call once the run finishes;
// the TTL reclaims leases lost to a crashed process.
type Lease struct {
	lock  *Lock
	key   string
	token string
}

// Acquire attempts to take the run lock for a campaign. Returns a nil lease
// and false when another run already holds it.
func (l *Lock) Acquire(ctx context.Context, campaignID uuid.UUID) (*Lease, bool, error) {
	key := l.key(campaignID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("run lock acquire: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &Lease{lock: l, key: key, token: token}, true, nil
}

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// Release frees the lease if this holder still owns it.
func (le *Lease) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, le.lock.client, []string{le.key}, le.token).Int(); err != nil {
		return fmt.Errorf("run lock release: %w", err)
	}
	return nil
}

func (l *Lock) key(campaignID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", l.keyPrefix, campaignID.String())
}
