package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"homeloan/pkg/platform/sentinel"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements tx.Locker with SET NX PX and a token-checked release.
type Locker struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryEvery time.Duration
}

type LockerOption func(*Locker)

// WithRetryInterval sets how often Acquire polls a held key until ctx expires.
// Zero means fail immediately with sentinel.ErrLockHeld.
func WithRetryInterval(d time.Duration) LockerOption {
	return func(l *Locker) { l.retryEvery = d }
}

func NewLocker(client redis.UniversalClient, ttl time.Duration, opts ...LockerOption) *Locker {
	l := &Locker{client: client, ttl: ttl, retryEvery: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	if l.ttl <= 0 {
		l.ttl = 10 * time.Second
	}
	return l
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, errors.Join(sentinel.ErrUnavailable, err))
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
					return fmt.Errorf("release lock %s: %w", key, err)
				}
				return nil
			}, nil
		}
		if l.retryEvery <= 0 {
			return nil, sentinel.ErrLockHeld
		}
		select {
		case <-ctx.Done():
			return nil, sentinel.ErrLockHeld
		case <-time.After(l.retryEvery):
		}
	}
}
