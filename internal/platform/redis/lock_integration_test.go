//go:build integration

package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"homeloan/internal/platform/redis"
	"homeloan/pkg/platform/sentinel"
	"homeloan/pkg/testutil/containers"
)

type LockerSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LockerSuite))
}

func (s *LockerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *LockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LockerSuite) TestHeldKeyFailsFastWithoutRetry() {
	ctx := context.Background()
	locker := redis.NewLocker(s.redis.Client, time.Second, redis.WithRetryInterval(0))

	release, err := locker.Acquire(ctx, "mortgage:1")
	s.Require().NoError(err)

	_, err = locker.Acquire(ctx, "mortgage:1")
	s.ErrorIs(err, sentinel.ErrLockHeld)

	s.Require().NoError(release(ctx))
	release, err = locker.Acquire(ctx, "mortgage:1")
	s.Require().NoError(err)
	s.NoError(release(ctx))
}

func (s *LockerSuite) TestReleaseAfterExpiryKeepsNewOwner() {
	ctx := context.Background()
	locker := redis.NewLocker(s.redis.Client, 100*time.Millisecond, redis.WithRetryInterval(0))

	stale, err := locker.Acquire(ctx, "mortgage:2")
	s.Require().NoError(err)
	time.Sleep(200 * time.Millisecond)

	_, err = locker.Acquire(ctx, "mortgage:2")
	s.Require().NoError(err)
	s.Require().NoError(stale(ctx))

	_, err = locker.Acquire(ctx, "mortgage:2")
	s.ErrorIs(err, sentinel.ErrLockHeld)
}

// TestRetryingAcquireSerializesHolders counts overlapping critical sections
// across goroutines contending for one key.
func (s *LockerSuite) TestRetryingAcquireSerializesHolders() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	locker := redis.NewLocker(s.redis.Client, 5*time.Second, redis.WithRetryInterval(5*time.Millisecond))

	const goroutines = 10
	var (
		wg      sync.WaitGroup
		inside  atomic.Int32
		overlap atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "mortgage:3")
			if !s.NoError(err) {
				return
			}
			if inside.Add(1) > 1 {
				overlap.Add(1)
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			s.NoError(release(ctx))
		}()
	}
	wg.Wait()

	s.Zero(overlap.Load())
}
