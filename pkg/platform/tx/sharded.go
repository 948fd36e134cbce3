package tx

import (
	"context"
	"sync"
	"time"

	dErrors "homeloan/pkg/domain-errors"
)

const (
	numShards        = 128
	defaultTxTimeout = 5 * time.Second
)

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// ShardedRunner serializes writers per key using a fixed pool of mutexes.
// Distinct keys may share a shard; that only costs throughput, never correctness.
type ShardedRunner struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewShardedRunner(timeout time.Duration) *ShardedRunner {
	if timeout <= 0 {
		timeout = defaultTxTimeout
	}
	return &ShardedRunner{timeout: timeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	shard := &r.shards[hashKey(key)%numShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	h := fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
