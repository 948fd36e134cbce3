package tx

import (
	"context"
)

// Locker grants exclusive ownership of a key across processes.
// Acquire returns sentinel.ErrLockHeld when another owner holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// LockingRunner takes a distributed lock on the key before handing off to the
// inner runner, so single-writer holds across every instance of the service.
type LockingRunner struct {
	prefix string
	locker Locker
	inner  Runner
}

func NewLockingRunner(prefix string, locker Locker, inner Runner) *LockingRunner {
	return &LockingRunner{prefix: prefix, locker: locker, inner: inner}
}

func (r *LockingRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	release, err := r.locker.Acquire(ctx, r.prefix+key)
	if err != nil {
		return err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()
	return r.inner.RunInTx(ctx, key, fn)
}
