// Package filelock provides advisory file locking so that several planner
// processes (CLI, TUI, server) can share one task slot or task directory.
package filelock

import (
	"context"
	"fmt"
	"os"
	"time"
)

const (
	lockFileMode = 0o600

	minRetry = time.Millisecond
	maxRetry = 50 * time.Millisecond
)

// Lock acquires an exclusive advisory lock on the file at path, creating
// it if it does not exist. It polls until the lock is free or ctx is done.
// The returned function releases the lock.
func Lock(ctx context.Context, path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock file path from trusted source
	if err != nil {
		return nil, err
	}

	wait := minRetry
	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetry) //nolint:mnd // exponential backoff
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// With runs fn while holding the lock at path. An error from fn takes
// precedence over an error releasing the lock.
func With(ctx context.Context, path string, fn func() error) error {
	unlock, err := Lock(ctx, path)
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	fnErr := fn()
	unlockErr := unlock()
	if fnErr != nil {
		return fnErr
	}
	if unlockErr != nil {
		return fmt.Errorf("releasing lock: %w", unlockErr)
	}
	return nil
}
