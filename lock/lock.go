// Package lock provides a cross-process writer lock using flock(2).
//
// The daemon holds the lock for its lifetime so a second daemon on the
// same runtime directory fails fast, and local CLI mutations take it
// for the duration of one write.
//
// Possession of a WriterScope is proof that the lock is held; it can
// only be obtained inside Run.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// WriterScope represents the dynamic execution region in which the
// writer lock is held. The interface cannot be implemented outside this
// package due to the unexported marker method.
type WriterScope interface {
	// FD returns the raw lock file descriptor (for logging/diagnostics).
	FD() int

	writerScopeMarker()
}

type writerScope struct {
	f *os.File
}

func (*writerScope) writerScopeMarker() {}

func (s *writerScope) FD() int {
	return int(s.f.Fd())
}

// Run acquires the writer lock, executes fn, then releases.
// Uses LOCK_EX|LOCK_NB with exponential backoff, respects ctx cancellation.
func Run(ctx context.Context, lockPath string, fn func(context.Context, WriterScope) error) error {
	f, err := acquireWriter(ctx, lockPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(ctx, &writerScope{f: f})
}

// TryRun is Run without waiting: if another process holds the lock it
// returns ErrLocked immediately.
func TryRun(ctx context.Context, lockPath string, fn func(context.Context, WriterScope) error) error {
	f, err := openLockFile(lockPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return ErrLocked{Path: lockPath}
		}
		return fmt.Errorf("flock: %w", err)
	}

	return fn(ctx, &writerScope{f: f})
}

// ErrLocked is returned by TryRun when the lock is held elsewhere.
type ErrLocked struct {
	Path string
}

func (e ErrLocked) Error() string {
	return fmt.Sprintf("writer lock %s is held by another process", e.Path)
}

func openLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

func acquireWriter(ctx context.Context, path string) (*os.File, error) {
	f, err := openLockFile(path)
	if err != nil {
		return nil, err
	}

	backoff := 25 * time.Millisecond
	const maxBackoff = 500 * time.Millisecond

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			f.Close()
			return nil, fmt.Errorf("flock: %w", err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
