package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotAcquired is returned by WithLock when another holder owns the lock.
	ErrNotAcquired = errors.New("lock held by another process")

	// ErrLockLost means a leased lock expired or changed owner while held.
	ErrLockLost = errors.New("lock lease lost")
)

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// Leased is a lock that expires unless its owner renews it.
type Leased interface {
	DistLock
	TTL() time.Duration
	// Extend resets the expiry to ttl. Returns ErrLockLost if the lock is no
	// longer owned.
	Extend(ctx context.Context, ttl time.Duration) error
}

// Factory builds a fresh lock for a key.
type Factory func(key string) DistLock

// NewLock creates a distributed lock using the best available backend.
// If redisClient is non-nil, uses Redis (preferred for cross-host locking).
// Otherwise falls back to PostgreSQL advisory locks.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// NewFactory returns a Factory bound to the given backends.
func NewFactory(redisClient *redis.Client, db *sql.DB, ttl time.Duration) Factory {
	return func(key string) DistLock {
		return NewLock(redisClient, db, key, ttl)
	}
}

// WithLock acquires lock, runs fn, and releases the lock. If the lock is
// held elsewhere it polls every retryEvery for at most wait (wait <= 0 polls
// until ctx is done), then returns ErrNotAcquired. The wait does not bound fn.
//
// A Leased lock is renewed every TTL/3 while fn runs. If a renewal fails the
// context passed to fn is canceled and WithLock returns ErrLockLost.
func WithLock(ctx context.Context, lock DistLock, wait, retryEvery time.Duration, fn func(ctx context.Context) error) error {
	if err := acquire(ctx, lock, wait, retryEvery); err != nil {
		return err
	}

	defer func() {
		// Release must run even when ctx was canceled by fn.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	if leased, ok := lock.(Leased); ok && leased.TTL() > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			renew(runCtx, leased, stop, cancel)
		}()
	}

	err := fn(runCtx)
	close(stop)
	wg.Wait()

	if cause := context.Cause(runCtx); errors.Is(cause, ErrLockLost) {
		return errors.Join(cause, err)
	}
	return err
}

func acquire(ctx context.Context, lock DistLock, wait, retryEvery time.Duration) error {
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	for {
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotAcquired, ctx.Err())
		case <-time.After(retryEvery):
		}
	}
}

func renew(ctx context.Context, lock Leased, stop <-chan struct{}, cancel context.CancelCauseFunc) {
	ticker := time.NewTicker(lock.TTL() / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := lock.Extend(ctx, lock.TTL()); err != nil {
				if !errors.Is(err, ErrLockLost) {
					err = fmt.Errorf("%w: %v", ErrLockLost, err)
				}
				cancel(err)
				return
			}
		}
	}
}

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// pg_try_advisory_lock is session-scoped, so the lock pins one pooled
// connection from Acquire until Release. The lock is released automatically
// if that connection drops.

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
type PGAdvisoryLock struct {
	db     *sql.DB
	conn   *sql.Conn
	lockID int64
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock. Returns true if successful.
// Uses pg_try_advisory_lock which returns immediately (non-blocking).
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("advisory lock %d: get conn: %w", l.lockID, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("advisory lock %d: %w", l.lockID, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release releases the advisory lock and returns its connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return fmt.Errorf("advisory unlock %d: %w", l.lockID, err)
	}
	return closeErr
}
