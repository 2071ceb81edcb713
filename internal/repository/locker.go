// Package repository provides database access for channels and their stats.
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Locker serializes work on a single channel id.
type Locker interface {
	Lock(ctx context.Context, channelID int64) (unlock func(), err error)
}

// KeyedLocker is an in-process lock per channel id. Different ids never
// contend; idle ids are dropped from the map.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocker creates an empty KeyedLocker.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[int64]*keyedLock)}
}

// Lock blocks until the id is free or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, channelID int64) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[channelID]
	if !ok {
		kl = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[channelID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(channelID, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.release(channelID, kl)
		})
	}, nil
}

// Len returns the number of ids currently held or waited on.
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *KeyedLocker) release(channelID int64, kl *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, channelID)
	}
}

// AdvisoryLocker serializes channels across processes with postgres
// session-level advisory locks. The local locker is taken first so a process
// holds at most one pool connection per channel.
type AdvisoryLocker struct {
	pool  *pgxpool.Pool
	local Locker
}

// NewAdvisoryLocker creates a locker on top of a pgx pool.
func NewAdvisoryLocker(pool *pgxpool.Pool, local Locker) *AdvisoryLocker {
	if local == nil {
		local = NewKeyedLocker()
	}
	return &AdvisoryLocker{pool: pool, local: local}
}

// Lock acquires pg_advisory_lock(channel_id) on a dedicated connection.
func (l *AdvisoryLocker) Lock(ctx context.Context, channelID int64) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, channelID)
	if err != nil {
		return nil, err
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		unlockLocal()
		return nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", channelID); err != nil {
		conn.Release()
		unlockLocal()
		return nil, fmt.Errorf("advisory lock %d: %w", channelID, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// unlock must run even if the caller's context is already done
			if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", channelID); err != nil {
				// a session lock dies with its connection
				_ = conn.Conn().Close(context.Background())
			}
			conn.Release()
			unlockLocal()
		})
	}, nil
}
