package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callbooker/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises commits for one admin across processes. It is advisory:
// the store's exclusion constraint stays the only correctness guarantee.
type Locker interface {
	Acquire(ctx context.Context, adminID int64) (release func(), err error)
}

var ErrLeaseTimeout = errors.New("booking: admin lease still held by another request")

// RedisLease is a per-admin Redis lease bounded by a TTL.
type RedisLease struct {
	rdb  redis.Scripter
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
}

func NewRedisLease(rdb redis.Scripter, ttl time.Duration) *RedisLease {
	return &RedisLease{rdb: rdb, ttl: ttl, wait: ttl, poll: 25 * time.Millisecond}
}

func leaseKey(adminID int64) string {
	return fmt.Sprintf("callbooker:lease:admin:%d", adminID)
}

func (l *RedisLease) Acquire(ctx context.Context, adminID int64) (func(), error) {
	key := leaseKey(adminID)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := utils.AcquireLease(ctx, l.rdb, key, owner, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Released even if the request context is gone.
				ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = utils.ReleaseLease(ctx, l.rdb, key, owner)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLeaseTimeout
		}

		t := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}
