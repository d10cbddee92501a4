package assignments

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/installerz-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/installerz-backend/pkg/errors"
	"github.com/angelmondragon/installerz-backend/pkg/redis"
)

const installerLockScope = "installer"

// RedisInstallerLocker serializes scheduling per installer with SETNX locks.
// Locks are always taken in sorted installer-id order so two writers touching
// overlapping installer sets cannot deadlock each other.
type RedisInstallerLocker struct {
	store        redis.LockStore
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
}

// NewRedisInstallerLocker builds the locker from the scheduling config.
func NewRedisInstallerLocker(store redis.LockStore, cfg config.SchedulingConfig) (*RedisInstallerLocker, error) {
	if store == nil {
		return nil, fmt.Errorf("lock store required")
	}
	if cfg.InstallerLockTTL <= 0 {
		return nil, fmt.Errorf("installer lock ttl must be positive")
	}
	if cfg.InstallerLockWait <= 0 {
		return nil, fmt.Errorf("installer lock wait must be positive")
	}
	interval := cfg.InstallerLockInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &RedisInstallerLocker{
		store:        store,
		ttl:          cfg.InstallerLockTTL,
		wait:         cfg.InstallerLockWait,
		pollInterval: interval,
	}, nil
}

// AcquireAll implements InstallerLocker.
func (l *RedisInstallerLocker) AcquireAll(ctx context.Context, installerIDs []uuid.UUID) (func(), error) {
	ids := dedupeSorted(installerIDs)
	if len(ids) == 0 {
		return func() {}, nil
	}

	owner := uuid.NewString()
	acquired := make([]string, 0, len(ids))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			l.releaseKey(acquired[i], owner)
		}
	}

	deadline := time.Now().Add(l.wait)
	for _, id := range ids {
		key := l.store.LockKey(installerLockScope, id.String())
		if err := l.acquireKey(ctx, key, owner, deadline); err != nil {
			release()
			return nil, err
		}
		acquired = append(acquired, key)
	}
	return release, nil
}

func (l *RedisInstallerLocker) acquireKey(ctx context.Context, key, owner string, deadline time.Time) error {
	for {
		ok, err := l.store.SetNX(ctx, key, owner, l.ttl)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire installer lock")
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return pkgerrors.New(pkgerrors.CodeLockTimeout, "timed out waiting for installer lock").
				WithDetails(map[string]any{"lock_key": key})
		}
		select {
		case <-ctx.Done():
			return pkgerrors.Wrap(pkgerrors.CodeLockTimeout, ctx.Err(), "canceled waiting for installer lock")
		case <-time.After(l.pollInterval):
		}
	}
}

func (l *RedisInstallerLocker) releaseKey(key, owner string) {
	// Release must not inherit a canceled request context.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	value, err := l.store.Get(ctx, key)
	if err != nil || value != owner {
		return
	}
	_ = l.store.Del(ctx, key)
}

func dedupeSorted(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
