// Package syncer reconciles the local activity cache with the remote
// scheduling service.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"schedsync/internal/models"
	"schedsync/internal/store"
)

// DefaultFetchInterval bounds how often a reconcile is allowed to hit the
// remote service. Within the interval the cached snapshot is served as-is.
const DefaultFetchInterval = 600 * time.Second

// Fetcher returns all activity changes with a cursor greater than the
// given watermark. The server guarantees a total order on the cursor and
// never reuses a lower value for a newer change; the reconciler relies on
// that ordering as a precondition.
type Fetcher interface {
	FetchDelta(ctx context.Context, cursor string) (models.Delta, error)
}

// Locker is a cross-process lock around one reconcile cycle. A nil Locker
// disables cross-process exclusion.
type Locker interface {
	TryLock() (bool, error)
	Unlock() error
}

// Reconciler merges remote deltas into the local store. At most one
// reconcile runs per account at a time: an in-process mutex serializes
// calls, and the Locker keeps a second process from racing on the cursor.
type Reconciler struct {
	logger   *slog.Logger
	store    *store.Store
	fetcher  Fetcher
	lock     Locker
	interval time.Duration
	now      func() time.Time

	mu sync.Mutex
}

// New creates a Reconciler. A zero interval selects DefaultFetchInterval.
func New(logger *slog.Logger, st *store.Store, fetcher Fetcher, lock Locker, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultFetchInterval
	}
	return &Reconciler{
		logger:   logger,
		store:    st,
		fetcher:  fetcher,
		lock:     lock,
		interval: interval,
		now:      time.Now,
	}
}

// Reconcile brings the local activity set up to date for user and returns
// it. A remote failure is non-fatal: the last known-good local snapshot is
// returned alongside the error, and persisted state stays untouched.
func (r *Reconciler) Reconcile(ctx context.Context, user models.User) ([]models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activities, state := r.store.Load()

	// A different account's data must never survive a user switch.
	if state.OwnerID != user.ID {
		r.logger.Info("Cached schedule belongs to a different account, resetting.", "owner", state.OwnerID)
		if err := r.store.Reset(user.ID); err != nil {
			return nil, fmt.Errorf("failed to reset schedule store: %w", err)
		}
		activities, state = nil, models.SyncState{OwnerID: user.ID}
	}

	now := r.now()
	if now.Unix()-state.LastFetchEpoch <= int64(r.interval/time.Second) {
		r.logger.Debug("Last fetch is recent enough, serving cached schedule.", "count", len(activities))
		return activities, nil
	}

	if r.lock != nil {
		locked, err := r.lock.TryLock()
		if err != nil {
			return activities, fmt.Errorf("failed to acquire sync lock: %w", err)
		}
		if !locked {
			r.logger.Debug("Another reconcile is in flight, serving cached schedule.")
			return activities, nil
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				r.logger.Warn("Failed to release sync lock.", "error", err)
			}
		}()
	}

	delta, err := r.fetcher.FetchDelta(ctx, state.RecentCursor)
	if err != nil {
		return activities, fmt.Errorf("failed to fetch schedule delta: %w", err)
	}

	// The user may have switched accounts while the fetch was in flight.
	// A stale completion is discarded rather than merged.
	if _, current := r.store.Load(); current.OwnerID != user.ID {
		r.logger.Warn("Account changed during fetch, discarding stale delta.", "startedFor", user.ID)
		return nil, fmt.Errorf("account changed during reconciliation")
	}

	merged, cursor := mergeDelta(activities, delta, state.RecentCursor)

	// The fetch timestamp advances even on an empty delta so the rate limit
	// holds when nothing changed remotely.
	state.RecentCursor = cursor
	state.LastFetchEpoch = now.Unix()
	if err := r.store.Save(merged, state); err != nil {
		return activities, fmt.Errorf("failed to persist merged schedule: %w", err)
	}

	if delta.Empty() {
		r.logger.Debug("No remote changes since last reconcile.", "total", len(merged))
	} else {
		r.logger.Info("Reconciled schedule with remote.",
			"upserts", len(delta.Upserts), "removed", len(delta.RemovedIDs), "total", len(merged))
	}
	return merged, nil
}

// mergeDelta applies upserts and tombstones to the activity set and returns
// the advanced cursor. Upserts replace an existing entry by id or append;
// tombstone deletes are idempotent. The cursor advances to the highest
// Created value among the upserts, which by the server's ordering guarantee
// is the last one delivered; with no upserts it stays where it was.
func mergeDelta(activities []models.Activity, delta models.Delta, cursor string) ([]models.Activity, string) {
	merged := make([]models.Activity, len(activities))
	copy(merged, activities)

	for _, item := range delta.Upserts {
		replaced := false
		for i := range merged {
			if merged[i].ID == item.ID {
				merged[i] = item
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, item)
		}
		if item.Created != "" {
			cursor = item.Created
		}
	}

	if len(delta.RemovedIDs) > 0 {
		removed := make(map[string]bool, len(delta.RemovedIDs))
		for _, id := range delta.RemovedIDs {
			removed[id] = true
		}
		kept := merged[:0]
		for _, item := range merged {
			if !removed[item.ID] {
				kept = append(kept, item)
			}
		}
		merged = kept
	}

	return merged, cursor
}

// ApplyLocal records the outcome of a locally initiated mutation (create,
// update or delete confirmed by the server) without a remote fetch. Local
// writes are tentative: the next successful delta merge overwrites them,
// last-merge-wins by id.
func (r *Reconciler) ApplyLocal(user models.User, mutate func([]models.Activity, models.SyncState) ([]models.Activity, models.SyncState)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	activities, state := r.store.Load()
	if state.OwnerID != user.ID {
		if err := r.store.Reset(user.ID); err != nil {
			return fmt.Errorf("failed to reset schedule store: %w", err)
		}
		activities, state = nil, models.SyncState{OwnerID: user.ID}
	}
	activities, state = mutate(activities, state)
	return r.store.Save(activities, state)
}
