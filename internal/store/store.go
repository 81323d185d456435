// Package store persists the local activity set and its sync bookkeeping.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"schedsync/internal/models"
)

// scheduleKey names the single record holding both the activity set and the
// SyncState. Keeping them in one record makes Save an atomic replace of
// both: a partial write can never pair a new cursor with an old schedule.
const scheduleKey = "schedule"

type snapshot struct {
	Activities []models.Activity `json:"activities"`
	SyncState  models.SyncState  `json:"syncState"`
}

// Store is the durable mapping from activity id to activity record, plus
// the per-account SyncState. It never touches the network.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New returns a Store persisting through the given backend.
func New(logger *slog.Logger, backend Backend) *Store {
	return &Store{backend: backend, logger: logger}
}

// Load reads the persisted activity set and SyncState. An absent or corrupt
// record yields an empty set and a zero SyncState, never an error: the
// reconciler treats unreadable local state as "never synced".
func (s *Store) Load() ([]models.Activity, models.SyncState) {
	data, err := s.backend.Get(scheduleKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Could not read schedule record, starting empty.", "error", err)
		}
		return nil, models.SyncState{}
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Schedule record is corrupt, starting empty.", "error", err)
		return nil, models.SyncState{}
	}
	return snap.Activities, snap.SyncState
}

// Save atomically replaces the persisted activity set and SyncState.
func (s *Store) Save(activities []models.Activity, state models.SyncState) error {
	data, err := json.MarshalIndent(snapshot{Activities: activities, SyncState: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	return s.backend.Set(scheduleKey, data)
}

// Reset discards all cached activities and starts fresh bookkeeping for
// ownerID. It is called whenever the authenticated user changes, so one
// account can never observe another account's cached data.
func (s *Store) Reset(ownerID string) error {
	return s.Save(nil, models.SyncState{OwnerID: ownerID})
}
