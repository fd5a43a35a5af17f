package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lewisedginton/support_relay/internal/storage"
	"github.com/lewisedginton/support_relay/pkg/logger"
)

// Store persists the relay state as a single JSON document through a
// FileProvider. There is no locking: the service is single-process and
// single-writer, and the read-modify-write window between two near
// simultaneous handlers is an accepted risk.
type Store struct {
	provider      storage.FileProvider
	path          string
	routeCapacity int
	log           logger.Logger
}

// New creates a store persisting to the given path within the provider.
func New(provider storage.FileProvider, path string, routeCapacity int, log logger.Logger) *Store {
	return &Store{
		provider:      provider,
		path:          path,
		routeCapacity: routeCapacity,
		log:           log,
	}
}

// Load reads the snapshot. A missing file yields a fresh empty state. An
// unreadable or corrupt file also yields a fresh empty state; corruption is
// logged but never fatal.
func (s *Store) Load(ctx context.Context) *State {
	data, err := s.provider.Read(ctx, s.path)
	if err != nil {
		if !os.IsNotExist(err) && !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("Failed to read state file, starting with empty state",
				logger.StringField("path", s.path),
				logger.ErrorField(err),
			)
		}
		return NewState(s.routeCapacity)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.log.Warn("State file is corrupt, starting with empty state",
			logger.StringField("path", s.path),
			logger.ErrorField(err),
		)
		return NewState(s.routeCapacity)
	}

	s.normalize(&state)
	return &state
}

// Save overwrites the snapshot wholesale. Last writer wins.
func (s *Store) Save(ctx context.Context, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.provider.Write(ctx, s.path, data); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// normalize backfills zero-value fields so a partially populated snapshot
// behaves like a fresh one.
func (s *Store) normalize(state *State) {
	if state.NextTicketID < 1 {
		state.NextTicketID = 1
	}
	if state.Tickets == nil {
		state.Tickets = make(map[int64]*Ticket)
	}
	if state.Users == nil {
		state.Users = make(map[int64]*UserMeta)
	}
	if state.Members == nil {
		state.Members = make(map[string]*MemberMeta)
	}
	if state.Cooldowns == nil {
		state.Cooldowns = make(map[int64]time.Time)
	}
	if state.Routes == nil {
		state.Routes = NewRouteIndex(s.routeCapacity)
	} else {
		state.Routes.SetCapacity(s.routeCapacity)
	}
}
