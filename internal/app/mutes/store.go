// Package mutes implements the persistent mute list plugin: an ordered,
// identity-keyed store, role-gated commands to mutate it, and a chat
// policy that suppresses messages from muted identities.
package mutes

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Warden/internal/domain"
)

// ErrCorruptSnapshot reports that a persisted blob could not be decoded.
// The store recovers to empty; the error is for the host to log.
var ErrCorruptSnapshot = errors.New("corrupt mute snapshot")

// Entry is one muted identity plus the public attributes it had at mute
// time, kept so the list can still show a name after the player leaves.
type Entry struct {
	Auth     domain.Auth
	Snapshot domain.Snapshot
}

// Sink receives the freshly serialized store after every successful
// mutation (write-through). Sink failures are logged, never surfaced to
// the caller of the mutation.
type Sink func(blob string) error

// Store is an ordered mapping from identity token to snapshot. A token
// appears at most once; iteration order is insertion order. Store is not
// safe for concurrent use: the room's event loop owns it and serializes
// every access.
type Store struct {
	order   []domain.Auth
	entries map[domain.Auth]domain.Snapshot
	sink    Sink
}

func NewStore(sink Sink) *Store {
	return &Store{
		entries: make(map[domain.Auth]domain.Snapshot),
		sink:    sink,
	}
}

// Add inserts or updates the entry for auth. Re-muting an already-muted
// identity refreshes the snapshot in place, keeping its original position
// so list indices stay stable.
func (s *Store) Add(auth domain.Auth, snap domain.Snapshot) {
	if _, ok := s.entries[auth]; !ok {
		s.order = append(s.order, auth)
	}
	s.entries[auth] = snap
	s.writeThrough()
}

// RemoveByIdentity removes and returns the entry for auth, if present.
func (s *Store) RemoveByIdentity(auth domain.Auth) (Entry, bool) {
	snap, ok := s.entries[auth]
	if !ok {
		return Entry{}, false
	}
	delete(s.entries, auth)
	for i, a := range s.order {
		if a == auth {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.writeThrough()
	return Entry{Auth: auth, Snapshot: snap}, true
}

// RemoveByIndex removes and returns the i-th entry in current iteration
// order (0-based). Indices compact after a removal.
func (s *Store) RemoveByIndex(i int) (Entry, bool) {
	if i < 0 || i >= len(s.order) {
		return Entry{}, false
	}
	auth := s.order[i]
	snap := s.entries[auth]
	delete(s.entries, auth)
	s.order = append(s.order[:i], s.order[i+1:]...)
	s.writeThrough()
	return Entry{Auth: auth, Snapshot: snap}, true
}

func (s *Store) Has(auth domain.Auth) bool {
	_, ok := s.entries[auth]
	return ok
}

func (s *Store) Len() int { return len(s.order) }

// Clear empties the store. It writes through like every other mutation.
func (s *Store) Clear() {
	s.order = nil
	s.entries = make(map[domain.Auth]domain.Snapshot)
	s.writeThrough()
}

// ListOrdered returns the entries in insertion order. The slice is a
// snapshot; mutating it does not affect the store.
func (s *Store) ListOrdered() []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, auth := range s.order {
		out = append(out, Entry{Auth: auth, Snapshot: s.entries[auth]})
	}
	return out
}

// Serialize encodes the full store as a JSON token->snapshot object.
// Round-trips through Restore.
func (s *Store) Serialize() (string, error) {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Restore replaces the store with the decoded blob. A nil blob means
// nothing was persisted and leaves the store untouched. A malformed blob
// resets the store to empty and returns ErrCorruptSnapshot: the room must
// come up, and silent partial state is worse than a clean slate.
func (s *Store) Restore(blob *string) error {
	if blob == nil {
		return nil
	}
	decoded := make(map[domain.Auth]domain.Snapshot)
	if err := json.Unmarshal([]byte(*blob), &decoded); err != nil {
		s.order = nil
		s.entries = make(map[domain.Auth]domain.Snapshot)
		return ErrCorruptSnapshot
	}
	s.entries = decoded
	// JSON objects carry no order; restored entries are listed by token
	// so iteration stays deterministic.
	s.order = make([]domain.Auth, 0, len(decoded))
	for auth := range decoded {
		s.order = append(s.order, auth)
	}
	slices.Sort(s.order)
	return nil
}

func (s *Store) writeThrough() {
	if s.sink == nil {
		return
	}
	blob, err := s.Serialize()
	if err != nil {
		log.Error().Err(err).Str("module", "mutes.store").Msg("serialize for write-through")
		return
	}
	if err := s.sink(blob); err != nil {
		log.Error().Err(err).Str("module", "mutes.store").Msg("write-through failed")
	}
}
