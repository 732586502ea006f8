// Package memory provides an in-process session tally store for
// single-instance deployments and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
)

type tallyEntry struct {
	tally     domain.SessionTally
	expiresAt time.Time
}

// TallyStore implements store.SessionTallyStore with a mutex-guarded map.
// Expired tallies behave as missing. They are dropped when looked up, and
// Create sweeps the whole map at most once per ttl so abandoned sessions
// are released too.
type TallyStore struct {
	mu        sync.Mutex
	tallies   map[uuid.UUID]*tallyEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewTallyStore creates an empty store.
// A non-positive ttl keeps tallies until they are taken.
func NewTallyStore(ttl time.Duration) *TallyStore {
	return &TallyStore{
		tallies: make(map[uuid.UUID]*tallyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Ensure TallyStore implements store.SessionTallyStore interface
var _ store.SessionTallyStore = (*TallyStore)(nil)

// Create implements store.SessionTallyStore.Create
func (s *TallyStore) Create(_ context.Context, tally *domain.SessionTally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &tallyEntry{tally: *tally}
	if s.ttl > 0 {
		now := s.now()
		if !now.Before(s.nextSweep) {
			s.sweep()
			s.nextSweep = now.Add(s.ttl)
		}
		entry.expiresAt = now.Add(s.ttl)
	}
	s.tallies[tally.ID] = entry
	return nil
}

// Get implements store.SessionTallyStore.Get
func (s *TallyStore) Get(_ context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := entry.tally
	return &snapshot, nil
}

// Increment implements store.SessionTallyStore.Increment
func (s *TallyStore) Increment(_ context.Context, sessionID uuid.UUID, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	entry.tally.Record(wasCorrect)
	return nil
}

// Take implements store.SessionTallyStore.Take
func (s *TallyStore) Take(_ context.Context, sessionID uuid.UUID) (*domain.SessionTally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	delete(s.tallies, sessionID)
	taken := entry.tally
	return &taken, nil
}

// lookup returns the live entry for sessionID. Callers must hold mu.
func (s *TallyStore) lookup(sessionID uuid.UUID) (*tallyEntry, error) {
	entry, ok := s.tallies[sessionID]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	if s.expired(entry) {
		delete(s.tallies, sessionID)
		return nil, store.ErrSessionNotFound
	}
	return entry, nil
}

// sweep drops every expired entry. Callers must hold mu.
func (s *TallyStore) sweep() {
	for id, entry := range s.tallies {
		if s.expired(entry) {
			delete(s.tallies, id)
		}
	}
}

func (s *TallyStore) expired(entry *tallyEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}
