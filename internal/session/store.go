package session

import (
	"sync"
	"sync/atomic"
	"time"

	"interviewai/internal/errors"

	"github.com/google/uuid"
)

// entry holds one session. action serializes wizard actions, which may wait
// on a model call; state guards the committed snapshot so reads never wait
// for an action to finish.
type entry struct {
	action     sync.Mutex
	state      sync.RWMutex
	session    *Session
	lastAccess atomic.Int64
}

func (e *entry) snapshot() *Session {
	e.state.RLock()
	defer e.state.RUnlock()
	return e.session.Clone()
}

func (e *entry) commit(sess *Session) {
	e.state.Lock()
	e.session = sess
	e.state.Unlock()
}

func (e *entry) markAccess() {
	e.lastAccess.Store(time.Now().UnixNano())
}

// Store keeps one isolated session per user in memory.
// Callers only ever receive copies.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ttl    time.Duration
	logger *errors.Logger

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store. When ttl and cleanupInterval are positive a
// background sweep removes sessions idle longer than ttl until Close.
func NewStore(ttl, cleanupInterval time.Duration, logger *errors.Logger) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	if ttl > 0 && cleanupInterval > 0 {
		go s.sweepLoop(cleanupInterval)
	} else {
		close(s.doneCh)
	}
	return s
}

// Create starts a new session with a fresh ID.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString())
	e := &entry{session: sess}
	e.markAccess()

	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("Session created", "session_id", sess.ID)
	}
	return sess.Clone()
}

// GetOrCreate returns the session for id, creating a new one when id is
// empty, malformed or unknown. The second value reports creation.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, err := s.Get(id); err == nil {
			return sess, false
		}
	}
	return s.Create(), true
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"session not found or expired, please start again", nil).WithContext("session_id", id)
	}
	return e, nil
}

// Get returns a copy of the last committed state. It does not wait for an
// action in progress.
func (s *Store) Get(id string) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.markAccess()
	return e.snapshot(), nil
}

// Update runs fn on a copy of the session while holding its lock, so only one
// action runs per session at a time. The copy is stored only when fn succeeds.
// The returned session reflects the stored state either way.
func (s *Store) Update(id string, fn func(*Session) error) (*Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.action.Lock()
	defer e.action.Unlock()
	e.markAccess()

	working := e.snapshot()
	if err := fn(working); err != nil {
		return e.snapshot(), err
	}
	e.commit(working)
	e.markAccess()
	return working.Clone(), nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// CountByStage counts live sessions per committed stage.
func (s *Store) CountByStage() map[Stage]int {
	counts := make(map[Stage]int)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		e.state.RLock()
		counts[e.session.Stage]++
		e.state.RUnlock()
	}
	return counts
}

// Stats describes the store for the stats endpoint.
func (s *Store) Stats() map[string]any {
	return map[string]any{
		"active":   s.Len(),
		"by_stage": s.CountByStage(),
		"ttl":      s.ttl.String(),
	}
}

// Sweep removes sessions idle longer than the TTL and returns how many were removed.
// Sessions with an action in progress are skipped.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-s.ttl).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if e.lastAccess.Load() >= cutoff {
			continue
		}
		if !e.action.TryLock() {
			continue
		}
		delete(s.entries, id)
		e.action.Unlock()
		removed++
	}
	return removed
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer close(s.doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 && s.logger != nil {
				s.logger.Info("Expired idle sessions", "removed", removed, "remaining", s.Len())
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the background sweep. It is safe to call more than once.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
	return nil
}
