// Package sessions holds the in-memory session store. A session is where
// the resolved tenant binding lives, so session lifetime bounds how long a
// stale binding can survive.
package sessions

import (
	"strings"
	"sync"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/domain/tenancy"
	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/security"
)

// Session tracks one client across requests.
type Session struct {
	ID           string
	Identity     string
	CreatedAt    time.Time
	LastAccessed time.Time

	mu      sync.RWMutex
	binding *tenancy.Binding
}

// Binding returns the cached tenant binding, or nil when unresolved.
func (s *Session) Binding() *tenancy.Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.binding
}

// SetBinding caches the resolved tenant binding on the session.
func (s *Session) SetBinding(b *tenancy.Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = b
}

// ClearBinding drops the cached binding, forcing re-resolution on the
// next request. Used when an operator deactivates or repairs a tenant.
func (s *Session) ClearBinding() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = nil
}

// SetIdentity swaps the session to a new identity. A changed identity
// invalidates the cached binding in the same critical section, so no
// request can pair the new identity with the old tenant.
func (s *Session) SetIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Identity == identity {
		return
	}
	s.Identity = identity
	s.binding = nil
}

// Store is a TTL-bounded session map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, minting a new one when id is
// empty or unknown. Touches the access time.
func (st *Store) GetOrCreate(id, identity string) *Session {
	if id != "" {
		if s := st.Get(id); s != nil {
			if identity != "" {
				s.SetIdentity(identity)
			}
			return s
		}
	}

	now := time.Now()
	s := &Session{
		ID:           security.GenerateULID(),
		Identity:     identity,
		CreatedAt:    now,
		LastAccessed: now,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session for id, or nil. Touches the access time under
// the store lock, the same lock EvictExpired reads it under.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sessions[id]
	if !exists {
		return nil
	}
	s.LastAccessed = time.Now()
	return s
}

// Delete removes a session.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// EvictExpired drops sessions idle past the TTL and returns the count.
func (st *Store) EvictExpired() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := time.Now().Add(-st.ttl)
	evicted := 0
	for id, s := range st.sessions {
		if s.LastAccessed.Before(cutoff) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

// ClearBindingsFor drops the cached binding on every session bound to the
// given tenant code. Codes compare case-insensitively; bindings store
// them lowercase but callers pass operator input.
func (st *Store) ClearBindingsFor(code string) int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	cleared := 0
	for _, s := range st.sessions {
		if b := s.Binding(); b != nil && strings.EqualFold(b.TenantCode, code) {
			s.ClearBinding()
			cleared++
		}
	}
	return cleared
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
