package postsale

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultSessionTTL bounds how long an unresolved workflow stays around
// after the terminal stopped interacting with it.
const defaultSessionTTL = 30 * time.Minute

// Registry holds the open workflow sessions in memory, keyed by sale.
// Sessions are small and short-lived; expired ones are swept on access.
type Registry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry builds a session registry. A non-positive ttl uses the
// default.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Put stores a session, replacing any previous one for the same sale.
func (r *Registry) Put(session *Session) {
	if session == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	r.sessions[session.SaleID] = session
}

// Get returns the live session for a sale, if any.
func (r *Registry) Get(saleID uuid.UUID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	session, ok := r.sessions[saleID]
	return session, ok
}

// Delete removes a session.
func (r *Registry) Delete(saleID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, saleID)
}

// Len reports how many sessions are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.sessions)
}

func (r *Registry) sweepLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, session := range r.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
