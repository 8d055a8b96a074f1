package workflow

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle session is kept
const DefaultSessionTTL = 2 * time.Hour

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

// Manager keeps sessions by id and expires idle ones
type Manager struct {
	mu       sync.Mutex
	sessions *gocache.Cache
	ttl      time.Duration
	now      func() time.Time
}

// NewManager creates a manager with the given idle TTL
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		sessions: gocache.New(ttl, ttl/2),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts an empty session
func (m *Manager) Create() *Session {
	s := NewSession(uuid.NewString())
	s.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	m.sessions.Set(s.ID, s, m.ttl)
	m.mu.Unlock()

	return s.Clone()
}

// Get returns a copy of the session
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v.(*Session).Clone(), nil
}

// Update runs fn on a copy of the session and stores it when fn succeeds.
// The idle TTL restarts on every successful update.
func (m *Manager) Update(id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s := v.(*Session).Clone()
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = m.now().UTC()
	m.sessions.Set(id, s, m.ttl)

	return s.Clone(), nil
}

// Delete drops a session
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	m.sessions.Delete(id)
	m.mu.Unlock()
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}
