package draft

import (
	"sync"

	"github.com/google/uuid"
)

// Manager owns the in-flight draft sessions. Each session holds exactly one
// draft, identified by an opaque id handed to the client; a draft is owned by
// its session and never shared between two.
type Manager struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewManager() *Manager {
	return &Manager{drafts: make(map[string]Draft)}
}

// Put stores a freshly seeded draft and returns its session id.
func (m *Manager) Put(d Draft) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.drafts[id] = d
	m.mu.Unlock()
	return id
}

func (m *Manager) Get(id string) (Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, ErrSessionGone
	}
	return d, nil
}

// Update applies fn to the session's draft under the manager lock and stores
// the result. The error from fn is returned unchanged and leaves the stored
// draft as it was.
func (m *Manager) Update(id string, fn func(Draft) (Draft, error)) (Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return Draft{}, ErrSessionGone
	}
	next, err := fn(d)
	if err != nil {
		return d, err
	}
	m.drafts[id] = next
	return next, nil
}

// Discard drops the session without persistence side effects. Commit calls
// this only after a successful save, so a failed save leaves the draft
// editable.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	delete(m.drafts, id)
	m.mu.Unlock()
}
