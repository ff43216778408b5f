package game

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// SessionStore maps session ids to sessions. Implementations must be safe
// for concurrent use without locking by callers.
type SessionStore interface {
	Get(id string) (*Session, bool)
	// GetOrCreate returns the stored session, or stores and returns the
	// result of create. created reports whether create was used.
	GetOrCreate(id string, create func() *Session) (s *Session, created bool)
	Delete(id string)
	// Range calls fn for every session until fn returns false.
	Range(fn func(*Session) bool)
	Len() int
}

// MapStore is the production SessionStore backed by a concurrent hash map.
// Reads never block on writers of unrelated sessions.
type MapStore struct {
	sessions *xsync.MapOf[string, *Session]
}

// NewSessionStore creates an empty MapStore.
func NewSessionStore() *MapStore {
	return &MapStore{sessions: xsync.NewMapOf[string, *Session]()}
}

func (m *MapStore) Get(id string) (*Session, bool) {
	return m.sessions.Load(id)
}

func (m *MapStore) GetOrCreate(id string, create func() *Session) (*Session, bool) {
	s, loaded := m.sessions.LoadOrCompute(id, create)
	return s, !loaded
}

func (m *MapStore) Delete(id string) {
	m.sessions.Delete(id)
}

func (m *MapStore) Range(fn func(*Session) bool) {
	m.sessions.Range(func(_ string, s *Session) bool {
		return fn(s)
	})
}

func (m *MapStore) Len() int {
	return m.sessions.Size()
}

// OrderedStore is a SessionStore that iterates in creation order. It exists
// for tests and tools that need a deterministic session order.
type OrderedStore struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	order []string
}

// NewOrderedSessionStore creates an empty OrderedStore.
func NewOrderedSessionStore() *OrderedStore {
	return &OrderedStore{byID: make(map[string]*Session)}
}

func (o *OrderedStore) Get(id string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.byID[id]
	return s, ok
}

func (o *OrderedStore) GetOrCreate(id string, create func() *Session) (*Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.byID[id]; ok {
		return s, false
	}
	s := create()
	o.byID[id] = s
	o.order = append(o.order, id)
	return s, true
}

func (o *OrderedStore) Delete(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.byID[id]; !ok {
		return
	}
	delete(o.byID, id)
	for i, sid := range o.order {
		if sid == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

func (o *OrderedStore) Range(fn func(*Session) bool) {
	o.mu.RLock()
	sessions := make([]*Session, 0, len(o.order))
	for _, id := range o.order {
		sessions = append(sessions, o.byID[id])
	}
	o.mu.RUnlock()

	for _, s := range sessions {
		if !fn(s) {
			return
		}
	}
}

func (o *OrderedStore) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.byID)
}
