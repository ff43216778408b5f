// Package profile persists player profiles between sessions.
package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LemmyAI/arenasync/internal/game"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("profile not found")

// Profile is the persistent part of a player.
type Profile struct {
	ID             string
	Name           string
	Stats          game.PlayerStats
	SessionsJoined int
	UpdatedAt      time.Time
}

// Store loads and saves profiles.
type Store interface {
	Load(ctx context.Context, id string) (Profile, error)
	Save(ctx context.Context, p Profile) error
	Close() error
}

// MemoryStore keeps profiles in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]Profile)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) Save(_ context.Context, p Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

func (m *MemoryStore) Close() error { return nil }
