// Package game implements the authoritative game engine.
package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// entities is an id-keyed map that remembers insertion order, so "the first
// enemy in range" means the same enemy on every run.
type entities[T any] struct {
	byID  map[string]*T
	order []string
}

func newEntities[T any]() entities[T] {
	return entities[T]{byID: make(map[string]*T)}
}

func (e *entities[T]) put(id string, v *T) {
	if _, ok := e.byID[id]; !ok {
		e.order = append(e.order, id)
	}
	e.byID[id] = v
}

func (e *entities[T]) get(id string) *T { return e.byID[id] }

func (e *entities[T]) remove(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	kept := e.order[:0]
	for _, id := range e.order {
		if _, drop := ids[id]; drop {
			delete(e.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	e.order = kept
}

func (e *entities[T]) each(fn func(*T) bool) {
	for _, id := range e.order {
		if !fn(e.byID[id]) {
			return
		}
	}
}

func (e *entities[T]) len() int { return len(e.order) }

func (e *entities[T]) reset() {
	e.byID = make(map[string]*T)
	e.order = e.order[:0]
}

// Session is one isolated game instance.
type Session struct {
	ID string

	mu          sync.RWMutex
	version     atomic.Uint64
	createdAt   time.Time
	players     entities[Player]
	enemies     entities[Enemy]
	projectiles entities[Projectile]

	// spawns is the resolved spawn table repopulation draws from.
	spawns []resolvedSpawn

	// Seconds since the last living enemy fell; negative while any is alive.
	clearedFor float64
}

func newSession(id string, now time.Time) *Session {
	s := &Session{
		ID:          id,
		createdAt:   now,
		players:     newEntities[Player](),
		enemies:     newEntities[Enemy](),
		projectiles: newEntities[Projectile](),
		clearedFor:  -1,
	}
	s.version.Store(1)
	return s
}

// Version returns the current state version. It never decreases.
func (s *Session) Version() uint64 { return s.version.Load() }

func (s *Session) bump() uint64 { return s.version.Add(1) }

// PlayerCount returns the number of players in the session.
func (s *Session) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.len()
}

// Player returns a copy of a player.
func (s *Session) Player(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.players.get(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Enemies returns copies of all enemies in creation order.
func (s *Session) Enemies() []Enemy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Enemy, 0, s.enemies.len())
	s.enemies.each(func(e *Enemy) bool {
		out = append(out, *e)
		return true
	})
	return out
}

// Projectiles returns copies of all live projectiles in creation order.
func (s *Session) Projectiles() []Projectile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Projectile, 0, s.projectiles.len())
	s.projectiles.each(func(p *Projectile) bool {
		out = append(out, *p)
		return true
	})
	return out
}

func (s *Session) anyEnemyAlive() bool {
	alive := false
	s.enemies.each(func(e *Enemy) bool {
		alive = e.Alive()
		return !alive
	})
	return alive
}
