package game

import (
	"math"

	"go.uber.org/zap"
)

// Session returns a session by id.
func (e *Engine) Session(id string) (*Session, bool) {
	return e.store.Get(id)
}

// SessionCount returns the number of live sessions.
func (e *Engine) SessionCount() int {
	return e.store.Len()
}

// Join adds a player to a session, creating and populating the session on
// first use. Joining twice returns the player already in the session.
func (e *Engine) Join(sessionID, playerID, name string, stats PlayerStats) (Player, bool) {
	var spawns []resolvedSpawn
	if _, ok := e.store.Get(sessionID); !ok {
		spawns = e.resolveSpawns()
	}
	s, created := e.store.GetOrCreate(sessionID, func() *Session {
		s := newSession(sessionID, e.clock.Now())
		if spawns == nil {
			spawns = e.resolveSpawns()
		}
		s.spawns = spawns
		e.populate(s)
		return s
	})
	if created {
		e.logger.Info("🆕 Session created",
			zap.String("session", sessionID), zap.Int("enemies", len(spawns)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.players.get(playerID); existing != nil {
		return *existing, false
	}

	p := NewPlayer(playerID, name, e.config.PlayerSpawn, stats)
	s.players.put(p.ID, p)
	s.bump()

	e.logger.Info("✅ Player joined",
		zap.String("session", sessionID), zap.String("player", p.ID), zap.String("name", name),
		zap.Float64("x", p.Position.X), zap.Float64("y", p.Position.Y))
	return *p, true
}

// Leave removes a player and the projectiles it still has in flight.
func (e *Engine) Leave(sessionID, playerID string) error {
	s, ok := e.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.players.get(playerID) == nil {
		return ErrPlayerNotFound
	}
	s.players.remove(map[string]struct{}{playerID: {}})

	owned := make(map[string]struct{})
	s.projectiles.each(func(p *Projectile) bool {
		if p.OwnerID == playerID {
			owned[p.ID] = struct{}{}
		}
		return true
	})
	s.projectiles.remove(owned)
	v := s.bump()

	e.logger.Info("👋 Player left",
		zap.String("session", sessionID), zap.String("player", playerID), zap.Uint64("version", v))
	return nil
}

// Reset returns a session to its freshly populated state: players and
// projectiles are dropped and enemies recreated with freshly looked up
// stats. The version keeps counting up so pollers see the change.
func (e *Engine) Reset(sessionID string) error {
	s, ok := e.store.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	spawns := e.resolveSpawns()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.players.reset()
	s.projectiles.reset()
	s.spawns = spawns
	e.populate(s)
	v := s.bump()

	e.logger.Info("♻️ Session reset", zap.String("session", sessionID), zap.Uint64("version", v))
	return nil
}

// ReportDamage applies damage reported outside the tick, such as
// environmental hazards detected by a client.
func (e *Engine) ReportDamage(sessionID, playerID string, amount float64) (Player, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Player{}, ErrInvalidAmount
	}
	return e.mutatePlayer(sessionID, playerID, func(p *Player) {
		applyDamage(&p.HP, amount)
	})
}

// Respawn restores a player to full health at the spawn point.
func (e *Engine) Respawn(sessionID, playerID string) (Player, error) {
	return e.mutatePlayer(sessionID, playerID, func(p *Player) {
		p.HP = p.Stats.MaxHP
		p.Position = e.config.PlayerSpawn
	})
}

func (e *Engine) mutatePlayer(sessionID, playerID string, fn func(*Player)) (Player, error) {
	s, ok := e.store.Get(sessionID)
	if !ok {
		return Player{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.get(playerID)
	if p == nil {
		return Player{}, ErrPlayerNotFound
	}
	fn(p)
	s.bump()
	return *p, nil
}
