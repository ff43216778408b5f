package game

import "time"

// PlayerView is a player as seen in a snapshot.
type PlayerView struct {
	ID       string
	Name     string
	Position Vec2
	HP       float64
	MaxHP    float64
	Sequence uint64
}

// EnemyView is an enemy as seen in a snapshot.
type EnemyView struct {
	ID       string
	Type     string
	Position Vec2
	HP       float64
	MaxHP    float64
	Status   string
}

// ProjectileView is a projectile as seen in a snapshot.
type ProjectileView struct {
	ID        string
	OwnerID   string
	Position  Vec2
	Direction Vec2
	Radius    float64
}

// Snapshot is the complete state of a session at Version.
type Snapshot struct {
	SessionID   string
	Version     uint64
	Timestamp   time.Time
	Players     []PlayerView
	Enemies     []EnemyView
	Projectiles []ProjectileView
}

// Snapshot returns the full state of a session. When since is non-nil and
// the session has not advanced past it, changed is false and the snapshot
// is empty.
func (e *Engine) Snapshot(sessionID string, since *uint64) (snap Snapshot, changed bool, err error) {
	s, ok := e.store.Get(sessionID)
	if !ok {
		return Snapshot{}, false, ErrSessionNotFound
	}
	// Cheap fence check before taking the lock.
	if since != nil && s.Version() <= *since {
		return Snapshot{}, false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	version := s.Version()
	if since != nil && version <= *since {
		return Snapshot{}, false, nil
	}

	snap = Snapshot{
		SessionID:   s.ID,
		Version:     version,
		Timestamp:   e.clock.Now(),
		Players:     make([]PlayerView, 0, s.players.len()),
		Enemies:     make([]EnemyView, 0, s.enemies.len()),
		Projectiles: make([]ProjectileView, 0, s.projectiles.len()),
	}
	s.players.each(func(p *Player) bool {
		snap.Players = append(snap.Players, PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			Position: p.Position,
			HP:       p.HP,
			MaxHP:    p.Stats.MaxHP,
			Sequence: p.LastInput,
		})
		return true
	})
	s.enemies.each(func(en *Enemy) bool {
		snap.Enemies = append(snap.Enemies, EnemyView{
			ID:       en.ID,
			Type:     en.Stats.Type,
			Position: en.Position,
			HP:       en.HP,
			MaxHP:    en.Stats.MaxHP,
			Status:   en.Status.String(),
		})
		return true
	})
	s.projectiles.each(func(pr *Projectile) bool {
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID:        pr.ID,
			OwnerID:   pr.OwnerID,
			Position:  pr.Position,
			Direction: pr.Direction,
			Radius:    pr.Radius,
		})
		return true
	})
	return snap, true, nil
}
