package game

import (
	"math"

	"go.uber.org/zap"
)

// firstLivingPlayer returns the earliest joined player that is alive.
func firstLivingPlayer(s *Session) *Player {
	var target *Player
	s.players.each(func(p *Player) bool {
		if p.Alive() {
			target = p
			return false
		}
		return true
	})
	return target
}

// updateEnemies runs one AI step for every living enemy.
func (e *Engine) updateEnemies(s *Session, dt float64) {
	s.enemies.each(func(en *Enemy) bool {
		if !en.Alive() {
			return true
		}
		target := firstLivingPlayer(s)
		if target == nil {
			en.Status = StatusIdle
			return true
		}

		offset := target.Position.Sub(en.Position)
		dist := math.Sqrt(offset.LenSq())

		switch {
		case dist <= en.Stats.AttackRange:
			en.Status = StatusAttacking
			en.Cooldown -= dt
			if en.Cooldown <= ttlEpsilon {
				applyDamage(&target.HP, en.Stats.Damage)
				en.Cooldown = en.Stats.AttackCooldown.Seconds()
				s.bump()
				if !target.Alive() {
					e.logger.Debug("player defeated",
						zap.String("session", s.ID), zap.String("player", target.ID), zap.String("by", en.ID))
				}
			}
		case dist <= en.Stats.DetectRange:
			en.Status = StatusChasing
			step := math.Min(en.Stats.Speed*dt, dist)
			en.Position = e.config.clampToWorld(en.Position.Add(offset.Normalize().Scale(step)))
		default:
			en.Status = StatusIdle
		}
		return true
	})
}
