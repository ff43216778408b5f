package game

import "go.uber.org/zap"

// ttlEpsilon absorbs the rounding left after subtracting tick deltas.
const ttlEpsilon = 1e-9

// resolveMelee applies each attacking player's damage to the first living
// enemy within melee range. Enemies are scanned in creation order; this is
// not a nearest-enemy search.
func (e *Engine) resolveMelee(s *Session, actions []playerAction) {
	for _, a := range actions {
		if !a.cmd.Attack {
			continue
		}
		p := a.player
		rangeSq := p.Stats.MeleeRange * p.Stats.MeleeRange

		s.enemies.each(func(en *Enemy) bool {
			if !en.Alive() || p.Position.DistSq(en.Position) > rangeSq {
				return true
			}
			applyDamage(&en.HP, p.Stats.Damage)
			if kb := p.Stats.KnockbackDistance; kb > 0 {
				push := en.Position.Sub(p.Position).Normalize()
				en.Position = e.config.clampToWorld(en.Position.Add(push.Scale(kb)))
			}
			s.bump()
			if !en.Alive() {
				e.logger.Debug("enemy defeated",
					zap.String("session", s.ID), zap.String("enemy", en.ID), zap.String("by", p.ID))
			}
			return false
		})
	}
}

// fireDirection prefers aim, then movement, then the configured default.
func (e *Engine) fireDirection(cmd InputCommand) Vec2 {
	for _, v := range []Vec2{cmd.Aim, cmd.Move, e.config.DefaultFireDir} {
		if dir := v.Normalize(); !dir.IsZero() {
			return dir
		}
	}
	return Vec2{X: 1}
}

func (e *Engine) spawnProjectiles(s *Session, actions []playerAction) {
	for _, a := range actions {
		if !a.cmd.Shoot {
			continue
		}
		id := newID()
		s.projectiles.put(id, &Projectile{
			ID:        id,
			OwnerID:   a.player.ID,
			Position:  a.player.Position,
			Direction: e.fireDirection(a.cmd),
			Speed:     e.config.ProjectileSpeed,
			Damage:    a.player.Stats.Damage,
			Radius:    e.config.ProjectileRadius,
			TTL:       e.config.ProjectileTTL.Seconds(),
		})
		s.bump()
	}
}

// updateProjectiles moves every projectile, resolves its first hit and
// removes the ones that hit something or ran out of time.
func (e *Engine) updateProjectiles(s *Session, dt float64) {
	if s.projectiles.len() == 0 {
		return
	}
	done := make(map[string]struct{})

	s.projectiles.each(func(pr *Projectile) bool {
		pr.Position = pr.Position.Add(pr.Direction.Scale(pr.Speed * dt))
		pr.TTL -= dt

		hitSq := pr.Radius*pr.Radius + e.config.ProjectileHitPad
		s.enemies.each(func(en *Enemy) bool {
			if !en.Alive() || pr.Position.DistSq(en.Position) > hitSq {
				return true
			}
			applyDamage(&en.HP, pr.Damage)
			done[pr.ID] = struct{}{}
			return false
		})

		if pr.TTL <= ttlEpsilon {
			done[pr.ID] = struct{}{}
		}
		return true
	})

	if len(done) > 0 {
		s.projectiles.remove(done)
		s.bump()
	}
}
