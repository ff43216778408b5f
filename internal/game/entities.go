package game

// EnemyStatus is the AI state of an enemy.
type EnemyStatus int

const (
	StatusIdle EnemyStatus = iota
	StatusChasing
	StatusAttacking
)

func (s EnemyStatus) String() string {
	switch s {
	case StatusChasing:
		return "chasing"
	case StatusAttacking:
		return "attacking"
	default:
		return "idle"
	}
}

// Player is a participant in a session. Players are never removed from a
// session by the tick; a defeated player stays at 0 HP.
type Player struct {
	ID        string
	Name      string
	Position  Vec2
	HP        float64
	Stats     PlayerStats
	LastInput uint64 // Highest input sequence applied so far
}

// Alive reports whether the player has hit points left.
func (p *Player) Alive() bool { return p.HP > 0 }

// NewPlayer creates a player at pos with full health.
func NewPlayer(id, name string, pos Vec2, stats PlayerStats) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Position: pos,
		HP:       stats.MaxHP,
		Stats:    stats,
	}
}

// Enemy is an AI controlled opponent.
type Enemy struct {
	ID       string
	Position Vec2
	HP       float64
	Stats    EnemyStats
	Status   EnemyStatus
	Cooldown float64 // Seconds until the next attack may land
}

// Alive reports whether the enemy has hit points left.
func (e *Enemy) Alive() bool { return e.HP > 0 }

// Projectile is a shot travelling in a straight line.
type Projectile struct {
	ID        string
	OwnerID   string
	Position  Vec2
	Direction Vec2 // Unit vector
	Speed     float64
	Damage    float64
	Radius    float64
	TTL       float64 // Seconds of flight left
}

// InputCommand is the latest input received from a player. It lives only
// until the next tick consumes it.
type InputCommand struct {
	PlayerID  string
	SessionID string
	Move      Vec2
	Aim       Vec2
	Attack    bool
	Shoot     bool
	Sequence  uint64
}

// Sanitized returns a copy with move and aim clamped per axis to [-1, 1].
func (c InputCommand) Sanitized() InputCommand {
	c.Move = ClampAxis(c.Move)
	c.Aim = ClampAxis(c.Aim)
	return c
}

func applyDamage(hp *float64, amount float64) {
	*hp -= amount
	if *hp < 0 {
		*hp = 0
	}
}
