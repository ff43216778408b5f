package game

import "time"

// PlayerStats are the combat and movement stats a player is created with.
type PlayerStats struct {
	MaxHP             float64 `json:"max_hp" yaml:"max_hp"`
	Damage            float64 `json:"damage" yaml:"damage"`
	MeleeRange        float64 `json:"melee_range" yaml:"melee_range"`
	Speed             float64 `json:"speed" yaml:"speed"`
	KnockbackDistance float64 `json:"knockback_distance" yaml:"knockback_distance"`
}

// EnemyStats describe one enemy type.
type EnemyStats struct {
	Type           string        `json:"type" yaml:"type"`
	MaxHP          float64       `json:"max_hp" yaml:"max_hp"`
	Damage         float64       `json:"damage" yaml:"damage"`
	Speed          float64       `json:"speed" yaml:"speed"`
	DetectRange    float64       `json:"detect_range" yaml:"detect_range"`
	AttackRange    float64       `json:"attack_range" yaml:"attack_range"`
	AttackCooldown time.Duration `json:"attack_cooldown" yaml:"attack_cooldown"`
}

// EnemySpawn places one enemy of Type when a session is populated.
type EnemySpawn struct {
	Type     string `yaml:"type"`
	Position Vec2   `yaml:"position"`
}

// Config holds game engine configuration.
type Config struct {
	TickRate        int     // Ticks per second (default: 20)
	WorldHalfExtent float64 // Positions are clamped to [-h, h] on both axes
	PlayerSpawn     Vec2
	DefaultFireDir  Vec2 // Used when a shot carries neither aim nor movement

	ProjectileSpeed  float64
	ProjectileRadius float64
	ProjectileTTL    time.Duration
	ProjectileHitPad float64 // Added to radius² to cover the enemy body

	// RepopulateDelay is how long a fully defeated session waits before its
	// enemies are recreated. Zero disables repopulation.
	RepopulateDelay time.Duration

	PlayerBase  PlayerStats
	EnemyTypes  map[string]EnemyStats
	EnemySpawns []EnemySpawn
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickRate:         20,
		WorldHalfExtent:  50,
		PlayerSpawn:      Vec2{},
		DefaultFireDir:   Vec2{X: 1},
		ProjectileSpeed:  12,
		ProjectileRadius: 0.3,
		ProjectileTTL:    2 * time.Second,
		ProjectileHitPad: 0.25,
		RepopulateDelay:  10 * time.Second,
		PlayerBase: PlayerStats{
			MaxHP:             100,
			Damage:            10,
			MeleeRange:        1.5,
			Speed:             4,
			KnockbackDistance: 0.5,
		},
		EnemyTypes: map[string]EnemyStats{
			"slime": {
				Type:           "slime",
				MaxHP:          30,
				Damage:         4,
				Speed:          1.5,
				DetectRange:    5,
				AttackRange:    1,
				AttackCooldown: time.Second,
			},
			"goblin": {
				Type:           "goblin",
				MaxHP:          50,
				Damage:         6,
				Speed:          2,
				DetectRange:    6,
				AttackRange:    1.2,
				AttackCooldown: 800 * time.Millisecond,
			},
		},
		EnemySpawns: []EnemySpawn{
			{Type: "goblin", Position: Vec2{X: 2, Y: 2}},
			{Type: "slime", Position: Vec2{X: -6, Y: 4}},
			{Type: "slime", Position: Vec2{X: 8, Y: -5}},
		},
	}
}

// TickInterval is the fixed period between ticks.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return 50 * time.Millisecond
	}
	return time.Second / time.Duration(c.TickRate)
}

// TickDelta is the simulated time advanced per tick, in seconds.
func (c Config) TickDelta() float64 {
	return c.TickInterval().Seconds()
}

func (c Config) clampToWorld(p Vec2) Vec2 {
	if c.WorldHalfExtent <= 0 {
		return p
	}
	h := c.WorldHalfExtent
	return Vec2{X: clampRange(p.X, -h, h), Y: clampRange(p.Y, -h, h)}
}
