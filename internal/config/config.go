// Package config loads server settings from a YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/room"
)

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Engine struct {
	TickRate        int           `yaml:"tick_rate"`
	RepopulateDelay time.Duration `yaml:"repopulate_delay"`
}

type World struct {
	HalfExtent     float64   `yaml:"half_extent"`
	PlayerSpawn    game.Vec2 `yaml:"player_spawn"`
	DefaultFireDir game.Vec2 `yaml:"default_fire_dir"`
}

type Projectile struct {
	Speed  float64       `yaml:"speed"`
	Radius float64       `yaml:"radius"`
	TTL    time.Duration `yaml:"ttl"`
	HitPad float64       `yaml:"hit_pad"`
}

type Redis struct {
	Addr     string        `yaml:"addr"` // Empty uses the in-memory catalog cache
	Prefix   string        `yaml:"prefix"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type NATS struct {
	URL string `yaml:"url"` // Empty disables NATS event publishing
}

type Database struct {
	Path string `yaml:"path"` // Empty keeps profiles in memory
}

// Config is the full server configuration.
type Config struct {
	Server     Server                     `yaml:"server"`
	Engine     Engine                     `yaml:"engine"`
	World      World                      `yaml:"world"`
	Projectile Projectile                 `yaml:"projectile"`
	Player     game.PlayerStats           `yaml:"player"`
	Enemies    map[string]game.EnemyStats `yaml:"enemies"`
	Spawns     []game.EnemySpawn          `yaml:"spawns"`
	Room       room.Config                `yaml:"room"`
	Redis      Redis                      `yaml:"redis"`
	NATS       NATS                       `yaml:"nats"`
	Database   Database                   `yaml:"database"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	g := game.DefaultConfig()
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Engine: Engine{
			TickRate:        g.TickRate,
			RepopulateDelay: g.RepopulateDelay,
		},
		World: World{
			HalfExtent:     g.WorldHalfExtent,
			PlayerSpawn:    g.PlayerSpawn,
			DefaultFireDir: g.DefaultFireDir,
		},
		Projectile: Projectile{
			Speed:  g.ProjectileSpeed,
			Radius: g.ProjectileRadius,
			TTL:    g.ProjectileTTL,
			HitPad: g.ProjectileHitPad,
		},
		Player:  g.PlayerBase,
		Enemies: g.EnemyTypes,
		Spawns:  g.EnemySpawns,
		Room:    room.DefaultConfig(),
		Redis: Redis{
			Prefix:   "arenasync:catalog:",
			CacheTTL: time.Minute,
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		// Lists replace the defaults instead of merging into them.
		cfg.Spawns = nil
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		if cfg.Spawns == nil {
			cfg.Spawns = Default().Spawns
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("ARENASYNC_ADDR", c.Server.Addr)
	c.Redis.Addr = getEnv("ARENASYNC_REDIS_ADDR", c.Redis.Addr)
	c.NATS.URL = getEnv("ARENASYNC_NATS_URL", c.NATS.URL)
	c.Database.Path = getEnv("ARENASYNC_DB_PATH", c.Database.Path)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("config: engine.tick_rate must be positive, got %d", c.Engine.TickRate)
	}
	if c.Player.MaxHP <= 0 {
		return fmt.Errorf("config: player.max_hp must be positive")
	}
	for _, sp := range c.Spawns {
		if _, ok := c.Enemies[sp.Type]; !ok {
			return fmt.Errorf("config: spawn references unknown enemy type %q", sp.Type)
		}
	}
	return nil
}

// Game converts the file layout into the engine's configuration.
func (c Config) Game() game.Config {
	return game.Config{
		TickRate:         c.Engine.TickRate,
		WorldHalfExtent:  c.World.HalfExtent,
		PlayerSpawn:      c.World.PlayerSpawn,
		DefaultFireDir:   c.World.DefaultFireDir,
		ProjectileSpeed:  c.Projectile.Speed,
		ProjectileRadius: c.Projectile.Radius,
		ProjectileTTL:    c.Projectile.TTL,
		ProjectileHitPad: c.Projectile.HitPad,
		RepopulateDelay:  c.Engine.RepopulateDelay,
		PlayerBase:       c.Player,
		EnemyTypes:       c.Enemies,
		EnemySpawns:      c.Spawns,
	}
}
