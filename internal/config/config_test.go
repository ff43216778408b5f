package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arenasync.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	g := cfg.Game()
	if g.TickRate != 20 || g.TickInterval() != 50*time.Millisecond {
		t.Errorf("unexpected tick settings %d %v", g.TickRate, g.TickInterval())
	}
	if len(g.EnemySpawns) != 3 || g.PlayerBase.MaxHP != 100 {
		t.Errorf("unexpected defaults %+v", g)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Server.Addr)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  addr: ":9000"
engine:
  tick_rate: 30
  repopulate_delay: 0s
projectile:
  ttl: 1500ms
spawns:
  - type: slime
    position: {x: 1, y: -1}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Engine.TickRate != 30 {
		t.Errorf("file values not applied: %+v", cfg.Server)
	}
	if cfg.Engine.RepopulateDelay != 0 || cfg.Projectile.TTL != 1500*time.Millisecond {
		t.Errorf("durations not applied: %v %v", cfg.Engine.RepopulateDelay, cfg.Projectile.TTL)
	}
	if len(cfg.Spawns) != 1 || cfg.Spawns[0].Type != "slime" || cfg.Spawns[0].Position.Y != -1 {
		t.Errorf("expected spawn list to be replaced, got %+v", cfg.Spawns)
	}
	// Untouched sections keep their defaults.
	if cfg.Projectile.Speed != 12 || cfg.Player.Speed != 4 {
		t.Errorf("defaults lost: %+v %+v", cfg.Projectile, cfg.Player)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ARENASYNC_ADDR", ":7000")
	t.Setenv("ARENASYNC_REDIS_ADDR", "redis:6379")
	t.Setenv("ARENASYNC_NATS_URL", "nats://nats:4222")
	t.Setenv("ARENASYNC_DB_PATH", "/tmp/profiles.sqlite")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Redis.Addr != "redis:6379" ||
		cfg.NATS.URL != "nats://nats:4222" || cfg.Database.Path != "/tmp/profiles.sqlite" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero tick rate", "engine:\n  tick_rate: 0\n"},
		{"unknown spawn type", "spawns:\n  - type: dragon\n"},
		{"bad yaml", "engine: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
