package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/LemmyAI/arenasync/internal/game"
)

// SQLiteStore keeps profiles in a sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the profile database at path. The special
// path ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			max_hp REAL NOT NULL,
			damage REAL NOT NULL,
			melee_range REAL NOT NULL,
			speed REAL NOT NULL,
			knockback REAL NOT NULL,
			sessions_joined INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Profile, error) {
	var (
		p         Profile
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, max_hp, damage, melee_range, speed, knockback, sessions_joined, updated_at
		 FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Stats.MaxHP, &p.Stats.Damage, &p.Stats.MeleeRange,
			&p.Stats.Speed, &p.Stats.KnockbackDistance, &p.SessionsJoined, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", id, err)
	}
	p.UpdatedAt = time.UnixMilli(updatedAt)
	return p, nil
}

func (s *SQLiteStore) Save(ctx context.Context, p Profile) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, max_hp, damage, melee_range, speed, knockback, sessions_joined, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			max_hp = excluded.max_hp,
			damage = excluded.damage,
			melee_range = excluded.melee_range,
			speed = excluded.speed,
			knockback = excluded.knockback,
			sessions_joined = excluded.sessions_joined,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Stats.MaxHP, p.Stats.Damage, p.Stats.MeleeRange,
		p.Stats.Speed, p.Stats.KnockbackDistance, p.SessionsJoined, p.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// New returns a fresh profile with base stats.
func New(id, name string, base game.PlayerStats) Profile {
	return Profile{ID: id, Name: name, Stats: base}
}
