package profile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/LemmyAI/arenasync/internal/game"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "profiles", "profiles.sqlite"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Load(ctx, "p1"); err != ErrNotFound {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			p := New("p1", "Alice", game.DefaultConfig().PlayerBase)
			p.SessionsJoined = 3
			p.UpdatedAt = time.UnixMilli(1708444800000)
			if err := store.Save(ctx, p); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Load(ctx, "p1")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if got.Name != "Alice" || got.Stats != p.Stats || got.SessionsJoined != 3 || !got.UpdatedAt.Equal(p.UpdatedAt) {
				t.Errorf("unexpected profile %+v", got)
			}

			p.Name = "Alicia"
			p.Stats.Speed = 6
			if err := store.Save(ctx, p); err != nil {
				t.Fatalf("second Save failed: %v", err)
			}
			got, _ = store.Load(ctx, "p1")
			if got.Name != "Alicia" || got.Stats.Speed != 6 {
				t.Errorf("expected update to overwrite, got %+v", got)
			}
		})
	}
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Error("expected error for empty path")
	}
}
