package room

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestJoinAssignsHost(t *testing.T) {
	reg := NewRegistry(DefaultConfig(), clock.NewMock())

	room, first, err := reg.Join("s1", "p1", "Alice")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if !first.IsHost {
		t.Error("expected first player to be host")
	}

	_, second, _ := reg.Join("s1", "p2", "Bob")
	if second.IsHost {
		t.Error("expected second player not to be host")
	}

	again, _, _ := reg.Join("s1", "p1", "Alice")
	if again != room || room.PlayerCount() != 2 {
		t.Errorf("expected rejoin to keep 2 players, got %d", room.PlayerCount())
	}
	if reg.Count() != 1 {
		t.Errorf("expected 1 room, got %d", reg.Count())
	}
}

func TestLeaveHandsOverHost(t *testing.T) {
	reg := NewRegistry(DefaultConfig(), clock.NewMock())
	reg.Join("s1", "p1", "Alice")
	reg.Join("s1", "p2", "Bob")
	reg.Join("s1", "p3", "Carol")

	if _, err := reg.Leave("s1", "p1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	host, ok := reg.Get("s1").Host()
	if !ok || host.ID != "p2" || !host.IsHost {
		t.Errorf("expected p2 to become host, got %+v", host)
	}

	if _, err := reg.Leave("s1", "p1"); err != ErrNotInRoom {
		t.Errorf("expected ErrNotInRoom, got %v", err)
	}
	if _, err := reg.Leave("nope", "p1"); err != ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRoomFull(t *testing.T) {
	config := DefaultConfig()
	config.MaxPlayers = 1
	reg := NewRegistry(config, clock.NewMock())

	reg.Join("s1", "p1", "Alice")
	if _, _, err := reg.Join("s1", "p2", "Bob"); err != ErrRoomFull {
		t.Errorf("expected ErrRoomFull, got %v", err)
	}
}

func TestExpireIdleMembers(t *testing.T) {
	clk := clock.NewMock()
	config := DefaultConfig()
	config.IdleTTL = 10 * time.Second
	reg := NewRegistry(config, clk)

	var expired []string
	reg.OnMemberExpired(func(roomID string, m Member) {
		expired = append(expired, roomID+"/"+m.ID)
	})

	reg.Join("s1", "p1", "Alice")
	reg.Join("s1", "p2", "Bob")

	clk.Add(8 * time.Second)
	if err := reg.Touch("s1", "p2"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	clk.Add(5 * time.Second)
	reg.ExpireIdle()

	if len(expired) != 1 || expired[0] != "s1/p1" {
		t.Fatalf("expected only s1/p1 to expire, got %v", expired)
	}
	host, _ := reg.Get("s1").Host()
	if host.ID != "p2" {
		t.Errorf("expected p2 to inherit host, got %s", host.ID)
	}
}

func TestEmptyRoomsExpire(t *testing.T) {
	clk := clock.NewMock()
	config := DefaultConfig()
	config.IdleTTL = 0
	config.RoomTTL = time.Minute
	reg := NewRegistry(config, clk)

	reg.Join("empty", "p1", "Alice")
	reg.Join("busy", "p2", "Bob")
	if _, err := reg.Leave("empty", "p1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	clk.Add(30 * time.Second)
	reg.ExpireIdle()
	if reg.Count() != 2 {
		t.Fatalf("expected both rooms before RoomTTL, got %d", reg.Count())
	}

	clk.Add(31 * time.Second)
	reg.ExpireIdle()
	if reg.Get("empty") != nil {
		t.Error("expected empty room to be forgotten")
	}
	if reg.Get("busy") == nil || reg.Count() != 1 {
		t.Errorf("expected occupied room to remain, got %d rooms", reg.Count())
	}

	// Joining again creates the room afresh.
	room, m, err := reg.Join("empty", "p3", "Cleo")
	if err != nil || room.PlayerCount() != 1 || !m.IsHost {
		t.Errorf("expected a new room with p3 as host, got %v %+v", err, m)
	}
}

func TestClear(t *testing.T) {
	reg := NewRegistry(DefaultConfig(), clock.NewMock())
	reg.Join("s1", "p1", "Alice")
	reg.Join("s1", "p2", "Bob")

	cleared := reg.Clear("s1")
	if len(cleared) != 2 || reg.Get("s1").PlayerCount() != 0 {
		t.Errorf("expected 2 cleared members and an empty room, got %d", len(cleared))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	reg := NewRegistry(DefaultConfig(), clock.New())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
