package client

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/LemmyAI/arenasync/internal/game"
)

var serverBase = time.UnixMilli(1708444800000)

func newTestInterpolator() (*Interpolator, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Unix(5000, 0))
	return NewInterpolator(DefaultInterpolatorConfig(), mock), mock
}

func TestInterpolatorSingleSnapshotHolds(t *testing.T) {
	in, mock := newTestInterpolator()
	in.AddSnapshot(serverBase, StateSnapshot{Position: game.Vec2{X: 1, Y: 2}, Sequence: 1})

	for _, advance := range []time.Duration{0, 50 * time.Millisecond, 10 * time.Second} {
		mock.Add(advance)
		pos, ok := in.GetInterpolatedPosition()
		if !ok || pos != (game.Vec2{X: 1, Y: 2}) {
			t.Errorf("after %v: expected (1,2), got %+v", advance, pos)
		}
	}
	if s, _ := in.SampleAt(time.Unix(0, 0)); s.Position != (game.Vec2{X: 1, Y: 2}) {
		t.Errorf("expected hold in the past, got %+v", s.Position)
	}
}

func TestInterpolatorEmpty(t *testing.T) {
	in, _ := newTestInterpolator()
	if _, ok := in.Sample(); ok {
		t.Error("expected no sample from an empty buffer")
	}
}

func TestInterpolatorLinearBetweenSnapshots(t *testing.T) {
	in, mock := newTestInterpolator()
	local0 := mock.Now()
	in.AddSnapshot(serverBase, StateSnapshot{Position: game.Vec2{}, Sequence: 1})
	in.AddSnapshot(serverBase.Add(100*time.Millisecond), StateSnapshot{Position: game.Vec2{X: 10, Y: -4}, Sequence: 2})

	tests := []struct {
		at   time.Duration
		want game.Vec2
	}{
		{0, game.Vec2{}},
		{25 * time.Millisecond, game.Vec2{X: 2.5, Y: -1}},
		{50 * time.Millisecond, game.Vec2{X: 5, Y: -2}},
		{99 * time.Millisecond, game.Vec2{X: 9.9, Y: -3.96}},
		{100 * time.Millisecond, game.Vec2{X: 10, Y: -4}},
		{-time.Second, game.Vec2{}},
		{time.Second, game.Vec2{X: 10, Y: -4}},
	}
	for _, tt := range tests {
		s, ok := in.SampleAt(local0.Add(tt.at))
		if !ok || !near(s.Position, tt.want, 1e-9) {
			t.Errorf("at %v: expected %+v, got %+v", tt.at, tt.want, s.Position)
		}
	}

	// Sample renders Delay behind the local clock.
	mock.Add(150 * time.Millisecond)
	if pos, _ := in.GetInterpolatedPosition(); !near(pos, game.Vec2{X: 5, Y: -2}, 1e-9) {
		t.Errorf("expected midpoint at render time, got %+v", pos)
	}
}

func TestInterpolatorUpperBracketFields(t *testing.T) {
	in, mock := newTestInterpolator()
	local0 := mock.Now()
	in.AddSnapshot(serverBase, StateSnapshot{Sequence: 1, HP: 50, MaxHP: 50, Status: "idle"})
	in.AddSnapshot(serverBase.Add(100*time.Millisecond), StateSnapshot{Sequence: 2, HP: 40, MaxHP: 50, Status: "chasing"})

	s, _ := in.SampleAt(local0.Add(10 * time.Millisecond))
	if s.HP != 40 || s.Status != "chasing" {
		t.Errorf("expected upper bracket fields, got hp=%v status=%s", s.HP, s.Status)
	}
	s, _ = in.SampleAt(local0.Add(-time.Second))
	if s.HP != 50 || s.Status != "idle" {
		t.Errorf("expected oldest fields when holding, got hp=%v status=%s", s.HP, s.Status)
	}
}

func TestInterpolatorDropsStaleAndBounds(t *testing.T) {
	in, mock := newTestInterpolator()
	local0 := mock.Now()

	for seq := uint64(1); seq <= 7; seq++ {
		at := serverBase.Add(time.Duration(seq) * 50 * time.Millisecond)
		if !in.AddSnapshot(at, StateSnapshot{Position: game.Vec2{X: float64(seq)}, Sequence: seq}) {
			t.Fatalf("snapshot %d rejected", seq)
		}
	}
	if in.Len() != 5 {
		t.Fatalf("expected 5 buffered snapshots, got %d", in.Len())
	}
	if s, _ := in.SampleAt(local0.Add(-time.Hour)); s.Sequence != 3 {
		t.Errorf("expected oldest kept snapshot to be 3, got %d", s.Sequence)
	}

	if in.AddSnapshot(serverBase.Add(time.Hour), StateSnapshot{Sequence: 7}) {
		t.Error("expected duplicate sequence to be dropped")
	}
	if in.AddSnapshot(serverBase.Add(time.Hour), StateSnapshot{Sequence: 2}) {
		t.Error("expected older sequence to be dropped")
	}
	if in.Len() != 5 {
		t.Errorf("expected buffer unchanged, got %d", in.Len())
	}
}

func TestInterpolatorTimeMappingFixedByFirstSnapshot(t *testing.T) {
	in, mock := newTestInterpolator()
	local0 := mock.Now()
	in.AddSnapshot(serverBase, StateSnapshot{Position: game.Vec2{}, Sequence: 1})

	// The second snapshot arrives late; its position in local time comes
	// from its server time, not from when it arrived.
	mock.Add(300 * time.Millisecond)
	in.AddSnapshot(serverBase.Add(100*time.Millisecond), StateSnapshot{Position: game.Vec2{X: 10}, Sequence: 2})

	if s, _ := in.SampleAt(local0.Add(50 * time.Millisecond)); !near(s.Position, game.Vec2{X: 5}, 1e-9) {
		t.Errorf("expected midpoint, got %+v", s.Position)
	}
}

func TestInterpolatorForceSet(t *testing.T) {
	in, mock := newTestInterpolator()
	in.AddSnapshot(serverBase, StateSnapshot{Position: game.Vec2{X: 1}, Sequence: 4})
	in.AddSnapshot(serverBase.Add(50*time.Millisecond), StateSnapshot{Position: game.Vec2{X: 2}, Sequence: 5})

	in.ForceSet(game.Vec2{X: -8, Y: 8})
	if in.Len() != 1 {
		t.Fatalf("expected only the forced position, got %d", in.Len())
	}
	if pos, _ := in.GetInterpolatedPosition(); pos != (game.Vec2{X: -8, Y: 8}) {
		t.Errorf("expected forced position, got %+v", pos)
	}

	// The next snapshot starts a fresh time mapping at the current local time.
	mock.Add(time.Second)
	if !in.AddSnapshot(serverBase.Add(time.Hour), StateSnapshot{Position: game.Vec2{X: -8, Y: 9}, Sequence: 1}) {
		t.Fatal("expected snapshot after ForceSet to be accepted")
	}
	if s, _ := in.SampleAt(mock.Now()); s.Position != (game.Vec2{X: -8, Y: 9}) {
		t.Errorf("expected new snapshot at local now, got %+v", s.Position)
	}
}

func BenchmarkInterpolatorSample(b *testing.B) {
	in, mock := newTestInterpolator()
	for seq := uint64(1); seq <= 5; seq++ {
		in.AddSnapshot(serverBase.Add(time.Duration(seq)*50*time.Millisecond), StateSnapshot{Position: game.Vec2{X: float64(seq)}, Sequence: seq})
	}
	mock.Add(200 * time.Millisecond)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in.Sample()
	}
}
