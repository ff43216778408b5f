package client

import (
	"math"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/LemmyAI/arenasync/internal/game"
)

func near(a, b game.Vec2, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

func newTestPredictor() *Predictor {
	return NewPredictor(DefaultPredictorConfig(), clock.NewMock())
}

func TestPredictorAppliesInputImmediately(t *testing.T) {
	p := newTestPredictor()

	in := p.ApplyInput(1, game.Vec2{X: 1}, 0.05)
	if !near(p.Position(), game.Vec2{X: 0.2}, 1e-9) || !near(in.Position, game.Vec2{X: 0.2}, 1e-9) {
		t.Errorf("expected (0.2,0), got %+v", p.Position())
	}
	if p.Pending() != 1 || in.Sequence != 1 {
		t.Errorf("expected one pending input, got %d", p.Pending())
	}

	// Diagonals are normalized like on the server.
	p.ForceSet(game.Vec2{})
	p.ApplyInput(2, game.Vec2{X: 1, Y: 1}, 1)
	if got := p.Position().Len(); math.Abs(got-4) > 1e-9 {
		t.Errorf("expected diagonal distance 4, got %v", got)
	}

	// Out-of-range input is clamped before use.
	p.ForceSet(game.Vec2{})
	p.ApplyInput(3, game.Vec2{X: math.NaN(), Y: -7}, 1)
	if !near(p.Position(), game.Vec2{Y: -4}, 1e-9) {
		t.Errorf("expected (0,-4), got %+v", p.Position())
	}
}

func TestPredictorIgnoresDegenerateMove(t *testing.T) {
	p := newTestPredictor()
	for seq, move := range []game.Vec2{{X: 1e-320}, {X: -5e-324, Y: 1e-310}, {Y: math.Inf(1)}} {
		in := p.ApplyInput(uint64(seq+1), move, 0.05)
		if in.Position != (game.Vec2{}) {
			t.Errorf("move %v: expected no movement, got %+v", move, in.Position)
		}
	}
	if p.Position() != (game.Vec2{}) || p.Predicted() != (game.Vec2{}) {
		t.Errorf("expected to stay at origin, got %+v %+v", p.Position(), p.Predicted())
	}
}

func TestPredictorHistoryIsBounded(t *testing.T) {
	cfg := DefaultPredictorConfig()
	cfg.HistorySize = 3
	p := NewPredictor(cfg, nil)

	for seq := uint64(1); seq <= 5; seq++ {
		p.ApplyInput(seq, game.Vec2{X: 1}, 0.05)
	}
	if p.Pending() != 3 {
		t.Fatalf("expected 3 pending inputs, got %d", p.Pending())
	}
	// Oldest entries were evicted, so confirming 2 drops nothing.
	p.Reconcile(2, p.Predicted())
	if p.Pending() != 3 {
		t.Errorf("expected inputs 3..5 to remain, got %d", p.Pending())
	}
}

func TestPredictorReconcileExactMatchIsNoop(t *testing.T) {
	p := newTestPredictor()
	for seq := uint64(1); seq <= 3; seq++ {
		p.ApplyInput(seq, game.Vec2{X: 1}, 0.05)
	}
	before := p.Position()

	if p.Reconcile(3, p.Predicted()) {
		t.Error("expected no correction for an exact match")
	}
	if p.Position() != before || p.Correcting() {
		t.Errorf("rendered position changed: %+v -> %+v", before, p.Position())
	}
	if p.Pending() != 0 || p.Confirmed() != 3 {
		t.Errorf("expected history pruned through 3, got %d pending", p.Pending())
	}
}

func TestPredictorReconcileThreshold(t *testing.T) {
	tests := []struct {
		name    string
		drift   float64
		correct bool
	}{
		{"noise", 0.3, false},
		{"at threshold", 0.5, false},
		{"beyond threshold", 0.51, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPredictor()
			p.ApplyInput(1, game.Vec2{X: 1}, 0.05)
			server := p.Predicted().Add(game.Vec2{Y: tt.drift})
			if got := p.Reconcile(1, server); got != tt.correct {
				t.Errorf("expected correction=%v, got %v", tt.correct, got)
			}
		})
	}
}

func TestPredictorConvergesToAuthoritative(t *testing.T) {
	p := newTestPredictor()
	server := game.Vec2{X: 3, Y: -1}

	if !p.Reconcile(0, server) {
		t.Fatal("expected a correction")
	}
	if p.Position() != (game.Vec2{}) {
		t.Error("correction must not jump the rendered position")
	}

	prev := p.Position().Sub(server).Len()
	for i := 0; i < 120 && p.Correcting(); i++ {
		p.Update(1.0 / 60)
		dist := p.Position().Sub(server).Len()
		if dist > prev {
			t.Fatalf("distance grew from %v to %v", prev, dist)
		}
		prev = dist
	}
	if p.Correcting() || !near(p.Position(), server, 1e-9) {
		t.Errorf("expected to settle on %+v, got %+v (correcting=%v)", server, p.Position(), p.Correcting())
	}
}

func TestPredictorReplaysPendingInputs(t *testing.T) {
	p := newTestPredictor()
	for seq := uint64(1); seq <= 3; seq++ {
		p.ApplyInput(seq, game.Vec2{X: 1}, 0.05)
	}

	// The server confirms input 1 somewhere else entirely.
	if !p.Reconcile(1, game.Vec2{X: 5}) {
		t.Fatal("expected a correction")
	}
	if p.Pending() != 2 {
		t.Errorf("expected 2 pending inputs, got %d", p.Pending())
	}
	if want := (game.Vec2{X: 5.4}); !near(p.Predicted(), want, 1e-9) {
		t.Errorf("expected replayed prediction %+v, got %+v", want, p.Predicted())
	}
	if !near(p.Position(), game.Vec2{X: 0.6}, 1e-9) {
		t.Errorf("rendered position should not move until Update, got %+v", p.Position())
	}

	// Inputs during a correction move both positions.
	p.ApplyInput(4, game.Vec2{Y: 1}, 0.05)
	if !near(p.Predicted(), game.Vec2{X: 5.4, Y: 0.2}, 1e-9) || !near(p.Position(), game.Vec2{X: 0.6, Y: 0.2}, 1e-9) {
		t.Errorf("unexpected positions %+v %+v", p.Predicted(), p.Position())
	}

	// A snapshot older than the last one is ignored.
	if p.Reconcile(0, game.Vec2{X: -50}) {
		t.Error("expected stale snapshot to be ignored")
	}
}

func TestPredictorForceSet(t *testing.T) {
	p := newTestPredictor()
	p.ApplyInput(1, game.Vec2{X: 1}, 0.05)
	p.Reconcile(0, game.Vec2{X: 10})

	p.ForceSet(game.Vec2{X: -2, Y: 2})
	if p.Position() != (game.Vec2{X: -2, Y: 2}) || p.Predicted() != p.Position() {
		t.Errorf("unexpected positions %+v %+v", p.Position(), p.Predicted())
	}
	if p.Pending() != 0 || p.Correcting() {
		t.Errorf("expected history and correction cleared, pending=%d correcting=%v", p.Pending(), p.Correcting())
	}
}

func BenchmarkPredictorReconcile(b *testing.B) {
	p := NewPredictor(DefaultPredictorConfig(), nil)
	for i := 0; i < b.N; i++ {
		seq := uint64(i + 1)
		p.ApplyInput(seq, game.Vec2{X: 1}, 0.05)
		if i%3 == 0 {
			p.Reconcile(seq, game.Vec2{X: float64(i)})
		}
		p.Update(1.0 / 60)
	}
}
