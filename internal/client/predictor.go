// Package client reconstructs renderable positions from the server's
// snapshots: prediction for the local player and interpolation for
// everyone else.
package client

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/deque"

	"github.com/LemmyAI/arenasync/internal/game"
)

// PredictorConfig tunes local prediction and correction.
type PredictorConfig struct {
	Speed               float64 // Units per second, as the server moves the player
	CorrectionThreshold float64 // Drift up to this distance is ignored
	CorrectionRate      float64 // Fraction of the remaining error removed per second
	SnapEpsilon         float64 // Corrections closer than this finish immediately
	HistorySize         int
	ReplayStep          float64 // Seconds of movement re-applied per unconfirmed input
}

// DefaultPredictorConfig matches the server's default player and tick rate.
func DefaultPredictorConfig() PredictorConfig {
	return PredictorConfig{
		Speed:               4,
		CorrectionThreshold: 0.5,
		CorrectionRate:      10,
		SnapEpsilon:         0.01,
		HistorySize:         64,
		ReplayStep:          0.05,
	}
}

// InputSnapshot is one locally applied input.
type InputSnapshot struct {
	Sequence  uint64
	Move      game.Vec2
	Timestamp time.Time
	Position  game.Vec2 // Predicted position after applying Move
}

// Predictor moves the local player as soon as input happens and reconciles
// against the server by input sequence. It is not safe for concurrent use.
type Predictor struct {
	config PredictorConfig
	clock  clock.Clock

	rendered   game.Vec2
	predicted  game.Vec2
	correcting bool
	confirmed  uint64
	history    deque.Deque[InputSnapshot]
}

// NewPredictor creates a predictor at the origin. A nil clock uses real time.
func NewPredictor(config PredictorConfig, clk clock.Clock) *Predictor {
	if clk == nil {
		clk = clock.New()
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultPredictorConfig().HistorySize
	}
	return &Predictor{config: config, clock: clk}
}

// step is the server's movement rule: clamp each axis, normalize, scale.
func (p *Predictor) step(move game.Vec2, dt float64) game.Vec2 {
	return game.ClampAxis(move).Normalize().Scale(p.config.Speed * dt)
}

// ApplyInput integrates move for dt seconds and records it in the history.
func (p *Predictor) ApplyInput(seq uint64, move game.Vec2, dt float64) InputSnapshot {
	delta := p.step(move, dt)
	p.predicted = p.predicted.Add(delta)
	p.rendered = p.rendered.Add(delta)

	in := InputSnapshot{
		Sequence:  seq,
		Move:      game.ClampAxis(move),
		Timestamp: p.clock.Now(),
		Position:  p.predicted,
	}
	p.history.PushBack(in)
	for p.history.Len() > p.config.HistorySize {
		p.history.PopFront()
	}
	return in
}

// Reconcile applies an authoritative position that includes every input up
// to confirmedSeq. It returns true when the drift started a correction.
func (p *Predictor) Reconcile(confirmedSeq uint64, authoritative game.Vec2) bool {
	if confirmedSeq < p.confirmed {
		return false
	}
	p.confirmed = confirmedSeq
	for p.history.Len() > 0 && p.history.Front().Sequence <= confirmedSeq {
		p.history.PopFront()
	}

	if p.predicted.DistSq(authoritative) <= p.config.CorrectionThreshold*p.config.CorrectionThreshold {
		return false
	}

	// Replay pending inputs on the corrected base. Each one is re-applied
	// for a fixed step rather than the time it originally covered.
	base := authoritative
	for i := 0; i < p.history.Len(); i++ {
		in := p.history.At(i)
		base = base.Add(p.step(in.Move, p.config.ReplayStep))
		in.Position = base
		p.history.Set(i, in)
	}
	p.predicted = base
	p.correcting = true
	return true
}

// Update eases the rendered position toward the prediction during a
// correction. Call it once per frame.
func (p *Predictor) Update(dt float64) {
	if !p.correcting {
		return
	}
	remaining := p.predicted.Sub(p.rendered)
	if remaining.Len() > p.config.SnapEpsilon {
		alpha := math.Min(1, p.config.CorrectionRate*dt)
		p.rendered = p.rendered.Add(remaining.Scale(alpha))
		remaining = p.predicted.Sub(p.rendered)
	}
	if remaining.Len() <= p.config.SnapEpsilon {
		p.rendered = p.predicted
		p.correcting = false
	}
}

// ForceSet teleports the player, dropping history and any correction.
func (p *Predictor) ForceSet(pos game.Vec2) {
	p.rendered = pos
	p.predicted = pos
	p.correcting = false
	p.history.Clear()
}

// Reset places the player at pos and forgets every confirmed sequence, as
// when the server session starts over.
func (p *Predictor) Reset(pos game.Vec2) {
	p.ForceSet(pos)
	p.confirmed = 0
}

// SetSpeed changes the speed used for new inputs and replays.
func (p *Predictor) SetSpeed(speed float64) { p.config.Speed = speed }

// Position is where the player should be drawn.
func (p *Predictor) Position() game.Vec2 { return p.rendered }

// Predicted is where the player will be once all pending inputs land.
func (p *Predictor) Predicted() game.Vec2 { return p.predicted }

// Pending returns the number of unconfirmed inputs.
func (p *Predictor) Pending() int { return p.history.Len() }

func (p *Predictor) Correcting() bool { return p.correcting }

// Confirmed returns the highest sequence the server has acknowledged.
func (p *Predictor) Confirmed() uint64 { return p.confirmed }
