package client

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gammazero/deque"

	"github.com/LemmyAI/arenasync/internal/game"
)

// InterpolatorConfig tunes remote entity smoothing.
type InterpolatorConfig struct {
	BufferSize int
	Delay      time.Duration // Render this far behind the newest local time
}

func DefaultInterpolatorConfig() InterpolatorConfig {
	return InterpolatorConfig{BufferSize: 5, Delay: 100 * time.Millisecond}
}

// StateSnapshot is one buffered server observation of a remote entity.
// Timestamp is in local time.
type StateSnapshot struct {
	Position  game.Vec2
	Timestamp time.Time
	Sequence  uint64
	HP        float64
	MaxHP     float64
	Status    string
}

// Interpolator renders a remote entity slightly in the past, blending
// between the buffered snapshots around the render time. It is not safe
// for concurrent use.
type Interpolator struct {
	config InterpolatorConfig
	clock  clock.Clock

	buffer deque.Deque[StateSnapshot]
	offset time.Duration // local time minus server time, fixed by the first snapshot
	mapped bool
}

// NewInterpolator creates an empty interpolator. A nil clock uses real time.
func NewInterpolator(config InterpolatorConfig, clk clock.Clock) *Interpolator {
	if clk == nil {
		clk = clock.New()
	}
	if config.BufferSize < 2 {
		config.BufferSize = 2
	}
	return &Interpolator{config: config, clock: clk}
}

// AddSnapshot buffers snap, observed by the server at serverTime. Snapshots
// not newer than the last buffered one are dropped and false is returned.
func (in *Interpolator) AddSnapshot(serverTime time.Time, snap StateSnapshot) bool {
	if in.buffer.Len() > 0 && snap.Sequence <= in.buffer.Back().Sequence {
		return false
	}
	if !in.mapped {
		in.offset = in.clock.Now().Sub(serverTime)
		in.mapped = true
	}
	snap.Timestamp = serverTime.Add(in.offset)

	in.buffer.PushBack(snap)
	for in.buffer.Len() > in.config.BufferSize {
		in.buffer.PopFront()
	}
	return true
}

// Sample returns the entity state at now minus the interpolation delay.
func (in *Interpolator) Sample() (StateSnapshot, bool) {
	return in.SampleAt(in.clock.Now().Add(-in.config.Delay))
}

// SampleAt returns the entity state at local time t. Times outside the
// buffer hold at the oldest or newest snapshot; nothing is extrapolated.
func (in *Interpolator) SampleAt(t time.Time) (StateSnapshot, bool) {
	n := in.buffer.Len()
	if n == 0 {
		return StateSnapshot{}, false
	}
	if oldest := in.buffer.Front(); !t.After(oldest.Timestamp) {
		return oldest, true
	}
	if newest := in.buffer.Back(); !t.Before(newest.Timestamp) {
		return newest, true
	}

	for i := 0; i+1 < n; i++ {
		lo, hi := in.buffer.At(i), in.buffer.At(i+1)
		if t.Before(lo.Timestamp) || !t.Before(hi.Timestamp) {
			continue
		}
		span := hi.Timestamp.Sub(lo.Timestamp)
		out := hi
		out.Timestamp = t
		if span > 0 {
			frac := float64(t.Sub(lo.Timestamp)) / float64(span)
			out.Position = lo.Position.Add(hi.Position.Sub(lo.Position).Scale(frac))
		}
		return out, true
	}
	return in.buffer.Back(), true
}

// GetInterpolatedPosition returns only the position part of Sample.
func (in *Interpolator) GetInterpolatedPosition() (game.Vec2, bool) {
	s, ok := in.Sample()
	return s.Position, ok
}

// ForceSet drops the buffer and time mapping and holds the entity at pos
// until the next snapshot arrives.
func (in *Interpolator) ForceSet(pos game.Vec2) {
	in.buffer.Clear()
	in.mapped = false
	in.offset = 0
	in.buffer.PushBack(StateSnapshot{Position: pos, Timestamp: in.clock.Now()})
}

// Len returns the number of buffered snapshots.
func (in *Interpolator) Len() int { return in.buffer.Len() }
