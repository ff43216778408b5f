package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/protocol"
	"github.com/LemmyAI/arenasync/internal/transport"
)

// SessionConfig configures a client sync session.
type SessionConfig struct {
	SessionID      string
	PlayerID       string // Empty lets the server pick one
	Name           string
	PollRate       float64       // Polls per second
	RequestTimeout time.Duration // Per poll or input submission
	Predictor      PredictorConfig
	Interpolator   InterpolatorConfig
}

// DefaultSessionConfig returns sensible defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		PollRate:       10,
		RequestTimeout: time.Second,
		Predictor:      DefaultPredictorConfig(),
		Interpolator:   DefaultInterpolatorConfig(),
	}
}

// Session keeps one client in sync with a server session: inputs go out
// through the predictor, polled snapshots come back into the predictor
// (self) and the remote entity buffers (everyone else).
type Session struct {
	config    SessionConfig
	transport transport.Transport
	logger    *zap.Logger
	limiter   *rate.Limiter

	mu        sync.Mutex
	playerID  string
	seq       uint64
	version   *uint64
	last      *protocol.StateResponse
	selfHP    float64
	seenSelf  bool
	predictor *Predictor
	remotes   *RemoteEntities
}

// NewSession creates a session. A nil logger discards logs; a nil clock
// uses real time.
func NewSession(tr transport.Transport, config SessionConfig, logger *zap.Logger, clk clock.Clock) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PollRate <= 0 {
		config.PollRate = DefaultSessionConfig().PollRate
	}
	return &Session{
		config:    config,
		transport: tr,
		logger:    logger,
		limiter:   rate.NewLimiter(rate.Limit(config.PollRate), 1),
		playerID:  config.PlayerID,
		predictor: NewPredictor(config.Predictor, clk),
		remotes:   NewRemoteEntities(config.PlayerID, config.Interpolator, clk),
	}
}

func (s *Session) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.RequestTimeout)
}

// Join enters the session and places the local player where the server
// spawned it. Joining again starts a fresh sync: the version fence and all
// buffered state are dropped, since a restarted server counts versions from
// the start.
func (s *Session) Join(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.transport.Join(ctx, s.config.SessionID, protocol.JoinRequest{
		PlayerID: s.playerID,
		Name:     s.config.Name,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = resp.PlayerID
	s.version = nil
	s.last = nil
	s.seenSelf = false
	s.selfHP = 0
	s.remotes.Clear()
	s.remotes.SetSelf(resp.PlayerID)
	if resp.Speed > 0 {
		s.predictor.SetSpeed(resp.Speed)
	}
	s.predictor.Reset(game.Vec2{X: resp.X, Y: resp.Y})

	s.logger.Info("✅ Joined session",
		zap.String("session", resp.SessionID), zap.String("player", resp.PlayerID),
		zap.Uint64("version", resp.Version))
	return nil
}

// Input describes one frame of local controls.
type Input struct {
	Move   game.Vec2
	Aim    game.Vec2
	Attack bool
	Shoot  bool
}

// SendInput applies in locally for dt seconds and submits it. A failed
// submission is logged and not retried; the next input supersedes it.
func (s *Session) SendInput(ctx context.Context, in Input, dt float64) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.predictor.ApplyInput(seq, in.Move, dt)
	req := protocol.SubmitInputRequest{
		PlayerID:  s.playerID,
		SessionID: s.config.SessionID,
		MoveX:     in.Move.X,
		MoveY:     in.Move.Y,
		AimX:      in.Aim.X,
		AimY:      in.Aim.Y,
		Attack:    in.Attack,
		Shoot:     in.Shoot,
		Sequence:  seq,
	}
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.transport.SubmitInput(ctx, req); err != nil {
		s.logger.Warn("⚠️ input submission failed", zap.Uint64("sequence", seq), zap.Error(err))
	}
	return seq
}

// Poll fetches the session state once. A failed poll keeps the last known
// state and reports the error; the next poll simply tries again.
func (s *Session) Poll(ctx context.Context) (bool, error) {
	s.mu.Lock()
	since := s.version
	s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	st, changed, err := s.transport.FetchState(ctx, s.config.SessionID, since)
	if errors.Is(err, transport.ErrSessionNotFound) {
		// The session is gone; whatever replaces it starts its own count.
		s.mu.Lock()
		s.version = nil
		s.mu.Unlock()
	}
	if err != nil {
		s.logger.Debug("poll failed", zap.String("session", s.config.SessionID), zap.Error(err))
		return false, err
	}
	if !changed {
		return false, nil
	}
	s.apply(st)
	return true, nil
}

func (s *Session) apply(st *protocol.StateResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != nil && st.Version <= *s.version {
		return
	}
	v := st.Version
	s.version = &v
	s.last = st

	self := false
	for _, p := range st.Players {
		if p.ID != s.playerID {
			continue
		}
		self = true
		pos := game.Vec2{X: p.X, Y: p.Y}
		if s.seenSelf && s.selfHP <= 0 && p.HP > 0 {
			// Respawned: jump straight to the spawn point.
			s.predictor.ForceSet(pos)
		}
		s.selfHP = p.HP
		s.seenSelf = true
		if s.predictor.Reconcile(p.Sequence, pos) {
			s.logger.Debug("prediction corrected",
				zap.Uint64("sequence", p.Sequence), zap.Int("pending", s.predictor.Pending()))
		}
	}
	if !self && s.playerID != "" {
		s.logger.Debug("local player missing from snapshot", zap.Uint64("version", st.Version))
	}
	s.remotes.Push(st)
}

// Run polls at the configured rate until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if _, err := s.Poll(ctx); errors.Is(err, transport.ErrSessionNotFound) {
			s.logger.Warn("⚠️ session not found on server, rejoining", zap.String("session", s.config.SessionID))
			if err := s.Join(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("⚠️ rejoin failed", zap.Error(err))
			}
		}
	}
}

// Frame advances smoothing by dt seconds and returns the local player's
// render position.
func (s *Session) Frame(dt float64) game.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictor.Update(dt)
	return s.predictor.Position()
}

// Leave removes the local player from the session.
func (s *Session) Leave(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	s.mu.Lock()
	id := s.playerID
	s.mu.Unlock()
	return s.transport.Leave(ctx, s.config.SessionID, id)
}

// PlayerID returns the local player's id.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

// State returns the last received state, or nil before the first poll.
func (s *Session) State() *protocol.StateResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Remotes returns interpolated states of every other entity.
func (s *Session) Remotes() map[string]StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remotes.Samples()
}

// Predicted returns the local player's predicted position.
func (s *Session) Predicted() game.Vec2 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predictor.Predicted()
}
