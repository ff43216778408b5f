package game

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs the game tick loop for every session in its store.
type Engine struct {
	config Config
	store  SessionStore
	inputs InputRouter
	logger *zap.Logger
	clock  clock.Clock

	enemyStats EnemyStatsFunc

	tick    atomic.Uint64
	running atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock sets the clock driving the tick loop and snapshot timestamps.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// EnemyStatsFunc looks up the stat block for an enemy type.
type EnemyStatsFunc func(ctx context.Context, enemyType string) (EnemyStats, error)

// WithEnemyStats sets where enemy stats come from when a session is
// populated. Lookup failures fall back to Config.EnemyTypes.
func WithEnemyStats(fn EnemyStatsFunc) Option {
	return func(e *Engine) { e.enemyStats = fn }
}

// NewEngine creates a new game engine.
func NewEngine(config Config, store SessionStore, inputs InputRouter, opts ...Option) *Engine {
	e := &Engine{
		config: config,
		store:  store,
		inputs: inputs,
		logger: zap.NewNop(),
		clock:  clock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run ticks at the configured rate until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return nil
	}
	defer e.running.Store(false)

	interval := e.config.TickInterval()
	ticker := e.clock.Ticker(interval)
	defer ticker.Stop()

	e.logger.Info("🎮 Engine started",
		zap.Int("tick_rate", e.config.TickRate),
		zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("🛑 Engine stopped", zap.Uint64("tick", e.tick.Load()))
			return nil
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step runs one tick across all sessions and returns the tick number.
func (e *Engine) Step() uint64 {
	tick := e.tick.Add(1)
	dt := e.config.TickDelta()

	bySession := make(map[string][]InputCommand)
	for _, cmd := range e.inputs.Drain() {
		bySession[cmd.SessionID] = append(bySession[cmd.SessionID], cmd)
	}

	e.store.Range(func(s *Session) bool {
		e.stepSession(s, bySession[s.ID], dt)
		delete(bySession, s.ID)
		return true
	})

	for sessionID, cmds := range bySession {
		e.logger.Debug("dropping input for unknown session",
			zap.String("session", sessionID), zap.Int("commands", len(cmds)))
	}
	return tick
}

// CurrentTick returns the number of ticks run so far.
func (e *Engine) CurrentTick() uint64 {
	return e.tick.Load()
}

// Config returns the game configuration.
func (e *Engine) Config() Config {
	return e.config
}

// SubmitInput hands a command to the input router. Commands for players or
// sessions that do not exist are dropped by the next tick.
func (e *Engine) SubmitInput(cmd InputCommand) {
	e.inputs.Submit(cmd)
}

type playerAction struct {
	player *Player
	cmd    InputCommand
}

// stepSession advances one session. A panic is contained to the session so
// the remaining sessions still tick.
func (e *Engine) stepSession(s *Session, cmds []InputCommand, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("💥 session tick panicked",
				zap.String("session", s.ID), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.bump()

	actions := e.applyMovement(s, cmds, dt)
	e.resolveMelee(s, actions)
	e.spawnProjectiles(s, actions)
	e.updateProjectiles(s, dt)
	e.updateEnemies(s, dt)
	e.checkRepopulate(s, dt)
}

func (e *Engine) applyMovement(s *Session, cmds []InputCommand, dt float64) []playerAction {
	if len(cmds) == 0 {
		return nil
	}
	latest := make(map[string]InputCommand, len(cmds))
	for _, cmd := range cmds {
		latest[cmd.PlayerID] = cmd
	}

	actions := make([]playerAction, 0, len(latest))
	s.players.each(func(p *Player) bool {
		cmd, ok := latest[p.ID]
		if !ok {
			return true
		}
		delete(latest, p.ID)

		if cmd.Sequence > p.LastInput {
			p.LastInput = cmd.Sequence
		}
		if !p.Alive() {
			return true
		}

		cmd = cmd.Sanitized()
		if dir := cmd.Move.Normalize(); !dir.IsZero() {
			p.Position = e.config.clampToWorld(p.Position.Add(dir.Scale(p.Stats.Speed * dt)))
		}
		actions = append(actions, playerAction{player: p, cmd: cmd})
		return true
	})

	for playerID := range latest {
		e.logger.Debug("dropping input for unknown player",
			zap.String("session", s.ID), zap.String("player", playerID))
	}
	return actions
}

// enemyLookupTimeout bounds one enemy stats lookup.
const enemyLookupTimeout = 500 * time.Millisecond

type resolvedSpawn struct {
	Position Vec2
	Stats    EnemyStats
}

// resolveSpawns looks up stats for every entry of the spawn table. It may
// block on the stats source, so callers must not hold a session lock.
func (e *Engine) resolveSpawns() []resolvedSpawn {
	out := make([]resolvedSpawn, 0, len(e.config.EnemySpawns))
	for _, spawn := range e.config.EnemySpawns {
		stats, ok := e.lookupEnemy(spawn.Type)
		if !ok {
			e.logger.Warn("unknown enemy type in spawn table", zap.String("type", spawn.Type))
			continue
		}
		out = append(out, resolvedSpawn{Position: spawn.Position, Stats: stats})
	}
	return out
}

func (e *Engine) lookupEnemy(enemyType string) (EnemyStats, bool) {
	if e.enemyStats != nil {
		ctx, cancel := context.WithTimeout(context.Background(), enemyLookupTimeout)
		stats, err := e.enemyStats(ctx, enemyType)
		cancel()
		if err == nil {
			if stats.Type == "" {
				stats.Type = enemyType
			}
			return stats, true
		}
		e.logger.Warn("⚠️ enemy stats lookup failed, using config",
			zap.String("type", enemyType), zap.Error(err))
	}
	stats, ok := e.config.EnemyTypes[enemyType]
	if ok && stats.Type == "" {
		stats.Type = enemyType
	}
	return stats, ok
}

// populate replaces the session's enemies with a fresh set from its
// resolved spawn table. Callers hold the session lock or own the session
// exclusively.
func (e *Engine) populate(s *Session) {
	s.enemies.reset()
	for _, spawn := range s.spawns {
		id := newID()
		s.enemies.put(id, &Enemy{
			ID:       id,
			Position: spawn.Position,
			HP:       spawn.Stats.MaxHP,
			Stats:    spawn.Stats,
			Status:   StatusIdle,
		})
	}
	s.clearedFor = -1
}

func (e *Engine) checkRepopulate(s *Session, dt float64) {
	if e.config.RepopulateDelay <= 0 || s.enemies.len() == 0 {
		return
	}
	if s.anyEnemyAlive() {
		s.clearedFor = -1
		return
	}
	if s.clearedFor < 0 {
		s.clearedFor = 0
	}
	s.clearedFor += dt
	if s.clearedFor+1e-9 < e.config.RepopulateDelay.Seconds() {
		return
	}
	e.populate(s)
	s.bump()
	e.logger.Info("🔁 Session repopulated",
		zap.String("session", s.ID), zap.Int("enemies", s.enemies.len()))
}

func newID() string {
	return uuid.New().String()[:8] // Short ID
}
