package client

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/LemmyAI/arenasync/internal/game"
	"github.com/LemmyAI/arenasync/internal/protocol"
)

// Entity kinds tracked by RemoteEntities.
const (
	KindPlayer = "player"
	KindEnemy  = "enemy"
)

// RemoteEntity is a non-local entity and its interpolation buffer.
type RemoteEntity struct {
	ID     string
	Kind   string
	Name   string // Player name or enemy type
	interp *Interpolator
}

// Sample returns the entity's interpolated state.
func (r *RemoteEntity) Sample() (StateSnapshot, bool) { return r.interp.Sample() }

// RemoteEntities keeps one interpolator per remote player and enemy.
type RemoteEntities struct {
	config   InterpolatorConfig
	clock    clock.Clock
	selfID   string
	entities map[string]*RemoteEntity
}

// NewRemoteEntities tracks every entity except selfID.
func NewRemoteEntities(selfID string, config InterpolatorConfig, clk clock.Clock) *RemoteEntities {
	if clk == nil {
		clk = clock.New()
	}
	return &RemoteEntities{
		config:   config,
		clock:    clk,
		selfID:   selfID,
		entities: make(map[string]*RemoteEntity),
	}
}

// SetSelf changes which player is treated as local.
func (r *RemoteEntities) SetSelf(id string) {
	r.selfID = id
	delete(r.entities, id)
}

// Push feeds a state response into every entity's buffer and forgets
// entities the response no longer contains.
func (r *RemoteEntities) Push(st *protocol.StateResponse) {
	serverTime := time.UnixMilli(st.Timestamp)
	seen := make(map[string]struct{}, len(st.Players)+len(st.Enemies))

	for _, p := range st.Players {
		if p.ID == r.selfID {
			continue
		}
		seen[p.ID] = struct{}{}
		r.entity(p.ID, KindPlayer, p.Name).interp.AddSnapshot(serverTime, StateSnapshot{
			Position: game.Vec2{X: p.X, Y: p.Y},
			Sequence: st.Version,
			HP:       p.HP,
			MaxHP:    p.MaxHP,
		})
	}
	for _, e := range st.Enemies {
		seen[e.ID] = struct{}{}
		r.entity(e.ID, KindEnemy, e.Type).interp.AddSnapshot(serverTime, StateSnapshot{
			Position: game.Vec2{X: e.X, Y: e.Y},
			Sequence: st.Version,
			HP:       e.HP,
			MaxHP:    e.MaxHP,
			Status:   e.Status,
		})
	}
	r.Prune(seen)
}

func (r *RemoteEntities) entity(id, kind, name string) *RemoteEntity {
	e, ok := r.entities[id]
	if !ok {
		e = &RemoteEntity{ID: id, Kind: kind, interp: NewInterpolator(r.config, r.clock)}
		r.entities[id] = e
	}
	e.Name = name
	return e
}

// Clear forgets every tracked entity.
func (r *RemoteEntities) Clear() {
	clear(r.entities)
}

// Prune drops every entity whose id is not in seen.
func (r *RemoteEntities) Prune(seen map[string]struct{}) {
	for id := range r.entities {
		if _, ok := seen[id]; !ok {
			delete(r.entities, id)
		}
	}
}

// Get returns a tracked entity.
func (r *RemoteEntities) Get(id string) (*RemoteEntity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

// Samples returns the interpolated state of every tracked entity.
func (r *RemoteEntities) Samples() map[string]StateSnapshot {
	out := make(map[string]StateSnapshot, len(r.entities))
	for id, e := range r.entities {
		if s, ok := e.Sample(); ok {
			out[id] = s
		}
	}
	return out
}

func (r *RemoteEntities) Len() int { return len(r.entities) }
