// Package room tracks which players are currently present in each session.
// Presence is separate from game state: a member who goes idle drops off
// the roster but stays in the session's simulation.
package room

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Config for room settings
type Config struct {
	MaxPlayers    int           `yaml:"max_players"`
	IdleTTL       time.Duration `yaml:"idle_ttl"`       // Members silent this long are dropped
	RoomTTL       time.Duration `yaml:"room_ttl"`       // Time before an empty room is forgotten
	CleanupPeriod time.Duration `yaml:"cleanup_period"` // How often to look for idle members
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		MaxPlayers:    16,
		IdleTTL:       30 * time.Second,
		RoomTTL:       5 * time.Minute,
		CleanupPeriod: 5 * time.Second,
	}
}

// Member of a room
type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
	LastSeen time.Time `json:"last_seen"`
	IsHost   bool      `json:"is_host"`
}

// Room is the roster of one session
type Room struct {
	ID        string
	CreatedAt time.Time

	members      map[string]*Member
	order        []string // join order, used for host handover
	lastActivity time.Time
	config       Config
	mu           sync.RWMutex
}

// Registry manages all rooms
type Registry struct {
	rooms  map[string]*Room
	config Config
	clock  clock.Clock
	mu     sync.RWMutex

	// Callbacks
	onExpired func(roomID string, m Member)
}

// NewRegistry creates a new room registry
func NewRegistry(config Config, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		rooms:  make(map[string]*Room),
		config: config,
		clock:  clk,
	}
}

// OnMemberExpired sets a callback for members dropped for inactivity.
func (r *Registry) OnMemberExpired(callback func(roomID string, m Member)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpired = callback
}

// Get retrieves a room by ID
func (r *Registry) Get(id string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

// Join adds a player to a room, creating the room on first join.
func (r *Registry) Join(roomID, playerID, playerName string) (*Room, Member, error) {
	// Held across the join so cleanup cannot forget the room in between.
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	room, exists := r.rooms[roomID]
	if !exists {
		room = &Room{
			ID:           roomID,
			CreatedAt:    now,
			members:      make(map[string]*Member),
			lastActivity: now,
			config:       r.config,
		}
		r.rooms[roomID] = room
	}

	m, err := room.join(playerID, playerName, now)
	if err != nil {
		return nil, Member{}, err
	}
	return room, m, nil
}

// Leave removes a player from a room.
func (r *Registry) Leave(roomID, playerID string) (Member, error) {
	room := r.Get(roomID)
	if room == nil {
		return Member{}, ErrRoomNotFound
	}
	return room.leave(playerID, r.clock.Now())
}

// Touch refreshes a member's last-seen time.
func (r *Registry) Touch(roomID, playerID string) error {
	room := r.Get(roomID)
	if room == nil {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	m, ok := room.members[playerID]
	if !ok {
		return ErrNotInRoom
	}
	m.LastSeen = r.clock.Now()
	return nil
}

// Clear empties a room's roster, as when its session is reset.
func (r *Registry) Clear(roomID string) []Member {
	room := r.Get(roomID)
	if room == nil {
		return nil
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	out := room.membersLocked()
	room.members = make(map[string]*Member)
	room.order = nil
	room.lastActivity = r.clock.Now()
	return out
}

func (room *Room) join(playerID, playerName string, now time.Time) (Member, error) {
	room.mu.Lock()
	defer room.mu.Unlock()

	room.lastActivity = now

	// If player already in room, just return them
	if m, exists := room.members[playerID]; exists {
		m.LastSeen = now
		return *m, nil
	}

	if room.config.MaxPlayers > 0 && len(room.members) >= room.config.MaxPlayers {
		return Member{}, ErrRoomFull
	}

	m := &Member{
		ID:       playerID,
		Name:     playerName,
		JoinedAt: now,
		LastSeen: now,
		IsHost:   len(room.members) == 0, // First player is host
	}
	room.members[playerID] = m
	room.order = append(room.order, playerID)
	return *m, nil
}

func (room *Room) leave(playerID string, now time.Time) (Member, error) {
	room.mu.Lock()
	defer room.mu.Unlock()
	return room.removeLocked(playerID, now)
}

func (room *Room) removeLocked(playerID string, now time.Time) (Member, error) {
	m, ok := room.members[playerID]
	if !ok {
		return Member{}, ErrNotInRoom
	}
	delete(room.members, playerID)
	room.lastActivity = now
	for i, id := range room.order {
		if id == playerID {
			room.order = append(room.order[:i], room.order[i+1:]...)
			break
		}
	}

	// If host left, the earliest remaining member takes over
	if m.IsHost && len(room.order) > 0 {
		room.members[room.order[0]].IsHost = true
	}
	return *m, nil
}

func (room *Room) membersLocked() []Member {
	out := make([]Member, 0, len(room.order))
	for _, id := range room.order {
		out = append(out, *room.members[id])
	}
	return out
}

// Members returns the roster in join order.
func (room *Room) Members() []Member {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return room.membersLocked()
}

// Host returns the current host, if any.
func (room *Room) Host() (Member, bool) {
	room.mu.RLock()
	defer room.mu.RUnlock()
	if len(room.order) == 0 {
		return Member{}, false
	}
	return *room.members[room.order[0]], true
}

// PlayerCount returns the number of players in the room
func (room *Room) PlayerCount() int {
	room.mu.RLock()
	defer room.mu.RUnlock()
	return len(room.members)
}

// Count returns the total number of rooms
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// isExpiredLocked reports whether the room has been empty longer than RoomTTL.
// Callers hold room.mu.
func (room *Room) isExpiredLocked(now time.Time) bool {
	if len(room.members) > 0 || room.config.RoomTTL <= 0 {
		return false
	}
	return now.Sub(room.lastActivity) > room.config.RoomTTL
}

// Run periodically drops idle members until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.Ticker(r.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.ExpireIdle()
		}
	}
}

// ExpireIdle drops every member not seen within IdleTTL and reports them to
// the expiry callback, then forgets rooms left empty for RoomTTL.
func (r *Registry) ExpireIdle() {
	defer r.expireRooms()
	if r.config.IdleTTL <= 0 {
		return
	}
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	callback := r.onExpired
	r.mu.RUnlock()

	now := r.clock.Now()
	for _, room := range rooms {
		var expired []Member
		room.mu.Lock()
		for _, id := range append([]string(nil), room.order...) {
			if now.Sub(room.members[id].LastSeen) > room.config.IdleTTL {
				if m, err := room.removeLocked(id, now); err == nil {
					expired = append(expired, m)
				}
			}
		}
		room.mu.Unlock()

		if callback != nil {
			for _, m := range expired {
				callback(room.ID, m)
			}
		}
	}
}

func (r *Registry) expireRooms() {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, room := range r.rooms {
		room.mu.RLock()
		expired := room.isExpiredLocked(now)
		room.mu.RUnlock()
		if expired {
			delete(r.rooms, id)
		}
	}
}
