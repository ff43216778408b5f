package protocol

// SubmitInputRequest is the body of an input submission.
type SubmitInputRequest struct {
	PlayerID  string  `json:"playerId"`
	SessionID string  `json:"sessionId"`
	MoveX     float64 `json:"moveX"`
	MoveY     float64 `json:"moveY"`
	AimX      float64 `json:"aimX"`
	AimY      float64 `json:"aimY"`
	Attack    bool    `json:"attack"`
	Shoot     bool    `json:"shoot"`
	Sequence  uint64  `json:"sequence"`
}

// StateResponse is a full snapshot of one session.
type StateResponse struct {
	SessionID   string            `json:"sessionId"`
	Version     uint64            `json:"version"`
	Timestamp   int64             `json:"timestamp"` // Server time, unix milliseconds
	Players     []PlayerState     `json:"players"`
	Enemies     []EnemyState      `json:"enemies"`
	Projectiles []ProjectileState `json:"projectiles"`
}

// PlayerState is one player entry of a StateResponse.
type PlayerState struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HP       float64 `json:"hp"`
	MaxHP    float64 `json:"maxHp"`
	Sequence uint64  `json:"sequence"`
}

// EnemyState is one enemy entry of a StateResponse.
type EnemyState struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	HP     float64 `json:"hp"`
	MaxHP  float64 `json:"maxHp"`
	Status string  `json:"status"`
}

// ProjectileState is one projectile entry of a StateResponse.
type ProjectileState struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	DirX    float64 `json:"dirX"`
	DirY    float64 `json:"dirY"`
	Radius  float64 `json:"radius"`
}

// JoinRequest asks to add a player to a session. An empty PlayerID lets
// the server pick one.
type JoinRequest struct {
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name"`
}

// JoinResponse confirms a join.
type JoinResponse struct {
	SessionID string  `json:"sessionId"`
	PlayerID  string  `json:"playerId"`
	Version   uint64  `json:"version"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Speed     float64 `json:"speed"`
}

// LeaveRequest removes a player from the session roster.
type LeaveRequest struct {
	PlayerID string `json:"playerId"`
}

// DamageRequest reports damage dealt to a player outside the tick.
type DamageRequest struct {
	Amount float64 `json:"amount"`
}

// ErrorResponse is returned with every 4xx/5xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Event types pushed on the session event channel.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventReset   = "reset"
	EventRespawn = "respawn"
)

// Event is a session membership notification.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId,omitempty"`
	Name      string `json:"name,omitempty"`
	Version   uint64 `json:"version"`
	Timestamp int64  `json:"timestamp"`
}
