package game

import "github.com/puzpuzpuz/xsync/v3"

// InputRouter holds at most one pending command per player. A command that
// arrives before the previous one was consumed replaces it.
type InputRouter interface {
	Submit(cmd InputCommand)
	// Drain removes and returns every pending command.
	Drain() []InputCommand
	Len() int
}

// LatestInputs is the InputRouter used by the server.
type LatestInputs struct {
	pending *xsync.MapOf[string, InputCommand]
}

// NewInputRouter creates an empty router.
func NewInputRouter() *LatestInputs {
	return &LatestInputs{pending: xsync.NewMapOf[string, InputCommand]()}
}

// Submit stores cmd as the player's latest command.
func (l *LatestInputs) Submit(cmd InputCommand) {
	l.pending.Store(cmd.PlayerID, cmd.Sanitized())
}

func (l *LatestInputs) Drain() []InputCommand {
	out := make([]InputCommand, 0, l.pending.Size())
	l.pending.Range(func(playerID string, _ InputCommand) bool {
		// Load again at delete time so a command stored mid-drain wins.
		if cmd, ok := l.pending.LoadAndDelete(playerID); ok {
			out = append(out, cmd)
		}
		return true
	})
	return out
}

func (l *LatestInputs) Len() int {
	return l.pending.Size()
}
