// Package transport is the client's network abstraction layer.
// This allows swapping the HTTP implementation for a mock without changing
// the sync loop.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/LemmyAI/arenasync/internal/protocol"
)

// ErrSessionNotFound is returned when the server does not know the session.
var ErrSessionNotFound = errors.New("session not found")

// Transport is the interface for talking to the sync server.
type Transport interface {
	// SubmitInput sends one input command. Delivery is fire-and-forget.
	SubmitInput(ctx context.Context, req protocol.SubmitInputRequest) error

	// FetchState polls a session. With a non-nil since, changed is false and
	// the state nil when the session has not advanced past it.
	FetchState(ctx context.Context, sessionID string, since *uint64) (state *protocol.StateResponse, changed bool, err error)

	// Join adds a player to a session.
	Join(ctx context.Context, sessionID string, req protocol.JoinRequest) (*protocol.JoinResponse, error)

	// Leave removes a player from a session.
	Leave(ctx context.Context, sessionID, playerID string) error
}

// Config holds transport configuration.
type Config struct {
	BaseURL        string
	MediaType      string        // Accept type for state polls
	RequestTimeout time.Duration // Applied to every request
	MaxIdleConns   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080",
		MediaType:      protocol.MediaMsgpack,
		RequestTimeout: 2 * time.Second,
		MaxIdleConns:   4,
	}
}
