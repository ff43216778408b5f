// Package events delivers session membership notifications outside the
// polling path.
package events

import (
	"context"

	"go.uber.org/multierr"

	"github.com/LemmyAI/arenasync/internal/protocol"
)

// Publisher sends a session event to whoever is listening.
type Publisher interface {
	Publish(ctx context.Context, ev protocol.Event) error
}

// Multi fans an event out to several publishers.
type Multi []Publisher

// Publish sends ev to every publisher and combines their errors.
func (m Multi) Publish(ctx context.Context, ev protocol.Event) error {
	var err error
	for _, p := range m {
		err = multierr.Append(err, p.Publish(ctx, ev))
	}
	return err
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, protocol.Event) error { return nil }
