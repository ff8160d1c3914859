package mock

import (
	"context"
	"sync"

	"github.com/delaymux/delaymux/core"
)

// Destination is a test double for core.Destination.
type Destination struct {
	mu       sync.Mutex
	accepted []*core.Message

	// AcceptErr, when set, is returned by every Accept call.
	AcceptErr error

	// Block, when set, makes Accept wait until the channel is closed or the
	// context is cancelled. Used to exercise in-progress releases during
	// shutdown.
	Block chan struct{}
}

func NewDestination() *Destination {
	return &Destination{}
}

func (d *Destination) Accept(ctx context.Context, msg *core.Message) error {
	if d.Block != nil {
		select {
		case <-d.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AcceptErr != nil {
		return d.AcceptErr
	}
	d.accepted = append(d.accepted, msg)
	return nil
}

// Accepted returns all messages delivered via Accept.
func (d *Destination) Accepted() []*core.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*core.Message, len(d.accepted))
	copy(out, d.accepted)
	return out
}

// Count returns the number of accepted messages.
func (d *Destination) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.accepted)
}
