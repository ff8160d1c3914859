// Package delaymux provides the top-level API for the delaymux library.
// It re-exports core types for convenience, so users can write:
//
//	h := delaymux.New(5*time.Second, delaymux.WithOutput(dest))
//	h.Handle(ctx, delaymux.NewMessage(payload))
//	h.Shutdown()
package delaymux

import (
	"time"

	"github.com/delaymux/delaymux/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	Message         = core.Message
	Destination     = core.Destination
	DestinationFunc = core.DestinationFunc
	Resolver        = core.Resolver
	Registry        = core.Registry
	Handler         = core.Handler
	Scheduler       = core.Scheduler
	Task            = core.Task
	Option          = core.Option
	Clock           = core.Clock
	ReleaseError    = core.ReleaseError
)

// Well-known header names and the default error destination name.
const (
	HeaderReplyDestination      = core.HeaderReplyDestination
	HeaderErrorDestination      = core.HeaderErrorDestination
	DefaultErrorDestinationName = core.DefaultErrorDestinationName
)

// Handler construction options, re-exported from core.
var (
	WithDelayHeader            = core.WithDelayHeader
	WithOutput                 = core.WithOutput
	WithResolver               = core.WithResolver
	WithSendTimeout            = core.WithSendTimeout
	WithClock                  = core.WithClock
	WithLogger                 = core.WithLogger
	WithScheduler              = core.WithScheduler
	WithWaitForTasksOnShutdown = core.WithWaitForTasksOnShutdown
	WithOrder                  = core.WithOrder
)

// New creates a delay Handler with the given default delay.
func New(defaultDelay time.Duration, opts ...Option) *Handler {
	return core.NewHandler(defaultDelay, opts...)
}

// NewMessage creates a Message with the given payload and no headers.
func NewMessage(payload any) *Message {
	return core.NewMessage(payload)
}

// NewRegistry creates an empty in-memory destination Registry.
func NewRegistry() *Registry {
	return core.NewRegistry()
}
