package core

import "errors"

var (
	// ErrNoOutputDestination is returned when neither a fixed output
	// destination nor a resolvable reply-destination header is available.
	ErrNoOutputDestination = errors.New("delaymux: unable to resolve output destination")

	// ErrDestinationNotFound is returned by a Resolver when no destination
	// is registered under the requested name.
	ErrDestinationNotFound = errors.New("delaymux: destination not found")

	// ErrNoResolver is returned when a header names a destination by string
	// but the handler was built without a Resolver.
	ErrNoResolver = errors.New("delaymux: resolver is required for resolving destinations by name")

	// ErrSchedulerStopped is returned when work is scheduled after shutdown.
	ErrSchedulerStopped = errors.New("delaymux: scheduler is stopped")
)
