package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// releaser performs the actual forwarding of a released message: it resolves
// the outbound destination and sends, and on the scheduled path routes
// failures to an error destination instead of any caller.
type releaser struct {
	resolver Resolver
	log      logrus.FieldLogger
}

// release resolves the outbound destination for msg and forwards it. Errors
// are returned to the caller; Handle uses this directly for immediate
// releases, the scheduled path goes through releaseAndReport.
func (r *releaser) release(ctx context.Context, msg *Message, cfg config) error {
	dest, err := r.resolveOutput(msg, cfg)
	if err != nil {
		return err
	}
	return r.send(ctx, dest, msg, cfg.sendTimeout)
}

// releaseAndReport wraps release for the scheduled path: no failure escapes.
// A failed release becomes an error report sent to the resolved error
// destination, or a warning log when none is available.
func (r *releaser) releaseAndReport(ctx context.Context, msg *Message, cfg config) {
	err := r.release(ctx, msg, cfg)
	if err == nil {
		return
	}

	relErr := &ReleaseError{Msg: msg, Err: err}
	errDest := r.resolveErrorDestination(msg)
	if errDest == nil {
		r.log.WithError(relErr).Warn("delaymux: no error destination available, release failure will be ignored")
		return
	}
	report := NewErrorMessage(msg, err)
	if sendErr := r.send(ctx, errDest, report, cfg.sendTimeout); sendErr != nil {
		r.log.WithError(sendErr).WithField("cause", relErr).
			Warn("delaymux: failed to deliver release failure to error destination")
	}
}

// resolveOutput applies the outbound precedence: the fixed configured output
// first, then the reply-destination header.
func (r *releaser) resolveOutput(msg *Message, cfg config) (Destination, error) {
	if cfg.output != nil {
		return cfg.output, nil
	}
	dest, err := r.destinationFromHeader(msg, HeaderReplyDestination)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, fmt.Errorf("%w for %s", ErrNoOutputDestination, msg)
	}
	return dest, nil
}

// resolveErrorDestination never fails: header trouble is downgraded to a
// warning and the well-known default name is tried via the resolver instead.
func (r *releaser) resolveErrorDestination(msg *Message) Destination {
	dest, err := r.destinationFromHeader(msg, HeaderErrorDestination)
	if err != nil {
		r.log.WithError(err).Warn("delaymux: failed to resolve error destination from header")
	}
	if dest == nil && r.resolver != nil {
		if d, err := r.resolver.Resolve(DefaultErrorDestinationName); err == nil {
			dest = d
		}
	}
	return dest
}

// destinationFromHeader interprets a header value as either a Destination or
// a name resolved through the resolver. A missing header yields (nil, nil).
func (r *releaser) destinationFromHeader(msg *Message, header string) (Destination, error) {
	v, ok := msg.Header(header)
	if !ok || v == nil {
		return nil, nil
	}
	switch hv := v.(type) {
	case Destination:
		return hv, nil
	case string:
		if r.resolver == nil {
			return nil, fmt.Errorf("%w (header %q)", ErrNoResolver, header)
		}
		d, err := r.resolver.Resolve(hv)
		if err != nil {
			return nil, fmt.Errorf("delaymux: resolve %q from header %q: %w", hv, header, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("delaymux: header %q must carry a Destination or a string, got %T", header, v)
	}
}

// send forwards msg to d, bounding the attempt by the configured timeout.
func (r *releaser) send(ctx context.Context, d Destination, msg *Message, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.Accept(ctx, msg); err != nil {
		return fmt.Errorf("delaymux: send %s: %w", msg, err)
	}
	return nil
}
