package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/delaymux/delaymux/core"
)

// Middleware decorates a Destination with cross-cutting behavior.
type Middleware func(core.Destination) core.Destination

// Chain wraps d with the given middleware. The first middleware is the
// outermost: Chain(d, A, B) accepts through A -> B -> d.
func Chain(d core.Destination, mws ...Middleware) core.Destination {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// Logging returns middleware that logs accept duration and errors.
func Logging(log logrus.FieldLogger) Middleware {
	return func(next core.Destination) core.Destination {
		return core.DestinationFunc(func(ctx context.Context, msg *core.Message) error {
			start := time.Now()
			err := next.Accept(ctx, msg)
			entry := log.WithField("message", msg.ID()).WithField("elapsed", time.Since(start))
			if err != nil {
				entry.WithError(err).Error("delaymux: accept failed")
			} else {
				entry.Debug("delaymux: accepted")
			}
			return err
		})
	}
}
