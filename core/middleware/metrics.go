package middleware

import (
	"context"
	"time"

	"github.com/delaymux/delaymux/core"
)

// MetricsCollector is the interface that metrics backends must implement.
// This keeps the middleware decoupled from any specific metrics library.
type MetricsCollector interface {
	// MessageAccepted records a completed accept attempt. duration is the
	// time the destination took, and err is nil on success.
	MessageAccepted(msg *core.Message, duration time.Duration, err error)
}

// Metrics returns middleware that reports accept outcomes to the collector.
func Metrics(collector MetricsCollector) Middleware {
	return func(next core.Destination) core.Destination {
		return core.DestinationFunc(func(ctx context.Context, msg *core.Message) error {
			start := time.Now()
			err := next.Accept(ctx, msg)
			collector.MessageAccepted(msg, time.Since(start), err)
			return err
		})
	}
}
