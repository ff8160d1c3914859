package middleware

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/delaymux/delaymux/core"
)

// Recovery returns middleware that recovers from panics in the wrapped
// destination, logs the stack trace, and returns the panic as an error. On
// the scheduled release path that error then takes the normal error route
// instead of killing the scheduler goroutine.
func Recovery(log logrus.FieldLogger) Middleware {
	return func(next core.Destination) core.Destination {
		return core.DestinationFunc(func(ctx context.Context, msg *core.Message) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					log.WithField("message", msg.ID()).
						Errorf("delaymux: panic recovered: %v\n%s", r, buf[:n])
					err = fmt.Errorf("delaymux: panic recovered: %v", r)
				}
			}()
			return next.Accept(ctx, msg)
		})
	}
}
