package middleware

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/core"
)

// Recovery returns middleware that recovers from panics in handlers,
// logs the stack trace, and returns the panic as an error. The error
// still stops the message channel.
func Recovery(logger logrus.FieldLogger) core.Middleware {
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx context.Context, msg core.ReceivedMessage) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					logger.WithField("stack", string(buf[:n])).Errorf("panic recovered: %v", r)
					err = fmt.Errorf("mqtttester: panic recovered: %v", r)
				}
			}()
			return next.Handle(ctx, msg)
		})
	}
}
