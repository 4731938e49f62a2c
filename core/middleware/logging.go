package middleware

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/core"
)

// Logging returns middleware that logs message processing duration and errors.
func Logging(logger logrus.FieldLogger) core.Middleware {
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx context.Context, msg core.ReceivedMessage) error {
			start := time.Now()
			err := next.Handle(ctx, msg)

			entry := logger.WithFields(logrus.Fields{
				"topic":   msg.Topic,
				"qos":     msg.QoS.String(),
				"bytes":   len(msg.Payload),
				"elapsed": time.Since(start),
			})
			if err != nil {
				entry.WithError(err).Error("handling publication failed")
			} else {
				entry.Debug("handled publication")
			}
			return err
		})
	}
}
