package middleware

import (
	"context"

	"github.com/miladsoleymani/mqtttester/core"
)

// Filter returns middleware that only passes publications whose topic
// matches filter. Anything else is dropped without error, which keeps
// stray deliveries from an old persistent session out of the handler.
func Filter(filter string, m core.TopicMatcher) core.Middleware {
	if m == nil {
		m = core.DefaultMatcher{}
	}
	return func(next core.Handler) core.Handler {
		return core.HandlerFunc(func(ctx context.Context, msg core.ReceivedMessage) error {
			if !m.Match(filter, msg.Topic) {
				return nil
			}
			return next.Handle(ctx, msg)
		})
	}
}
