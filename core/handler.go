package core

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler takes some action for every publication pulled off the
// message channel. A returned error stops the channel.
type Handler interface {
	Handle(ctx context.Context, msg ReceivedMessage) error
}

// HandlerFunc adapts a plain function to Handler.
//
//	ch, sender, shutdown := core.NewMessageChannel(core.HandlerFunc(
//	    func(ctx context.Context, msg core.ReceivedMessage) error {
//	        fmt.Printf("%s: %x\n", msg.Topic, msg.Payload)
//	        return nil
//	    }))
type HandlerFunc func(ctx context.Context, msg ReceivedMessage) error

func (f HandlerFunc) Handle(ctx context.Context, msg ReceivedMessage) error {
	return f(ctx, msg)
}

// Middleware wraps a Handler to add cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain wraps h with middleware in reverse order.
// Given middleware [A, B, C], the call order is A -> B -> C -> h.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// HandlerOption configures the built-in handlers.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	parser SequenceParser
	clock  func() time.Time
	logger logrus.FieldLogger
}

func handlerDefaults() handlerOptions {
	return handlerOptions{
		parser: PayloadSequenceParser{},
		clock:  func() time.Time { return time.Now().UTC() },
		logger: logrus.StandardLogger(),
	}
}

// WithSequenceParser replaces the parser used to pull sequence numbers
// out of received publications.
func WithSequenceParser(p SequenceParser) HandlerOption {
	return func(o *handlerOptions) { o.parser = p }
}

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) HandlerOption {
	return func(o *handlerOptions) { o.clock = now }
}

// WithLogger sets the handler logger.
func WithLogger(l logrus.FieldLogger) HandlerOption {
	return func(o *handlerOptions) { o.logger = l }
}
