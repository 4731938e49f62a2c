package core

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// MessageChannel sits between a transport's received publications and a
// single Handler. Producers push into it through a Sender; Run pulls
// publications off the queue one at a time and hands them to the handler
// until a ShutdownHandle fires or something fails.
type MessageChannel struct {
	queue    *queue
	shutdown *shutdownSignal
	handler  Handler
	logger   logrus.FieldLogger
	started  atomic.Bool
}

// ChannelOption configures a MessageChannel.
type ChannelOption func(*MessageChannel)

// WithChannelLogger sets the logger used for lifecycle events.
func WithChannelLogger(l logrus.FieldLogger) ChannelOption {
	return func(c *MessageChannel) { c.logger = l }
}

// NewMessageChannel creates a channel dispatching to h. The returned Sender
// and ShutdownHandle are the only producer and stop capabilities; clone them
// to hand out more.
func NewMessageChannel(h Handler, fns ...ChannelOption) (*MessageChannel, *Sender, *ShutdownHandle) {
	c := &MessageChannel{
		queue:    newQueue(),
		shutdown: newShutdownSignal(),
		handler:  h,
		logger:   logrus.StandardLogger(),
	}
	for _, fn := range fns {
		fn(c)
	}
	return c, &Sender{q: c.queue}, &ShutdownHandle{sig: c.shutdown}
}

// Run dispatches publications until the channel terminates. It returns nil
// only after a shutdown signal; any handler error is returned unchanged.
//
// The queue always takes priority over the shutdown signal: while a
// publication is ready it is handled before a pending shutdown is honored,
// so a steady stream of publications can delay shutdown indefinitely.
//
// ctx is passed through to the handler. Cancelling it does not stop Run;
// use a ShutdownHandle for that. Run may be called only once.
func (c *MessageChannel) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer c.queue.stop()

	c.logger.Info("starting message channel")

	var (
		stopping bool
		stopErr  error
	)
	for {
		msg, state := c.queue.pop()
		switch state {
		case popOK:
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.WithError(err).Error("message handler failed")
				return err
			}
			continue
		case popClosed:
			c.logger.Error("failed listening for incoming publication")
			return ErrListenForIncomingPublications
		}

		if stopping {
			if stopErr != nil {
				c.logger.Error("failed listening for shutdown")
				return stopErr
			}
			c.logger.Info("received shutdown signal")
			return nil
		}

		select {
		case <-c.queue.ready:
		case _, ok := <-c.shutdown.ch:
			// Re-poll the queue before acting on the signal.
			stopping = true
			if !ok {
				stopErr = ErrListenForShutdown
			}
		}
	}
}
