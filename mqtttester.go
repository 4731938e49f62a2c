// Package mqtttester provides the top-level API for the tester's message
// dispatch core. It re-exports core types for convenience, so users can
// write:
//
//	ch, sender, shutdown := mqtttester.New(handler)
//	go transport.Subscribe(ctx, "forwards/1", sender)
//	err := ch.Run(ctx)
package mqtttester

import (
	"github.com/miladsoleymani/mqtttester/core"
)

// Re-export core types at the package level for ergonomic usage.
type (
	ReceivedMessage   = core.ReceivedMessage
	OutboundMessage   = core.OutboundMessage
	Handler           = core.Handler
	HandlerFunc       = core.HandlerFunc
	Middleware        = core.Middleware
	Transport         = core.Transport
	Reporter          = core.Reporter
	MessageChannel    = core.MessageChannel
	Sender            = core.Sender
	ShutdownHandle    = core.ShutdownHandle
	ReportResultError = core.ReportResultError
	PublishError      = core.PublishError
)

// New creates a MessageChannel dispatching to h.
func New(h Handler, fns ...core.ChannelOption) (*MessageChannel, *Sender, *ShutdownHandle) {
	return core.NewMessageChannel(h, fns...)
}
