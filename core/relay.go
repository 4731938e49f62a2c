package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// RelayingHandler republishes every received publication to a fixed
// downstream topic. The payload is forwarded byte-for-byte.
type RelayingHandler struct {
	publisher Publisher
	topic     string
	opts      handlerOptions
}

// NewRelayingHandler creates a handler relaying to topic through publisher.
func NewRelayingHandler(publisher Publisher, topic string, fns ...HandlerOption) *RelayingHandler {
	opts := handlerDefaults()
	for _, fn := range fns {
		fn(&opts)
	}
	return &RelayingHandler{
		publisher: publisher,
		topic:     topic,
		opts:      opts,
	}
}

// Handle publishes msg's payload to the configured topic as a retained,
// exactly-once publication.
func (h *RelayingHandler) Handle(ctx context.Context, msg ReceivedMessage) error {
	h.opts.logger.WithFields(logrus.Fields{
		"topic":           msg.Topic,
		"relay_topic":     h.topic,
		"sequence_number": h.opts.parser.Parse(msg),
	}).Info("relaying publication")

	out := OutboundMessage{
		Topic:   h.topic,
		QoS:     ExactlyOnce,
		Retain:  true,
		Payload: msg.Payload,
	}
	if err := h.publisher.Publish(ctx, out); err != nil {
		return &PublishError{Err: err}
	}
	return nil
}
