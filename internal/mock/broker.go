package mock

import (
	"context"
	"sync"

	"github.com/miladsoleymani/mqtttester/core"
)

var _ core.Transport = (*Transport)(nil)

// Transport is a test double for core.Transport.
type Transport struct {
	mu           sync.Mutex
	published    []core.OutboundMessage
	senders      map[string]*core.Sender
	subscribed   chan string
	SubscribeErr error
	PublishErr   error
	closed       bool
}

func NewTransport() *Transport {
	return &Transport{
		senders:    make(map[string]*core.Sender),
		subscribed: make(chan string, 16),
	}
}

func (t *Transport) Publish(_ context.Context, msg core.OutboundMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return core.ErrBrokerClosed
	}
	if t.PublishErr != nil {
		return t.PublishErr
	}
	t.published = append(t.published, msg)
	return nil
}

func (t *Transport) Subscribe(ctx context.Context, topic string, sender *core.Sender) error {
	t.mu.Lock()
	if t.SubscribeErr != nil {
		err := t.SubscribeErr
		t.mu.Unlock()
		return err
	}
	t.senders[topic] = sender
	t.mu.Unlock()
	t.subscribed <- topic

	// Block until context is cancelled (simulates a real subscription loop)
	<-ctx.Done()
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Subscribed returns a channel yielding each topic once its subscription
// is registered.
func (t *Transport) Subscribed() <-chan string { return t.subscribed }

// Deliver simulates an incoming publication on a subscribed topic.
func (t *Transport) Deliver(msg core.ReceivedMessage) error {
	t.mu.Lock()
	s, ok := t.senders[msg.Topic]
	t.mu.Unlock()
	if !ok {
		return core.ErrChannelClosed
	}
	return s.Send(msg)
}

// Published returns all messages sent via Publish.
func (t *Transport) Published() []core.OutboundMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.OutboundMessage, len(t.published))
	copy(out, t.published)
	return out
}

// IsClosed reports whether Close was called.
func (t *Transport) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
