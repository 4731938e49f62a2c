package nats

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
)

func init() {
	broker.Register("nats", func(cfg broker.Config) (core.Transport, error) {
		opts := optsFromConfig(cfg)
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("mqtttester/nats: at least one broker URL is required")
		}
		return New(cfg.Brokers[0], cfg.ClientID, opts...)
	})
}

// Broker implements core.Transport for NATS JetStream.
//
// Design decisions:
//   - One NATS connection per Broker instance.
//   - MQTT topics are mapped to subjects ('/' to '.', '+' to '*', '#' to '>');
//     the original topic, QoS and retain flag travel as headers.
//   - Each Subscribe call creates (or updates) a stream and a durable consumer.
//   - A message is acked once it is queued on the Sender, nacked otherwise.
//   - Graceful shutdown: context cancellation stops consumers, Close() closes
//     the connection.
type Broker struct {
	conn  *nats.Conn
	js    jetstream.JetStream
	group string
	opts  options

	mu     sync.Mutex
	closed bool
	subs   []jetstream.ConsumeContext
}

// New creates a NATS JetStream Broker. url is a standard NATS URL (nats://host:port).
func New(url, group string, fns ...Option) (*Broker, error) {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	nc, err := nats.Connect(url, opts.connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("mqtttester/nats: connect to %q: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("mqtttester/nats: init jetstream: %w", err)
	}

	return &Broker{
		conn:  nc,
		js:    js,
		group: group,
		opts:  opts,
	}, nil
}

// Publish sends msg to the subject derived from its topic via JetStream.
func (b *Broker) Publish(ctx context.Context, msg core.OutboundMessage) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrBrokerClosed
	}
	b.mu.Unlock()

	nm := &nats.Msg{
		Subject: subject(msg.Topic),
		Data:    msg.Payload,
		Header:  toHeaders(msg),
	}
	if _, err := b.js.PublishMsg(ctx, nm); err != nil {
		return fmt.Errorf("mqtttester/nats: publish to %q: %w", nm.Subject, err)
	}
	return nil
}

// Subscribe creates or updates a JetStream stream and durable consumer
// for the given topic, then feeds messages into sender until the context
// is cancelled.
func (b *Broker) Subscribe(ctx context.Context, topic string, sender *core.Sender) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrBrokerClosed
	}
	b.mu.Unlock()

	subj := subject(topic)
	streamName := sanitizeStreamName(subj)
	stream, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subj},
		MaxMsgs:   b.opts.maxMsgs,
		MaxBytes:  b.opts.maxBytes,
		MaxAge:    b.opts.maxAge,
		Replicas:  b.opts.replicas,
		Retention: b.opts.retention,
		Storage:   b.opts.storage,
	})
	if err != nil {
		return fmt.Errorf("mqtttester/nats: create stream %q: %w", streamName, err)
	}

	consumerName := b.group
	if consumerName == "" {
		consumerName = "mqtttester-" + streamName
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:    consumerName,
		AckPolicy:  jetstream.AckExplicitPolicy,
		AckWait:    b.opts.ackWait,
		MaxDeliver: b.opts.maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("mqtttester/nats: create consumer %q: %w", consumerName, err)
	}

	cc, err := cons.Consume(func(jsMsg jetstream.Msg) {
		if err := sender.Send(toReceived(jsMsg)); err != nil {
			_ = jsMsg.Nak()
			return
		}
		_ = jsMsg.Ack()
	})
	if err != nil {
		return fmt.Errorf("mqtttester/nats: start consume on %q: %w", consumerName, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, cc)
	b.mu.Unlock()

	// Block until context is cancelled
	<-ctx.Done()
	cc.Stop()
	return nil
}

// Close stops all consumers and closes the NATS connection.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	for _, s := range b.subs {
		s.Stop()
	}
	b.conn.Close()
	return nil
}

// sanitizeStreamName converts a subject pattern to a valid stream name
// by replacing special characters.
func sanitizeStreamName(subj string) string {
	buf := make([]byte, len(subj))
	for i := range len(subj) {
		c := subj[i]
		if c == '.' || c == '*' || c == '>' {
			buf[i] = '-'
		} else {
			buf[i] = c
		}
	}
	return string(buf)
}

// optsFromConfig extracts options from broker.Config.
func optsFromConfig(cfg broker.Config) []Option {
	var opts []Option
	if cfg.Username != "" {
		opts = append(opts, WithConnectOptions(nats.UserInfo(cfg.Username, cfg.Password)))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, WithConnectOptions(nats.Timeout(cfg.ConnectTimeout)))
	}
	if cfg.Extra == nil {
		return opts
	}
	if v, ok := cfg.Extra["max_deliver"].(int); ok {
		opts = append(opts, WithMaxDeliver(v))
	}
	if v, ok := cfg.Extra["replicas"].(int); ok {
		opts = append(opts, WithReplicas(v))
	}
	return opts
}
