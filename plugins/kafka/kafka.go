package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
)

func init() {
	broker.Register("kafka", func(cfg broker.Config) (core.Transport, error) {
		opts := optsFromConfig(cfg)
		return New(cfg.Brokers, cfg.ClientID, opts...)
	})
}

// Broker implements core.Transport for Apache Kafka using segmentio/kafka-go.
//
// Design decisions:
//   - MQTT topics map to Kafka topics with '/' replaced by '.'; the original
//     topic, QoS and retain flag travel as record headers.
//   - One kafka.Writer shared across all Publish calls (thread-safe by library).
//   - One kafka.Reader per Subscribe call, each running in its own goroutine.
//   - The offset is committed once the record is queued on the Sender.
//   - Graceful shutdown: context cancellation breaks the fetch loop, Close()
//     flushes the writer and closes all readers.
type Broker struct {
	brokers []string
	group   string
	opts    options

	writer  *kafka.Writer
	readers []*kafka.Reader
	mu      sync.Mutex
	closed  bool
}

// New creates a Kafka Broker.
func New(brokers []string, group string, fns ...Option) (*Broker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("mqtttester/kafka: at least one broker address is required")
	}

	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     opts.balancer,
		BatchSize:    opts.batchSize,
		BatchTimeout: opts.batchTimeout,
		Async:        opts.async,
		RequiredAcks: kafka.RequireAll,
	}
	if opts.dialer != nil {
		w.Transport = &kafka.Transport{
			TLS:  opts.dialer.TLS,
			SASL: opts.dialer.SASLMechanism,
		}
	}

	return &Broker{
		brokers: brokers,
		group:   group,
		opts:    opts,
		writer:  w,
	}, nil
}

// Publish writes msg to the Kafka topic derived from its MQTT topic.
func (b *Broker) Publish(ctx context.Context, msg core.OutboundMessage) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return core.ErrBrokerClosed
	}
	b.mu.Unlock()

	topic, err := kafkaTopic(msg.Topic)
	if err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, toKafka(topic, msg)); err != nil {
		return fmt.Errorf("mqtttester/kafka: publish to %q: %w", topic, err)
	}
	return nil
}

// Subscribe creates a consumer for the topic and blocks, feeding records
// into sender until the context is cancelled.
func (b *Broker) Subscribe(ctx context.Context, topic string, sender *core.Sender) error {
	kt, err := kafkaTopic(topic)
	if err != nil {
		return err
	}

	cfg := kafka.ReaderConfig{
		Brokers:  b.brokers,
		Topic:    kt,
		GroupID:  b.group,
		MinBytes: b.opts.minBytes,
		MaxBytes: b.opts.maxBytes,
		MaxWait:  b.opts.maxWait,
	}
	if b.opts.dialer != nil {
		cfg.Dialer = b.opts.dialer
	}
	if b.group == "" {
		cfg.StartOffset = b.opts.startOffset
	}

	r := kafka.NewReader(cfg)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		r.Close()
		return core.ErrBrokerClosed
	}
	b.readers = append(b.readers, r)
	b.mu.Unlock()

	return b.consumeLoop(ctx, r, sender)
}

// consumeLoop fetches records and queues them on the sender.
func (b *Broker) consumeLoop(ctx context.Context, r *kafka.Reader, sender *core.Sender) error {
	for {
		raw, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil // graceful shutdown
			}
			return fmt.Errorf("mqtttester/kafka: fetch: %w", err)
		}

		if err := sender.Send(toReceived(raw)); err != nil {
			// The channel is gone; leave the offset uncommitted so the
			// record is redelivered to the next run.
			return fmt.Errorf("mqtttester/kafka: queue record: %w", err)
		}
		if b.group != "" {
			if err := r.CommitMessages(ctx, raw); err != nil && ctx.Err() == nil {
				return fmt.Errorf("mqtttester/kafka: commit offset: %w", err)
			}
		}
	}
}

// Close flushes the writer and closes all readers.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("mqtttester/kafka: close writer: %w", err))
	}
	for _, r := range b.readers {
		if err := r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mqtttester/kafka: close reader: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// optsFromConfig extracts options from broker.Config.Extra.
func optsFromConfig(cfg broker.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["batch_size"].(int); ok {
		opts = append(opts, WithBatchSize(v))
	}
	if v, ok := cfg.Extra["async"].(bool); ok {
		opts = append(opts, WithAsync(v))
	}
	return opts
}
