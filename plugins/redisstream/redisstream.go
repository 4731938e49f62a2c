package redisstream

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
)

func init() {
	broker.Register("redis", func(cfg broker.Config) (core.Transport, error) {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("mqtttester/redis: at least one broker address is required")
		}
		opts := optsFromConfig(cfg)
		return New(&redis.Options{
			Addr:        cfg.Brokers[0],
			Username:    cfg.Username,
			Password:    cfg.Password,
			DialTimeout: cfg.ConnectTimeout,
		}, opts...)
	})
}

// Broker implements core.Transport on Redis Streams using go-redis.
//
// Design decisions:
//   - One stream per MQTT topic, keyed "<prefix><topic>".
//   - Publish is a single XADD with approximate MAXLEN trimming.
//   - Subscribe runs a blocking XREAD loop per topic and tracks the last id
//     locally; there is no consumer group, so every subscriber sees every entry.
//   - Graceful shutdown: context cancellation ends the read loop, Close()
//     closes the client.
type Broker struct {
	client *redis.Client
	opts   options

	mu     sync.Mutex
	closed bool
}

// New creates a Redis Streams Broker and pings the server.
func New(ro *redis.Options, fns ...Option) (*Broker, error) {
	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}
	ro.DB = opts.db

	client := redis.NewClient(ro)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("mqtttester/redis: ping %q: %w", ro.Addr, err)
	}
	return &Broker{client: client, opts: opts}, nil
}

// Publish appends msg to the stream for its topic.
func (b *Broker) Publish(ctx context.Context, msg core.OutboundMessage) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	key, err := streamKey(b.opts.keyPrefix, msg.Topic)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: key,
		Values: toValues(msg),
	}
	if b.opts.maxLen > 0 {
		args.MaxLen = b.opts.maxLen
		args.Approx = true
	}
	if err := b.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("mqtttester/redis: publish to %q: %w", key, err)
	}
	return nil
}

// Subscribe reads the stream for topic and feeds entries into sender
// until the context is cancelled.
func (b *Broker) Subscribe(ctx context.Context, topic string, sender *core.Sender) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	key, err := streamKey(b.opts.keyPrefix, topic)
	if err != nil {
		return err
	}

	lastID := b.opts.startID
	for {
		streams, err := b.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{key, lastID},
			Count:   b.opts.count,
			Block:   b.opts.block,
		}).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil // graceful shutdown
			}
			if errors.Is(err, redis.Nil) {
				continue // block timed out
			}
			return fmt.Errorf("mqtttester/redis: read %q: %w", key, err)
		}

		for _, s := range streams {
			for _, m := range s.Messages {
				if err := sender.Send(toReceived(m)); err != nil {
					return fmt.Errorf("mqtttester/redis: queue entry %s: %w", m.ID, err)
				}
				lastID = m.ID
			}
		}
	}
}

// Close closes the Redis client.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.client.Close(); err != nil {
		return fmt.Errorf("mqtttester/redis: close: %w", err)
	}
	return nil
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// optsFromConfig extracts options from broker.Config.Extra.
func optsFromConfig(cfg broker.Config) []Option {
	if cfg.Extra == nil {
		return nil
	}
	var opts []Option
	if v, ok := cfg.Extra["db"].(int); ok {
		opts = append(opts, WithDB(v))
	}
	if v, ok := cfg.Extra["key_prefix"].(string); ok {
		opts = append(opts, WithKeyPrefix(v))
	}
	if v, ok := cfg.Extra["start_id"].(string); ok {
		opts = append(opts, WithStartID(v))
	}
	return opts
}
