package mqtt

import (
	"context"
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
)

func init() {
	broker.Register("mqtt", func(cfg broker.Config) (core.Transport, error) {
		opts := optsFromConfig(cfg)
		return New(cfg.Brokers, cfg.ClientID, opts...)
	})
}

// Broker implements core.Transport for MQTT 3.1.1 using paho.mqtt.golang.
//
// Design decisions:
//   - One paho client per Broker instance, auto-reconnect enabled.
//   - Subscription callbacks push straight into the core.Sender; Send never
//     blocks, so paho's ordered delivery goroutine is never held up.
//   - Publish waits for the token, bounded by the caller's context.
//   - Graceful shutdown: context cancellation unsubscribes, Close()
//     disconnects after a short quiesce period.
type Broker struct {
	client paho.Client
	opts   options

	mu     sync.Mutex
	closed bool
}

// New connects an MQTT Broker. brokers are URLs like tcp://host:1883.
func New(brokers []string, clientID string, fns ...Option) (*Broker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("mqtttester/mqtt: at least one broker URL is required")
	}

	opts := defaults()
	for _, fn := range fns {
		fn(&opts)
	}

	co := paho.NewClientOptions().
		SetClientID(clientID).
		SetUsername(opts.username).
		SetPassword(opts.password).
		SetCleanSession(opts.cleanSession).
		SetKeepAlive(opts.keepAlive).
		SetConnectTimeout(opts.connectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			opts.logger.WithError(err).Warn("mqtt connection lost")
		}).
		SetOnConnectHandler(func(paho.Client) {
			opts.logger.WithField("client_id", clientID).Info("mqtt connected")
		})
	for _, b := range brokers {
		co.AddBroker(b)
	}

	client := paho.NewClient(co)
	tok := client.Connect()
	if !tok.WaitTimeout(opts.connectTimeout) {
		return nil, fmt.Errorf("mqtttester/mqtt: connect to %v: timed out after %s", brokers, opts.connectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtttester/mqtt: connect to %v: %w", brokers, err)
	}

	return newWithClient(client, opts), nil
}

func newWithClient(client paho.Client, opts options) *Broker {
	return &Broker{client: client, opts: opts}
}

// Publish sends msg with its own QoS and retain flag.
func (b *Broker) Publish(ctx context.Context, msg core.OutboundMessage) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	tok := b.client.Publish(msg.Topic, byte(msg.QoS), msg.Retain, msg.Payload)
	if err := wait(ctx, tok); err != nil {
		return fmt.Errorf("mqtttester/mqtt: publish to %q: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe subscribes to topic and forwards every publication to sender
// until the context is cancelled.
func (b *Broker) Subscribe(ctx context.Context, topic string, sender *core.Sender) error {
	if b.isClosed() {
		return core.ErrBrokerClosed
	}

	log := b.opts.logger.WithField("topic", topic)
	tok := b.client.Subscribe(topic, byte(b.opts.subscribeQoS), func(_ paho.Client, m paho.Message) {
		if err := sender.Send(toReceived(m)); err != nil {
			log.WithError(err).Warn("dropping publication")
		}
	})
	if err := wait(ctx, tok); err != nil {
		return fmt.Errorf("mqtttester/mqtt: subscribe to %q: %w", topic, err)
	}
	log.WithField("qos", b.opts.subscribeQoS.String()).Info("subscribed")

	// Block until context is cancelled
	<-ctx.Done()

	if !b.isClosed() {
		tok = b.client.Unsubscribe(topic)
		if tok.WaitTimeout(b.opts.quiesce) && tok.Error() != nil {
			log.WithError(tok.Error()).Warn("unsubscribe failed")
		}
	}
	return nil
}

// Close disconnects the client.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	b.client.Disconnect(uint(b.opts.quiesce.Milliseconds()))
	return nil
}

func (b *Broker) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func wait(ctx context.Context, tok paho.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// optsFromConfig extracts options from broker.Config.
func optsFromConfig(cfg broker.Config) []Option {
	var opts []Option
	if cfg.Username != "" {
		opts = append(opts, WithCredentials(cfg.Username, cfg.Password))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, WithConnectTimeout(cfg.ConnectTimeout))
	}
	if cfg.Extra == nil {
		return opts
	}
	if v, ok := cfg.Extra["subscribe_qos"].(int); ok {
		opts = append(opts, WithSubscribeQoS(core.QoS(v)))
	}
	if v, ok := cfg.Extra["clean_session"].(bool); ok {
		opts = append(opts, WithCleanSession(v))
	}
	if l, ok := cfg.Extra["logger"].(logrus.FieldLogger); ok {
		opts = append(opts, WithLogger(l))
	}
	return opts
}
