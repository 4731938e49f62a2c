package mqtt

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/core"
)

// Option configures the MQTT broker.
type Option func(*options)

type options struct {
	// Connection
	username       string
	password       string
	cleanSession   bool
	keepAlive      time.Duration
	connectTimeout time.Duration
	quiesce        time.Duration

	// Subscription
	subscribeQoS core.QoS

	logger logrus.FieldLogger
}

func defaults() options {
	return options{
		cleanSession:   true,
		keepAlive:      30 * time.Second,
		connectTimeout: 10 * time.Second,
		quiesce:        250 * time.Millisecond,
		subscribeQoS:   core.ExactlyOnce,
		logger:         logrus.StandardLogger(),
	}
}

// WithCredentials sets the username and password sent on connect.
func WithCredentials(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithCleanSession controls whether the broker discards session state on connect.
func WithCleanSession(clean bool) Option {
	return func(o *options) { o.cleanSession = clean }
}

// WithKeepAlive sets the keep-alive interval.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.keepAlive = d }
}

// WithConnectTimeout bounds the initial connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// WithSubscribeQoS sets the QoS requested for subscriptions.
func WithSubscribeQoS(q core.QoS) Option {
	return func(o *options) { o.subscribeQoS = q }
}

// WithLogger sets the logger used for connection events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}
