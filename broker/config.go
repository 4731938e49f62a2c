package broker

import "time"

// Config holds broker-agnostic configuration.
// Broker plugins extract the fields they need.
type Config struct {
	// Brokers is a list of broker addresses (e.g., "tcp://localhost:1883").
	Brokers []string

	// ClientID identifies this tester to the broker. Plugins that have a
	// notion of consumer groups use it as the group name.
	ClientID string

	// Username and Password authenticate against the broker when set.
	Username string
	Password string

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration

	// Extra holds plugin-specific configuration.
	Extra map[string]any
}
