package core

import "context"

// QoS is the MQTT delivery guarantee level.
type QoS byte

const (
	AtMostOnce  QoS = 0
	AtLeastOnce QoS = 1
	ExactlyOnce QoS = 2
)

func (q QoS) String() string {
	switch q {
	case AtMostOnce:
		return "at-most-once"
	case AtLeastOnce:
		return "at-least-once"
	case ExactlyOnce:
		return "exactly-once"
	default:
		return "unknown"
	}
}

// ReceivedMessage is a publication delivered by a transport subscription.
// Delivery metadata is carried through untouched.
type ReceivedMessage struct {
	Topic     string
	Payload   []byte
	QoS       QoS
	Retain    bool
	Duplicate bool
	MessageID uint16
}

// OutboundMessage is a publication to be sent through a Publisher.
type OutboundMessage struct {
	Topic   string
	QoS     QoS
	Retain  bool
	Payload []byte
}

// Publisher sends outbound publications to a broker.
type Publisher interface {
	Publish(ctx context.Context, msg OutboundMessage) error
}

// Subscriber feeds publications received on topic into sender.
// Subscribe blocks until ctx is cancelled or the subscription fails.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, sender *Sender) error
}

// Transport is the contract every broker plugin implements.
type Transport interface {
	Publisher
	Subscriber
	Close() error
}
