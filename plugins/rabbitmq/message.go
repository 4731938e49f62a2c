package rabbitmq

import (
	"fmt"
	"strconv"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/miladsoleymani/mqtttester/core"
)

// Header keys carrying MQTT delivery qualifiers across AMQP.
const (
	headerTopic  = "mqtt-topic"
	headerQoS    = "mqtt-qos"
	headerRetain = "mqtt-retain"
)

// routingKey maps an MQTT topic or filter onto an AMQP topic-exchange
// routing key: '/' becomes '.', '+' becomes '*'. '#' keeps its meaning.
func routingKey(topic string) string {
	parts := strings.Split(topic, "/")
	for i, p := range parts {
		if p == "+" {
			parts[i] = "*"
		}
	}
	return strings.Join(parts, ".")
}

func toPublishing(msg core.OutboundMessage) amqp.Publishing {
	mode := amqp.Transient
	if msg.QoS > core.AtMostOnce {
		mode = amqp.Persistent
	}
	return amqp.Publishing{
		Body:         msg.Payload,
		DeliveryMode: mode,
		Headers: amqp.Table{
			headerTopic:  msg.Topic,
			headerQoS:    int32(msg.QoS),
			headerRetain: msg.Retain,
		},
	}
}

// toReceived adapts an amqp.Delivery to core.ReceivedMessage.
func toReceived(d amqp.Delivery) core.ReceivedMessage {
	out := core.ReceivedMessage{
		Topic:     d.RoutingKey,
		Payload:   d.Body,
		Duplicate: d.Redelivered,
	}
	if t, ok := d.Headers[headerTopic].(string); ok {
		out.Topic = t
	}
	switch q := d.Headers[headerQoS].(type) {
	case int32:
		out.QoS = core.QoS(q)
	case string:
		if n, err := strconv.Atoi(q); err == nil {
			out.QoS = core.QoS(n)
		}
	}
	switch r := d.Headers[headerRetain].(type) {
	case bool:
		out.Retain = r
	case string:
		out.Retain, _ = strconv.ParseBool(r)
	}
	return out
}

func queueName(prefix, topic string) string {
	return fmt.Sprintf("%s.%s", prefix, routingKey(topic))
}
