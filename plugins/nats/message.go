package nats

import (
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/miladsoleymani/mqtttester/core"
)

// Header keys carrying MQTT delivery qualifiers across NATS.
const (
	headerTopic  = "Mqtt-Topic"
	headerQoS    = "Mqtt-Qos"
	headerRetain = "Mqtt-Retain"
)

// subject maps an MQTT topic or filter onto a NATS subject:
// levels are separated by '.', '+' becomes '*' and '#' becomes '>'.
func subject(topic string) string {
	parts := strings.Split(topic, "/")
	for i, p := range parts {
		switch p {
		case "+":
			parts[i] = "*"
		case "#":
			parts[i] = ">"
		}
	}
	return strings.Join(parts, ".")
}

func toHeaders(msg core.OutboundMessage) nats.Header {
	h := nats.Header{}
	h.Set(headerTopic, msg.Topic)
	h.Set(headerQoS, strconv.Itoa(int(msg.QoS)))
	h.Set(headerRetain, strconv.FormatBool(msg.Retain))
	return h
}

// toReceived adapts a JetStream message to core.ReceivedMessage.
func toReceived(m jetstream.Msg) core.ReceivedMessage {
	h := m.Headers()
	out := core.ReceivedMessage{
		Topic:   m.Subject(),
		Payload: m.Data(),
	}
	if t := h.Get(headerTopic); t != "" {
		out.Topic = t
	}
	if q, err := strconv.Atoi(h.Get(headerQoS)); err == nil {
		out.QoS = core.QoS(q)
	}
	out.Retain, _ = strconv.ParseBool(h.Get(headerRetain))
	if md, err := m.Metadata(); err == nil {
		out.Duplicate = md.NumDelivered > 1
	}
	return out
}
