package mqtt

import (
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/miladsoleymani/mqtttester/core"
)

// toReceived adapts a paho message to core.ReceivedMessage.
func toReceived(m paho.Message) core.ReceivedMessage {
	return core.ReceivedMessage{
		Topic:     m.Topic(),
		Payload:   m.Payload(),
		QoS:       core.QoS(m.Qos()),
		Retain:    m.Retained(),
		Duplicate: m.Duplicate(),
		MessageID: m.MessageID(),
	}
}
