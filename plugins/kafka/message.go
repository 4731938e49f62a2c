package kafka

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/miladsoleymani/mqtttester/core"
)

// Header keys carrying MQTT delivery qualifiers across Kafka.
const (
	headerTopic  = "mqtt-topic"
	headerQoS    = "mqtt-qos"
	headerRetain = "mqtt-retain"
)

// kafkaTopic maps an MQTT topic onto a Kafka topic name. Wildcard
// filters have no Kafka equivalent.
func kafkaTopic(topic string) (string, error) {
	if strings.ContainsAny(topic, "+#") {
		return "", fmt.Errorf("mqtttester/kafka: wildcard topic %q is not supported", topic)
	}
	return strings.ReplaceAll(topic, "/", "."), nil
}

func toKafka(topic string, msg core.OutboundMessage) kafka.Message {
	return kafka.Message{
		Topic: topic,
		Key:   []byte(msg.Topic),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: headerTopic, Value: []byte(msg.Topic)},
			{Key: headerQoS, Value: []byte(strconv.Itoa(int(msg.QoS)))},
			{Key: headerRetain, Value: []byte(strconv.FormatBool(msg.Retain))},
		},
	}
}

// toReceived adapts a kafka.Message to core.ReceivedMessage.
func toReceived(raw kafka.Message) core.ReceivedMessage {
	out := core.ReceivedMessage{
		Topic:   raw.Topic,
		Payload: raw.Value,
	}
	for _, h := range raw.Headers {
		switch h.Key {
		case headerTopic:
			out.Topic = string(h.Value)
		case headerQoS:
			if q, err := strconv.Atoi(string(h.Value)); err == nil {
				out.QoS = core.QoS(q)
			}
		case headerRetain:
			out.Retain, _ = strconv.ParseBool(string(h.Value))
		}
	}
	return out
}
