package redisstream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/miladsoleymani/mqtttester/core"
)

// Stream entry fields.
const (
	fieldTopic   = "topic"
	fieldPayload = "payload"
	fieldQoS     = "qos"
	fieldRetain  = "retain"
)

// streamKey maps an MQTT topic onto a stream key. Wildcard filters have
// no stream equivalent.
func streamKey(prefix, topic string) (string, error) {
	if strings.ContainsAny(topic, "+#") {
		return "", fmt.Errorf("mqtttester/redis: wildcard topic %q is not supported", topic)
	}
	return prefix + topic, nil
}

func toValues(msg core.OutboundMessage) map[string]any {
	return map[string]any{
		fieldTopic:   msg.Topic,
		fieldPayload: msg.Payload,
		fieldQoS:     int(msg.QoS),
		fieldRetain:  strconv.FormatBool(msg.Retain),
	}
}

// toReceived adapts a stream entry to core.ReceivedMessage. Redis hands
// every field back as a string.
func toReceived(m redis.XMessage) core.ReceivedMessage {
	var out core.ReceivedMessage
	if v, ok := m.Values[fieldTopic].(string); ok {
		out.Topic = v
	}
	if v, ok := m.Values[fieldPayload].(string); ok {
		out.Payload = []byte(v)
	}
	if v, ok := m.Values[fieldQoS].(string); ok {
		if q, err := strconv.Atoi(v); err == nil {
			out.QoS = core.QoS(q)
		}
	}
	if v, ok := m.Values[fieldRetain].(string); ok {
		out.Retain, _ = strconv.ParseBool(v)
	}
	return out
}
