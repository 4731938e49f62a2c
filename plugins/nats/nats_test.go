package nats

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/core"
)

func TestSubject(t *testing.T) {
	tests := map[string]string{
		"forwards/1": "forwards.1",
		"forwards/+": "forwards.*",
		"forwards/#": "forwards.>",
		"a/+/b/#":    "a.*.b.>",
		"plain":      "plain",
	}
	for topic, want := range tests {
		require.Equal(t, want, subject(topic), topic)
	}
}

func TestSanitizeStreamName(t *testing.T) {
	require.Equal(t, "forwards-1", sanitizeStreamName("forwards.1"))
	require.Equal(t, "forwards--", sanitizeStreamName("forwards.>"))
}

type fakeMsg struct {
	jetstream.Msg
	subject string
	data    []byte
	headers nats.Header
	md      *jetstream.MsgMetadata
}

func (m fakeMsg) Subject() string      { return m.subject }
func (m fakeMsg) Data() []byte         { return m.data }
func (m fakeMsg) Headers() nats.Header { return m.headers }

func (m fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	if m.md == nil {
		return nil, errors.New("no metadata")
	}
	return m.md, nil
}

func TestHeadersRoundTrip(t *testing.T) {
	out := core.OutboundMessage{Topic: "backwards/1", QoS: core.ExactlyOnce, Retain: true, Payload: []byte{1, 2, 3}}

	got := toReceived(fakeMsg{
		subject: subject(out.Topic),
		data:    out.Payload,
		headers: toHeaders(out),
		md:      &jetstream.MsgMetadata{NumDelivered: 2},
	})

	require.Equal(t, core.ReceivedMessage{
		Topic:     "backwards/1",
		Payload:   []byte{1, 2, 3},
		QoS:       core.ExactlyOnce,
		Retain:    true,
		Duplicate: true,
	}, got)
}

func TestToReceived_NoHeaders(t *testing.T) {
	got := toReceived(fakeMsg{subject: "forwards.1", data: []byte("x")})
	require.Equal(t, core.ReceivedMessage{Topic: "forwards.1", Payload: []byte("x")}, got)
}
