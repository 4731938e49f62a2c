package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
)

func TestKafkaTopic(t *testing.T) {
	got, err := kafkaTopic("backwards/1")
	require.NoError(t, err)
	require.Equal(t, "backwards.1", got)

	_, err = kafkaTopic("forwards/+")
	require.Error(t, err)
	_, err = kafkaTopic("forwards/#")
	require.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	out := core.OutboundMessage{Topic: "backwards/1", QoS: core.ExactlyOnce, Retain: true, Payload: []byte{1, 2, 3}}

	rec := toKafka("backwards.1", out)
	require.Equal(t, "backwards.1", rec.Topic)

	require.Equal(t, core.ReceivedMessage{
		Topic:   "backwards/1",
		Payload: []byte{1, 2, 3},
		QoS:     core.ExactlyOnce,
		Retain:  true,
	}, toReceived(rec))
}

func TestNew(t *testing.T) {
	_, err := New(nil, "")
	require.Error(t, err)

	b, err := New([]string{"localhost:9092"}, "tester", WithBatchSize(10))
	require.NoError(t, err)
	require.Equal(t, 10, b.opts.batchSize)
	require.NoError(t, b.Close())

	require.ErrorIs(t, b.Publish(context.Background(), core.OutboundMessage{Topic: "x"}), core.ErrBrokerClosed)
}

func TestOptsFromConfig(t *testing.T) {
	opts := defaults()
	for _, fn := range optsFromConfig(broker.Config{Extra: map[string]any{"batch_size": 5, "async": true}}) {
		fn(&opts)
	}
	require.Equal(t, 5, opts.batchSize)
	require.True(t, opts.async)
}
