package broker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/broker"
	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/internal/mock"
)

func TestRegistry(t *testing.T) {
	var got broker.Config
	broker.Register("test-mock", func(cfg broker.Config) (core.Transport, error) {
		got = cfg
		return mock.NewTransport(), nil
	})

	tr, err := broker.Create("test-mock", broker.Config{Brokers: []string{"tcp://localhost:1883"}, ClientID: "tester"})
	require.NoError(t, err)
	require.NotNil(t, tr)
	require.Equal(t, "tester", got.ClientID)
	require.Contains(t, broker.Names(), "test-mock")
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := broker.Create("does-not-exist", broker.Config{})
	require.ErrorIs(t, err, broker.ErrUnknownBroker)
}
