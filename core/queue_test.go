package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueue_PopStates(t *testing.T) {
	q := newQueue()

	_, state := q.pop()
	require.Equal(t, popEmpty, state)

	require.NoError(t, q.push(ReceivedMessage{Topic: "a"}))
	require.NoError(t, q.push(ReceivedMessage{Topic: "b"}))
	q.dropSender()

	m, state := q.pop()
	require.Equal(t, popOK, state)
	require.Equal(t, "a", m.Topic)

	m, state = q.pop()
	require.Equal(t, popOK, state)
	require.Equal(t, "b", m.Topic)
	require.Zero(t, q.head)

	_, state = q.pop()
	require.Equal(t, popClosed, state)
}

func TestQueue_ReadyCoalesces(t *testing.T) {
	q := newQueue()
	for i := 0; i < 10; i++ {
		require.NoError(t, q.push(ReceivedMessage{}))
	}
	require.Len(t, q.ready, 1)
}

func TestQueue_StopRejectsPush(t *testing.T) {
	q := newQueue()
	q.stop()
	require.ErrorIs(t, q.push(ReceivedMessage{}), ErrChannelClosed)
}
