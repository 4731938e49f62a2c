package initiator_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/initiator"
	"github.com/miladsoleymani/mqtttester/internal/mock"
)

func quiet() initiator.Option {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return initiator.WithLogger(l)
}

func TestRun_Count(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{}
	in, err := initiator.New(tr, rep, initiator.Config{
		Topic:       "forwards/1",
		TrackingID:  "t1",
		BatchID:     "b1",
		Frequency:   time.Millisecond,
		MessageSize: 8,
		Count:       3,
	}, quiet())
	require.NoError(t, err)

	require.NoError(t, in.Run(context.Background()))

	pubs := tr.Published()
	require.Len(t, pubs, 3)
	for i, p := range pubs {
		require.Equal(t, "forwards/1", p.Topic)
		require.Equal(t, core.ExactlyOnce, p.QoS)
		require.False(t, p.Retain)
		require.Len(t, p.Payload, 8)
		require.Equal(t, uint32(i+1), core.PayloadSequenceParser{}.Parse(core.ReceivedMessage{Payload: p.Payload}))
	}

	reports := rep.Reports()
	require.Len(t, reports, 3)
	for i, r := range reports {
		require.Equal(t, core.SendSource, r.Source)
		require.Equal(t, core.TestTypeMessages, r.TestType)
		require.Equal(t, "t1", r.Result.TrackingID)
		require.Equal(t, uint32(i+1), r.Result.SequenceNumber)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	tr := mock.NewTransport()
	in, err := initiator.New(tr, nil, initiator.Config{Topic: "forwards/1", Frequency: time.Hour}, quiet())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- in.Run(ctx) }()

	require.Eventually(t, func() bool { return len(tr.Published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("initiator did not stop")
	}
}

func TestRun_PublishError(t *testing.T) {
	tr := mock.NewTransport()
	tr.PublishErr = errors.New("offline")
	in, err := initiator.New(tr, nil, initiator.Config{Topic: "forwards/1", Frequency: time.Millisecond}, quiet())
	require.NoError(t, err)

	var pubErr *core.PublishError
	require.ErrorAs(t, in.Run(context.Background()), &pubErr)
}

func TestRun_ReportError(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{Err: errors.New("coordinator down")}
	in, err := initiator.New(tr, rep, initiator.Config{Topic: "forwards/1", Frequency: time.Millisecond}, quiet())
	require.NoError(t, err)

	var reportErr *core.ReportResultError
	require.ErrorAs(t, in.Run(context.Background()), &reportErr)
	require.Len(t, tr.Published(), 1)
}

func TestNew_Validates(t *testing.T) {
	_, err := initiator.New(mock.NewTransport(), nil, initiator.Config{Frequency: time.Second})
	require.Error(t, err)

	_, err = initiator.New(mock.NewTransport(), nil, initiator.Config{Topic: "x"})
	require.Error(t, err)
}
