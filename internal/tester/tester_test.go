package tester

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/mqtttester/config"
	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/internal/mock"
)

func settings(scenario config.Scenario) *config.Settings {
	return &config.Settings{
		Scenario:         scenario,
		BrokerURLs:       []string{"tcp://localhost:1883"},
		TopicSuffix:      "1",
		TrackingID:       "t",
		BatchID:          "b",
		TRCURL:           "http://trc",
		MessageFrequency: 5 * time.Millisecond,
		MessageSize:      8,
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type run struct {
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, tt *Tester) *run {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- tt.Run(ctx) }()
	t.Cleanup(cancel)
	return r
}

func (r *run) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("tester did not stop")
		return nil
	}
}

func waitSubscribed(t *testing.T, tr *mock.Transport, want string) {
	t.Helper()
	select {
	case topic := <-tr.Subscribed():
		require.Equal(t, want, topic)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription")
	}
}

func TestNew_RequiresReporter(t *testing.T) {
	_, err := New(settings(config.ScenarioReceive), mock.NewTransport(), nil)
	require.Error(t, err)

	_, err = New(settings(config.ScenarioRelay), mock.NewTransport(), nil)
	require.NoError(t, err)
}

func TestNew_InvalidSettings(t *testing.T) {
	s := settings(config.ScenarioRelay)
	s.Scenario = "bogus"
	_, err := New(s, mock.NewTransport(), nil)
	require.Error(t, err)
}

func TestRun_Relay(t *testing.T) {
	tr := mock.NewTransport()
	tt, err := New(settings(config.ScenarioRelay), tr, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	r := start(t, tt)
	waitSubscribed(t, tr, "forwards/1")

	payload := core.EncodeSequence(5, 8)
	require.NoError(t, tr.Deliver(core.ReceivedMessage{Topic: "forwards/1", Payload: payload}))

	require.Eventually(t, func() bool { return len(tr.Published()) == 1 }, time.Second, 5*time.Millisecond)
	got := tr.Published()[0]
	require.Equal(t, "backwards/1", got.Topic)
	require.Equal(t, core.ExactlyOnce, got.QoS)
	require.True(t, got.Retain)
	require.Equal(t, payload, got.Payload)

	r.cancel()
	require.NoError(t, r.wait(t))
}

func TestRun_Receive(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{}
	reg := prometheus.NewRegistry()
	tt, err := New(settings(config.ScenarioReceive), tr, rep,
		WithLogger(quietLogger()), WithRegisterer(reg))
	require.NoError(t, err)

	r := start(t, tt)
	waitSubscribed(t, tr, "forwards/1")

	require.NoError(t, tr.Deliver(core.ReceivedMessage{Topic: "forwards/1", Payload: core.EncodeSequence(9, 8)}))
	require.Eventually(t, func() bool { return len(rep.Reports()) == 1 }, time.Second, 5*time.Millisecond)

	got := rep.Reports()[0]
	require.Equal(t, core.ReceiveSource, got.Source)
	require.Equal(t, "t;b;9", got.Result.String())
	require.Equal(t, core.TestTypeMessages, got.TestType)

	r.cancel()
	require.NoError(t, r.wait(t))

	n, err := testutil.GatherAndCount(reg, "mqtt_tester_messages_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestRun_Initiate(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{}
	s := settings(config.ScenarioInitiate)
	s.MessageCount = 3
	tt, err := New(s, tr, rep, WithLogger(quietLogger()))
	require.NoError(t, err)

	require.NoError(t, tt.Run(context.Background()))

	published := tr.Published()
	require.Len(t, published, 3)
	for i, msg := range published {
		require.Equal(t, "forwards/1", msg.Topic)
		require.Equal(t, core.EncodeSequence(uint32(i+1), 8), msg.Payload)
	}

	reports := rep.Reports()
	require.Len(t, reports, 3)
	require.Equal(t, core.SendSource, reports[0].Source)
	require.Equal(t, "t;b;1", reports[0].Result.String())
}

func TestRun_InitiateAndReceiveRelayed(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{}
	s := settings(config.ScenarioInitiateAndReceiveRelayed)
	s.MessageCount = 1
	tt, err := New(s, tr, rep, WithLogger(quietLogger()))
	require.NoError(t, err)

	r := start(t, tt)
	waitSubscribed(t, tr, "backwards/1")
	require.Eventually(t, func() bool { return len(tr.Published()) == 1 }, time.Second, 5*time.Millisecond)

	relayed := tr.Published()[0]
	require.Equal(t, "forwards/1", relayed.Topic)
	require.NoError(t, tr.Deliver(core.ReceivedMessage{Topic: "backwards/1", Payload: relayed.Payload}))

	require.Eventually(t, func() bool { return len(rep.Reports()) == 2 }, time.Second, 5*time.Millisecond)
	var sources []string
	for _, rp := range rep.Reports() {
		sources = append(sources, rp.Source)
		require.Equal(t, "t;b;1", rp.Result.String())
	}
	require.ElementsMatch(t, []string{core.SendSource, core.ReceiveSource}, sources)

	r.cancel()
	require.NoError(t, r.wait(t))
}

func TestRun_SubscribeFailure(t *testing.T) {
	tr := mock.NewTransport()
	subErr := errors.New("not authorized")
	tr.SubscribeErr = subErr
	tt, err := New(settings(config.ScenarioRelay), tr, nil, WithLogger(quietLogger()))
	require.NoError(t, err)

	err = start(t, tt).wait(t)
	require.ErrorIs(t, err, core.ErrListenForIncomingPublications)
	require.ErrorIs(t, err, subErr)
}

func TestRun_HandlerFailure(t *testing.T) {
	tr := mock.NewTransport()
	rep := &mock.Reporter{Err: errors.New("trc down")}
	tt, err := New(settings(config.ScenarioReceive), tr, rep, WithLogger(quietLogger()))
	require.NoError(t, err)

	r := start(t, tt)
	waitSubscribed(t, tr, "forwards/1")
	require.NoError(t, tr.Deliver(core.ReceivedMessage{Topic: "forwards/1", Payload: []byte{0, 0, 0, 1}}))

	err = r.wait(t)
	var reportErr *core.ReportResultError
	require.ErrorAs(t, err, &reportErr)
}

func TestRun_InitiatorFailureStopsReceiver(t *testing.T) {
	tr := mock.NewTransport()
	tr.PublishErr = errors.New("broker gone")
	tt, err := New(settings(config.ScenarioInitiateAndReceiveRelayed), tr, &mock.Reporter{}, WithLogger(quietLogger()))
	require.NoError(t, err)

	err = start(t, tt).wait(t)
	var publishErr *core.PublishError
	require.ErrorAs(t, err, &publishErr)
}
