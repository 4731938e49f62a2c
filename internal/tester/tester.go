// Package tester wires a transport, the message channel and the initiator
// together for one test scenario.
package tester

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/config"
	"github.com/miladsoleymani/mqtttester/core"
	"github.com/miladsoleymani/mqtttester/core/middleware"
	"github.com/miladsoleymani/mqtttester/initiator"
)

// Tester runs one scenario against a transport.
type Tester struct {
	settings  *config.Settings
	transport core.Transport
	reporter  core.Reporter
	logger    logrus.FieldLogger
	reg       prometheus.Registerer
}

// Option configures a Tester.
type Option func(*Tester)

// WithLogger sets the logger handed to every component.
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tester) { t.logger = l }
}

// WithRegisterer enables handler metrics registered with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(t *Tester) { t.reg = reg }
}

// New creates a Tester. reporter may be nil only for ScenarioInitiate and
// ScenarioRelay, which do not need to report received messages.
func New(s *config.Settings, transport core.Transport, reporter core.Reporter, fns ...Option) (*Tester, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if reporter == nil && (s.Scenario == config.ScenarioReceive || s.Scenario == config.ScenarioInitiateAndReceiveRelayed) {
		return nil, fmt.Errorf("tester: scenario %q needs a reporter", s.Scenario)
	}
	t := &Tester{
		settings:  s,
		transport: transport,
		reporter:  reporter,
		logger:    logrus.StandardLogger(),
	}
	for _, fn := range fns {
		fn(t)
	}
	return t, nil
}

// Run executes the scenario until ctx is cancelled or a component fails.
// Cancelling ctx triggers a graceful shutdown of the message channel; any
// publications already queued are still handled.
func (t *Tester) Run(ctx context.Context) error {
	log := t.logger.WithFields(logrus.Fields{
		"scenario":    t.settings.Scenario,
		"tracking_id": t.settings.TrackingID,
		"batch_id":    t.settings.BatchID,
	})
	log.Info("starting tester")

	if t.settings.Scenario == config.ScenarioInitiate {
		ini, err := t.newInitiator()
		if err != nil {
			return err
		}
		return ini.Run(ctx)
	}

	topic, h, err := t.handler()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	channel, sender, shutdown := core.NewMessageChannel(h, core.WithChannelLogger(log))
	defer sender.Close()
	defer shutdown.Close()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		bgErr  error
		setErr = func(err error) {
			mu.Lock()
			defer mu.Unlock()
			if bgErr == nil {
				bgErr = err
			}
		}
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-runCtx.Done()
		shutdown.Shutdown()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := t.transport.Subscribe(runCtx, topic, sender)
		if runCtx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("subscription ended")
		}
		setErr(fmt.Errorf("tester: subscribe %q: %w", topic, err))
		sender.Close()
	}()

	if t.settings.Initiates() {
		ini, err := t.newInitiator()
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ini.Run(runCtx); err != nil {
				setErr(err)
				cancel()
			}
		}()
	}

	// Handlers see a context that outlives shutdown so the publications
	// still queued at that point can be reported or relayed.
	runErr := channel.Run(context.WithoutCancel(ctx))
	cancel()
	wg.Wait()

	if err := errors.Join(runErr, bgErr); err != nil {
		return err
	}
	log.Info("tester stopped")
	return nil
}

// handler returns the topic to subscribe to and the handler for it.
func (t *Tester) handler() (string, core.Handler, error) {
	s := t.settings
	opts := []core.HandlerOption{core.WithLogger(t.logger)}

	var (
		topic string
		h     core.Handler
	)
	switch s.Scenario {
	case config.ScenarioRelay:
		topic = s.ForwardTopic()
		h = core.NewRelayingHandler(t.transport, s.BackwardTopic(), opts...)
	case config.ScenarioReceive:
		topic = s.ForwardTopic()
		h = core.NewReportResultHandler(t.reporter, s.TrackingID, s.BatchID, opts...)
	case config.ScenarioInitiateAndReceiveRelayed:
		topic = s.BackwardTopic()
		h = core.NewReportResultHandler(t.reporter, s.TrackingID, s.BatchID, opts...)
	default:
		return "", nil, fmt.Errorf("tester: scenario %q has no receive side", s.Scenario)
	}

	mws := []core.Middleware{
		middleware.Recovery(t.logger),
		middleware.Logging(t.logger),
	}
	if t.reg != nil {
		collector, err := middleware.NewPrometheusCollector(t.reg)
		if err != nil {
			return "", nil, fmt.Errorf("tester: register metrics: %w", err)
		}
		mws = append(mws, middleware.Metrics(collector))
	}
	mws = append(mws, middleware.Filter(topic, core.DefaultMatcher{}))

	return topic, core.Chain(h, mws...), nil
}

func (t *Tester) newInitiator() (*initiator.Initiator, error) {
	s := t.settings
	return initiator.New(t.transport, t.reporter, initiator.Config{
		Topic:       s.ForwardTopic(),
		TrackingID:  s.TrackingID,
		BatchID:     s.BatchID,
		Frequency:   s.MessageFrequency,
		MessageSize: s.MessageSize,
		Count:       s.MessageCount,
	}, initiator.WithLogger(t.logger))
}
