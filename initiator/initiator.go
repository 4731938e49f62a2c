// Package initiator drives the send side of a message test: it publishes
// sequence-numbered messages and reports each one to the coordinator, so
// the receive side can be checked against it.
package initiator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/miladsoleymani/mqtttester/core"
)

// Config controls what and how fast the initiator publishes.
type Config struct {
	Topic       string
	TrackingID  string
	BatchID     string
	Frequency   time.Duration
	MessageSize int
	// Count stops the initiator after this many messages; zero means
	// publish until the context is cancelled.
	Count uint32
}

// Initiator publishes test messages.
type Initiator struct {
	publisher core.Publisher
	reporter  core.Reporter
	cfg       Config
	clock     func() time.Time
	logger    logrus.FieldLogger
}

// Option configures an Initiator.
type Option func(*Initiator)

// WithLogger sets the initiator logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(i *Initiator) { i.logger = l }
}

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Initiator) { i.clock = now }
}

// New creates an Initiator. reporter may be nil to skip send-side reporting.
func New(publisher core.Publisher, reporter core.Reporter, cfg Config, fns ...Option) (*Initiator, error) {
	if cfg.Topic == "" {
		return nil, fmt.Errorf("initiator: topic is required")
	}
	if cfg.Frequency <= 0 {
		return nil, fmt.Errorf("initiator: frequency must be positive, got %s", cfg.Frequency)
	}
	i := &Initiator{
		publisher: publisher,
		reporter:  reporter,
		cfg:       cfg,
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    logrus.StandardLogger(),
	}
	for _, fn := range fns {
		fn(i)
	}
	return i, nil
}

// Run publishes one message per tick, starting at sequence number 1.
// It returns nil once Count messages were sent or ctx is cancelled, and
// stops on the first publish or report failure.
func (i *Initiator) Run(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.Frequency)
	defer ticker.Stop()

	i.logger.WithFields(logrus.Fields{
		"topic":     i.cfg.Topic,
		"frequency": i.cfg.Frequency,
		"count":     i.cfg.Count,
	}).Info("starting message initiator")

	var seq uint32 = 1
	for {
		if err := i.send(ctx, seq); err != nil {
			return err
		}
		if i.cfg.Count > 0 && seq >= i.cfg.Count {
			i.logger.WithField("sent", seq).Info("message initiator finished")
			return nil
		}
		seq++

		select {
		case <-ctx.Done():
			i.logger.WithField("sent", seq-1).Info("message initiator stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (i *Initiator) send(ctx context.Context, seq uint32) error {
	i.logger.WithField("sequence_number", seq).Debug("publishing message")

	msg := core.OutboundMessage{
		Topic:   i.cfg.Topic,
		QoS:     core.ExactlyOnce,
		Payload: core.EncodeSequence(seq, i.cfg.MessageSize),
	}
	if err := i.publisher.Publish(ctx, msg); err != nil {
		return &core.PublishError{Err: err}
	}

	if i.reporter == nil {
		return nil
	}
	createdAt := i.clock()
	result := core.NewTestResult(i.cfg.TrackingID, i.cfg.BatchID, seq, createdAt)
	if err := i.reporter.ReportResult(ctx, core.SendSource, result, core.TestTypeMessages, createdAt); err != nil {
		return &core.ReportResultError{Err: err}
	}
	return nil
}
