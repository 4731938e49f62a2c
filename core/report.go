package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ReportResultHandler reports every received publication to the
// Test Result Coordinator as a receive-side result.
type ReportResultHandler struct {
	reporter   Reporter
	trackingID string
	batchID    string
	opts       handlerOptions
}

// NewReportResultHandler creates a handler reporting through reporter.
// trackingID and batchID are fixed for the handler's lifetime.
func NewReportResultHandler(reporter Reporter, trackingID, batchID string, fns ...HandlerOption) *ReportResultHandler {
	opts := handlerDefaults()
	for _, fn := range fns {
		fn(&opts)
	}
	return &ReportResultHandler{
		reporter:   reporter,
		trackingID: trackingID,
		batchID:    batchID,
		opts:       opts,
	}
}

// Handle makes a single report attempt for msg.
func (h *ReportResultHandler) Handle(ctx context.Context, msg ReceivedMessage) error {
	seq := h.opts.parser.Parse(msg)

	h.opts.logger.WithFields(logrus.Fields{
		"topic":           msg.Topic,
		"sequence_number": seq,
	}).Info("reporting result for publication")

	createdAt := h.opts.clock()
	result := NewTestResult(h.trackingID, h.batchID, seq, createdAt)

	if err := h.reporter.ReportResult(ctx, ReceiveSource, result, TestTypeMessages, createdAt); err != nil {
		return &ReportResultError{Err: err}
	}
	return nil
}
