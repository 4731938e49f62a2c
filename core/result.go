package core

import (
	"context"
	"fmt"
	"time"
)

// Source tags identify which side of the test produced a result.
const (
	ReceiveSource = "genericMqttTester.receive"
	SendSource    = "genericMqttTester.send"
)

// TestType tells the Test Result Coordinator how to compare results.
type TestType string

const TestTypeMessages TestType = "Messages"

// TestResult records that a message with a given sequence number was seen.
type TestResult struct {
	TrackingID     string
	BatchID        string
	SequenceNumber uint32
	CreatedAt      time.Time
}

// NewTestResult builds a TestResult stamped with createdAt.
func NewTestResult(trackingID, batchID string, seq uint32, createdAt time.Time) TestResult {
	return TestResult{
		TrackingID:     trackingID,
		BatchID:        batchID,
		SequenceNumber: seq,
		CreatedAt:      createdAt,
	}
}

// String renders the coordinator wire form "tracking;batch;sequence".
func (r TestResult) String() string {
	return fmt.Sprintf("%s;%s;%d", r.TrackingID, r.BatchID, r.SequenceNumber)
}

// Reporter delivers test results to a result coordinator.
type Reporter interface {
	ReportResult(ctx context.Context, source string, result TestResult, testType TestType, createdAt time.Time) error
}
