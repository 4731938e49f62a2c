package core

import (
	"errors"
	"fmt"
)

var (
	// ErrListenForIncomingPublications is returned by Run when every Sender
	// was closed and the queue is drained.
	ErrListenForIncomingPublications = errors.New("mqtttester: failed listening for incoming publications")

	// ErrListenForShutdown is returned by Run when every ShutdownHandle was
	// closed without a shutdown ever being signalled.
	ErrListenForShutdown = errors.New("mqtttester: failed listening for shutdown")

	// ErrAlreadyStarted is returned when Run is called more than once.
	ErrAlreadyStarted = errors.New("mqtttester: message channel already started")

	// ErrSenderClosed is returned by Send on a closed Sender.
	ErrSenderClosed = errors.New("mqtttester: sender is closed")

	// ErrChannelClosed is returned by Send once the message channel stopped.
	ErrChannelClosed = errors.New("mqtttester: message channel is closed")

	// ErrBrokerClosed is returned when operations are attempted on a closed transport.
	ErrBrokerClosed = errors.New("mqtttester: broker is closed")
)

// ReportResultError wraps a failure of the reporting collaborator.
type ReportResultError struct {
	Err error
}

func (e *ReportResultError) Error() string {
	return fmt.Sprintf("mqtttester: failed to report result: %v", e.Err)
}

func (e *ReportResultError) Unwrap() error { return e.Err }

// PublishError wraps a failure of the publish collaborator.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mqtttester: failed to publish: %v", e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
