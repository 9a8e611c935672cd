package bootloader

import (
	"errors"
	"fmt"
)

// Failure reasons. Every UploadError matches exactly one of them with errors.Is.
var (
	// ErrTransportUnavailable means the port could not be opened
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrWriteFailure means the port rejected or truncated a write
	ErrWriteFailure = errors.New("write failure")

	// ErrTimeout means no status byte arrived in time
	ErrTimeout = errors.New("timeout waiting for status")

	// ErrDeviceRejected means the device answered with its error status
	ErrDeviceRejected = errors.New("device rejected upload")

	// ErrUnexpectedStatus means the device answered with an undefined status byte
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrInterrupted means the caller cancelled the upload
	ErrInterrupted = errors.New("interrupted")
)

// ErrInvalidState is returned when session phases are driven out of order.
var ErrInvalidState = errors.New("invalid session state")

// UploadError describes why an upload attempt failed.
type UploadError struct {
	// Reason is one of the Err* failure reasons
	Reason error

	// Phase is the phase in progress when the attempt failed
	Phase string

	// Status is the byte received from the device, when one was received
	Status byte

	// Err is the underlying cause, if any
	Err error
}

func (e *UploadError) Error() string {
	var msg string
	switch e.Reason {
	case ErrDeviceRejected:
		msg = fmt.Sprintf("%s during %s (status 0x%02X)", e.Reason, e.Phase, e.Status)
	case ErrUnexpectedStatus:
		msg = fmt.Sprintf("%s 0x%02X during %s", e.Reason, e.Status, e.Phase)
	default:
		msg = fmt.Sprintf("%s during %s", e.Reason, e.Phase)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the reason and the underlying cause to errors.Is/As.
func (e *UploadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// Reason returns the failure reason of err, or nil if err is not an upload
// failure.
func Reason(err error) error {
	var uerr *UploadError
	if errors.As(err, &uerr) {
		return uerr.Reason
	}
	return nil
}
