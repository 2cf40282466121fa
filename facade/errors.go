package facade

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAuthorizationDenied is recorded when the user refuses a permission.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrAuthorizationRestricted is recorded when policy forbids a permission.
	ErrAuthorizationRestricted = errors.New("authorization restricted")
	// ErrAuthorizationNotDetermined is recorded when the authorizer answers without deciding.
	ErrAuthorizationNotDetermined = errors.New("authorization not determined")
	// ErrHardwareUnavailable is recorded when a live facade has no hardware to drive.
	ErrHardwareUnavailable = errors.New("sensor hardware unavailable")
	// ErrRecordingStart is recorded when a recording sink cannot be opened.
	ErrRecordingStart = errors.New("failed to start recording")
)

// DriverError wraps a failure reported by a running driver.
type DriverError struct {
	Sensor string
	Err    error
}

// NewDriverError returns a DriverError for the named sensor.
func NewDriverError(sensor string, err error) *DriverError {
	return &DriverError{Sensor: sensor, Err: err}
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s driver error: %v", e.Sensor, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

func authorizationError(state AuthorizationState) error {
	switch state {
	case Denied:
		return ErrAuthorizationDenied
	case Restricted:
		return ErrAuthorizationRestricted
	default:
		return ErrAuthorizationNotDetermined
	}
}

// NewRecordingError returns an error that matches ErrRecordingStart and carries the cause.
func NewRecordingError(err error) error {
	return &recordingError{err: err}
}

type recordingError struct {
	err error
}

func (e *recordingError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRecordingStart, e.err)
}

func (e *recordingError) Is(target error) bool {
	return target == ErrRecordingStart
}

func (e *recordingError) Unwrap() error {
	return e.err
}
