package command

import "errors"

var (
	// ErrEmptyDeviceID is returned when a dispatch has no device ID.
	ErrEmptyDeviceID = errors.New("device ID cannot be empty")

	// ErrEmptyDelta is returned when a dispatch carries no field changes.
	ErrEmptyDelta = errors.New("delta contains no fields")

	// ErrPublishFailed wraps a broker publish failure during dispatch.
	ErrPublishFailed = errors.New("command publish failed")

	// ErrCommandNotFound is returned when a command ID is neither pending
	// nor in history.
	ErrCommandNotFound = errors.New("command not found")
)
