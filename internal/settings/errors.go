package settings

import "errors"

var (
	// ErrNotFound is returned when no persisted settings exist for a device.
	ErrNotFound = errors.New("settings not found")

	// ErrEmptyDeviceID is returned when an operation is given a blank device ID.
	ErrEmptyDeviceID = errors.New("device ID cannot be empty")

	// ErrEmptyDelta is returned when applyDelta is called with no fields.
	ErrEmptyDelta = errors.New("delta contains no fields")
)
