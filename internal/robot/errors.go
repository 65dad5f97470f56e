package robot

import "errors"

// Sentinel errors for robot and controller operations.
var (
	// ErrInvalidDeviceID is returned when a device id is empty or contains ':'.
	ErrInvalidDeviceID = errors.New("robot: invalid device id")

	// ErrNoURL is returned when no relay URL is configured.
	ErrNoURL = errors.New("robot: relay url is required")
)
