package models

import "errors"

// Session-fatal failures: no cadence can be derived without a gravity vector
// and a motion axis, so these surface before any windowing begins.
var (
	ErrInsufficientCalibrationData = errors.New("insufficient calibration data")
	ErrDegenerateMotionAxis        = errors.New("degenerate motion axis")
)

// Per-window failures: the aggregator records the window as a gap for the
// failing method and moves on. Never retried.
var (
	ErrWindowTooShort = errors.New("window too short")
	ErrNoSignal       = errors.New("no signal in window")
)

// ErrFilterDesign marks cutoffs outside (0, fs/2) or low >= high for band-pass.
var ErrFilterDesign = errors.New("invalid filter design")

// ErrNoHistoryBackend means the history API was called without a persistence
// backend configured.
var ErrNoHistoryBackend = errors.New("no history backend configured")
