// Package config provides configuration types and defaults for hevcheck.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidMode indicates an unknown verification mode name.
	ErrInvalidMode = errors.New("invalid verification mode")

	// ErrInvalidThreshold indicates a VMAF threshold outside the valid range.
	ErrInvalidThreshold = errors.New("VMAF threshold out of range")

	// ErrInvalidTolerance indicates a relative tolerance outside (0,1).
	ErrInvalidTolerance = errors.New("tolerance out of range")

	// ErrInvalidCodec indicates an empty target codec.
	ErrInvalidCodec = errors.New("target codec invalid")

	// ErrInvalidMarker indicates an empty converted-file marker.
	ErrInvalidMarker = errors.New("converted marker invalid")

	// ErrInvalidCRF indicates a CRF value outside the valid 0-51 range.
	ErrInvalidCRF = errors.New("CRF value out of range")
)
