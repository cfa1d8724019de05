// Package config provides configuration types and defaults for hevcheck.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Default constants
const (
	// DefaultTargetCodec is the codec name the converted stream must report.
	DefaultTargetCodec = "hevc"

	// DefaultVMAFThreshold is the minimum passing VMAF score in DeepScan mode.
	DefaultVMAFThreshold float64 = 90

	// MinVMAFThreshold and MaxVMAFThreshold bound the configurable threshold.
	MinVMAFThreshold float64 = 80
	MaxVMAFThreshold float64 = 100

	// DefaultDurationTolerance is the relative duration tolerance (0.5%).
	DefaultDurationTolerance float64 = 0.005

	// DefaultFrameTolerance is the relative frame-count tolerance (1%).
	DefaultFrameTolerance float64 = 0.01

	// DefaultPlaybackSeconds is the bounded decode length for the smoke test.
	DefaultPlaybackSeconds float64 = 10

	// DefaultConvertedMarker distinguishes converted outputs from sources.
	DefaultConvertedMarker = "_x265"

	// DefaultToolTimeout bounds each external tool invocation.
	DefaultToolTimeout = 30 * time.Minute

	// DefaultCRFSD is the x265 CRF for Standard Definition sources (<1920 width).
	DefaultCRFSD uint8 = 20

	// DefaultCRFHD is the x265 CRF for High Definition sources (>=1920 width).
	DefaultCRFHD uint8 = 22

	// DefaultCRFUHD is the x265 CRF for Ultra High Definition sources (>=3840 width).
	DefaultCRFUHD uint8 = 24

	// DefaultX265Preset is the x265 speed preset for conversions.
	DefaultX265Preset = "medium"

	// MaxCRF is the maximum valid CRF value.
	MaxCRF uint8 = 51

	// UHDWidthThreshold is the width threshold for Ultra High Definition (4K).
	UHDWidthThreshold int64 = 3840

	// HDWidthThreshold is the width threshold for High Definition.
	HDWidthThreshold int64 = 1920
)

// Mode selects how thorough a verification run is. Modes are strictly
// ordered: Full runs every Basic check, DeepScan runs every Full check.
type Mode int

const (
	// ModeBasic runs codec, duration, frame-count, and playback checks.
	ModeBasic Mode = iota
	// ModeFull adds the audio stream hash comparison.
	ModeFull
	// ModeDeepScan adds the video stream hash comparison and VMAF scoring.
	ModeDeepScan
)

// ParseMode parses a string into a Mode.
// Valid values are "basic", "full", and "deepscan" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return ModeBasic, nil
	case "full":
		return ModeFull, nil
	case "deepscan", "deep-scan", "deep":
		return ModeDeepScan, nil
	default:
		return ModeBasic, fmt.Errorf("%w: '%s', valid options: basic, full, deepscan", ErrInvalidMode, s)
	}
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDeepScan:
		return "deepscan"
	default:
		return "basic"
	}
}

// AtLeast reports whether this mode is at least as thorough as other.
func (m Mode) AtLeast(other Mode) bool {
	return m >= other
}

// Config holds all configuration for verification and conversion runs.
type Config struct {
	// Input/output paths
	SourceDir    string
	ConvertedDir string
	LogDir       string
	ReportDir    string

	// Verification settings
	Mode              Mode
	TargetCodec       string
	VMAFThreshold     float64
	DurationTolerance float64
	FrameTolerance    float64
	PlaybackSeconds   float64
	EnablePSNR        bool
	EnableSSIM        bool
	// VMAFModelPath points at the quality model asset. Empty uses the
	// libvmaf built-in model; when set, its absence is fatal at run start.
	VMAFModelPath string

	// Discovery settings
	ConvertedMarker string

	// Conversion settings
	CRFSD      uint8
	CRFHD      uint8
	CRFUHD     uint8
	X265Preset string

	// Processing options
	ToolTimeout    time.Duration
	GenerateReport bool
}

// NewConfig creates a new Config with default values.
func NewConfig(sourceDir, convertedDir, logDir string) *Config {
	return &Config{
		SourceDir:         sourceDir,
		ConvertedDir:      convertedDir,
		LogDir:            logDir,
		Mode:              ModeBasic,
		TargetCodec:       DefaultTargetCodec,
		VMAFThreshold:     DefaultVMAFThreshold,
		DurationTolerance: DefaultDurationTolerance,
		FrameTolerance:    DefaultFrameTolerance,
		PlaybackSeconds:   DefaultPlaybackSeconds,
		ConvertedMarker:   DefaultConvertedMarker,
		CRFSD:             DefaultCRFSD,
		CRFHD:             DefaultCRFHD,
		CRFUHD:            DefaultCRFUHD,
		X265Preset:        DefaultX265Preset,
		ToolTimeout:       DefaultToolTimeout,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.VMAFThreshold < MinVMAFThreshold || c.VMAFThreshold > MaxVMAFThreshold {
		return fmt.Errorf("%w: must be %.0f-%.0f, got %g",
			ErrInvalidThreshold, MinVMAFThreshold, MaxVMAFThreshold, c.VMAFThreshold)
	}

	if c.DurationTolerance <= 0 || c.DurationTolerance >= 1 {
		return fmt.Errorf("%w: duration tolerance must be in (0,1), got %g", ErrInvalidTolerance, c.DurationTolerance)
	}

	if c.FrameTolerance <= 0 || c.FrameTolerance >= 1 {
		return fmt.Errorf("%w: frame tolerance must be in (0,1), got %g", ErrInvalidTolerance, c.FrameTolerance)
	}

	if c.TargetCodec == "" {
		return fmt.Errorf("%w: target codec must not be empty", ErrInvalidCodec)
	}

	if c.ConvertedMarker == "" {
		return fmt.Errorf("%w: converted marker must not be empty", ErrInvalidMarker)
	}

	if c.CRFSD > MaxCRF || c.CRFHD > MaxCRF || c.CRFUHD > MaxCRF {
		return fmt.Errorf("%w: CRF values must be 0-%d", ErrInvalidCRF, MaxCRF)
	}

	return nil
}

// CRFForWidth returns the appropriate CRF value based on video width.
func (c *Config) CRFForWidth(width int64) uint8 {
	if width >= UHDWidthThreshold {
		return c.CRFUHD
	}
	if width >= HDWidthThreshold {
		return c.CRFHD
	}
	return c.CRFSD
}
