package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk YAML representation. Every field is optional;
// unset fields keep their defaults or CLI values.
type fileConfig struct {
	SourceDir    string `yaml:"sourceDir"`
	ConvertedDir string `yaml:"convertedDir"`
	LogDir       string `yaml:"logDir"`
	ReportDir    string `yaml:"reportDir"`

	Mode              string   `yaml:"mode"`
	TargetCodec       string   `yaml:"targetCodec"`
	VMAFThreshold     *float64 `yaml:"vmafThreshold"`
	DurationTolerance *float64 `yaml:"durationTolerance"`
	FrameTolerance    *float64 `yaml:"frameTolerance"`
	PlaybackSeconds   *float64 `yaml:"playbackSeconds"`
	EnablePSNR        *bool    `yaml:"enablePSNR"`
	EnableSSIM        *bool    `yaml:"enableSSIM"`
	VMAFModelPath     string   `yaml:"vmafModelPath"`

	ConvertedMarker string `yaml:"convertedMarker"`

	CRFSD      *uint8 `yaml:"crfSD"`
	CRFHD      *uint8 `yaml:"crfHD"`
	CRFUHD     *uint8 `yaml:"crfUHD"`
	X265Preset string `yaml:"x265Preset"`

	ToolTimeout    string `yaml:"toolTimeout"`
	GenerateReport *bool  `yaml:"generateReport"`
}

// ApplyFile overlays settings from a YAML config file onto c.
// The caller still runs Validate afterwards.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.applyYAML(data, path)
}

func (c *Config) applyYAML(data []byte, path string) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.SourceDir != "" {
		c.SourceDir = fc.SourceDir
	}
	if fc.ConvertedDir != "" {
		c.ConvertedDir = fc.ConvertedDir
	}
	if fc.LogDir != "" {
		c.LogDir = fc.LogDir
	}
	if fc.ReportDir != "" {
		c.ReportDir = fc.ReportDir
	}
	if fc.Mode != "" {
		mode, err := ParseMode(fc.Mode)
		if err != nil {
			return err
		}
		c.Mode = mode
	}
	if fc.TargetCodec != "" {
		c.TargetCodec = fc.TargetCodec
	}
	if fc.VMAFThreshold != nil {
		c.VMAFThreshold = *fc.VMAFThreshold
	}
	if fc.DurationTolerance != nil {
		c.DurationTolerance = *fc.DurationTolerance
	}
	if fc.FrameTolerance != nil {
		c.FrameTolerance = *fc.FrameTolerance
	}
	if fc.PlaybackSeconds != nil {
		c.PlaybackSeconds = *fc.PlaybackSeconds
	}
	if fc.EnablePSNR != nil {
		c.EnablePSNR = *fc.EnablePSNR
	}
	if fc.EnableSSIM != nil {
		c.EnableSSIM = *fc.EnableSSIM
	}
	if fc.VMAFModelPath != "" {
		c.VMAFModelPath = fc.VMAFModelPath
	}
	if fc.ConvertedMarker != "" {
		c.ConvertedMarker = fc.ConvertedMarker
	}
	if fc.CRFSD != nil {
		c.CRFSD = *fc.CRFSD
	}
	if fc.CRFHD != nil {
		c.CRFHD = *fc.CRFHD
	}
	if fc.CRFUHD != nil {
		c.CRFUHD = *fc.CRFUHD
	}
	if fc.X265Preset != "" {
		c.X265Preset = fc.X265Preset
	}
	if fc.ToolTimeout != "" {
		d, err := time.ParseDuration(fc.ToolTimeout)
		if err != nil {
			return fmt.Errorf("parsing toolTimeout in %s: %w", path, err)
		}
		c.ToolTimeout = d
	}
	if fc.GenerateReport != nil {
		c.GenerateReport = *fc.GenerateReport
	}

	return nil
}
