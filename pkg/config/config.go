// Package config provides configuration loading and management for
// mriphysio. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
	"mriphysio/pkg/validity"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Scan timing parameters.
	Scan struct {
		// TR is the repetition time in seconds.
		TR float64 `yaml:"tr"`

		// NFrames is the number of temporal frames in the timeseries.
		NFrames int `yaml:"nframes"`

		// NSlices is the number of slices per volume. Required unless
		// SliceOrder is given, in which case it is derived.
		NSlices int `yaml:"nslices"`

		// SliceOrder is the explicit acquisition order. When empty,
		// SliceScheme must name how to build one.
		SliceOrder []int `yaml:"sliceOrder"`

		// SliceScheme selects a generated order ("sequential" or
		// "interleaved") when SliceOrder is not given explicitly.
		// There is no silent default.
		SliceScheme string `yaml:"sliceScheme"`
	} `yaml:"scan"`

	// Physio sampling parameters.
	Physio struct {
		// Format is the vendor format tag of the recording.
		Format string `yaml:"format"`

		// CardDT is the cardiac sampling interval in seconds.
		CardDT float64 `yaml:"cardDt"`

		// RespDT is the respiration sampling interval in seconds.
		RespDT float64 `yaml:"respDt"`
	} `yaml:"physio"`

	// Validity thresholds for the signal-quality heuristic.
	Validity struct {
		// MinFrames is the minimum frame count for valid data.
		MinFrames int `yaml:"minFrames"`

		// MinCardStd is the minimum raw cardiac standard deviation.
		MinCardStd float64 `yaml:"minCardStd"`

		// MinRespLFP is the minimum respiration low-frequency-power ratio.
		MinRespLFP float64 `yaml:"minRespLfp"`

		// RequireValid refuses regressor computation when the heuristic
		// fails, instead of only warning.
		RequireValid bool `yaml:"requireValid"`
	} `yaml:"validity"`

	// Output parameters.
	Output struct {
		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Scan.TR = 2.0
	cfg.Scan.NFrames = 100
	cfg.Scan.SliceScheme = ""

	cfg.Physio.Format = "ge"
	cfg.Physio.CardDT = 0.01
	cfg.Physio.RespDT = 0.04

	cfg.Validity.MinFrames = validity.DefaultMinFrames
	cfg.Validity.MinCardStd = validity.DefaultMinCardStd
	cfg.Validity.MinRespLFP = validity.DefaultMinRespLFP

	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ScanTiming resolves the scan block into a validated timing model. An
// explicit slice order wins; otherwise a named scheme builds one from
// NSlices. Missing both is a configuration error, never inferred.
func (c *Config) ScanTiming() (models.ScanTiming, error) {
	st := models.ScanTiming{
		TR:      c.Scan.TR,
		NFrames: c.Scan.NFrames,
	}
	switch {
	case len(c.Scan.SliceOrder) > 0:
		st.SliceOrder = c.Scan.SliceOrder
	case c.Scan.NSlices > 0 && c.Scan.SliceScheme == "sequential":
		st.SliceOrder = models.SequentialOrder(c.Scan.NSlices)
	case c.Scan.NSlices > 0 && c.Scan.SliceScheme == "interleaved":
		st.SliceOrder = models.InterleavedOrder(c.Scan.NSlices)
	case c.Scan.NSlices > 0:
		return models.ScanTiming{}, &physio.ConfigurationError{
			Field:  "scan.sliceScheme",
			Reason: fmt.Sprintf("no slice order given; set sliceOrder explicitly or name a scheme (sequential or interleaved), got %q", c.Scan.SliceScheme),
		}
	default:
		return models.ScanTiming{}, &physio.ConfigurationError{
			Field:  "scan.nslices",
			Reason: "either sliceOrder or a positive nslices is required",
		}
	}
	if len(c.Scan.SliceOrder) > 0 && c.Scan.NSlices > 0 && c.Scan.NSlices != len(c.Scan.SliceOrder) {
		return models.ScanTiming{}, &physio.ConfigurationError{
			Field:  "scan.nslices",
			Reason: fmt.Sprintf("nslices=%d disagrees with sliceOrder length %d", c.Scan.NSlices, len(c.Scan.SliceOrder)),
		}
	}
	if err := st.Validate(); err != nil {
		return models.ScanTiming{}, err
	}
	return st, nil
}

// Checker builds a validity checker from the configured thresholds.
func (c *Config) Checker() validity.Checker {
	return validity.Checker{
		MinFrames:  c.Validity.MinFrames,
		MinCardStd: c.Validity.MinCardStd,
		MinRespLFP: c.Validity.MinRespLFP,
	}
}
