// Package prosody extracts pitch, intensity, rhythm and voice-quality
// descriptors from a mono waveform and aggregates them into a Record.
package prosody

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Lower bounds that keep per-frame window and FFT sizes bounded
const (
	minTimeStep   = 0.001 // s
	minPitchFloor = 10.0  // Hz, a 0.32 s analysis window
)

// TrailingPausePolicy decides what happens to a pause still open at the end of the track
type TrailingPausePolicy string

const (
	// TrailingPauseClose closes the open pause at the track end and keeps it if long enough
	TrailingPauseClose TrailingPausePolicy = "close"
	// TrailingPauseDrop discards a pause that never closes
	TrailingPauseDrop TrailingPausePolicy = "drop"
)

// HumFilterMode selects the mains-hum notch pre-filter
type HumFilterMode string

const (
	HumFilterOff  HumFilterMode = "off"
	HumFilterAuto HumFilterMode = "auto" // mains frequency from local timezone
	HumFilter50Hz HumFilterMode = "50"
	HumFilter60Hz HumFilterMode = "60"
)

// AnalysisConfig holds every tunable of the analysis engine.
// It is read-only once validated and may be shared between batch workers.
type AnalysisConfig struct {
	// Pitch tracking
	TimeStep     float64 `yaml:"time_step"`     // s - frame step for pitch and intensity
	PitchFloor   float64 `yaml:"pitch_floor"`   // Hz
	PitchCeiling float64 `yaml:"pitch_ceiling"` // Hz

	// Pause segmentation and rate estimation
	MinPauseDuration         float64             `yaml:"min_pause_duration"`         // s - shorter gaps are discarded
	PauseThresholdPercentile float64             `yaml:"pause_threshold_percentile"` // 0-100 of valid intensity values
	AverageWordDuration      float64             `yaml:"average_word_duration"`      // s per word (empirical constant)
	TrailingPause            TrailingPausePolicy `yaml:"trailing_pause"`

	// Output rounding
	Precision             int `yaml:"precision"`              // decimals for most fields
	PerturbationPrecision int `yaml:"perturbation_precision"` // decimals for jitter/shimmer

	// Optional stages
	EnablePerturbation bool          `yaml:"enable_perturbation"`
	HumFilter          HumFilterMode `yaml:"hum_filter"`

	// Batch execution
	Workers     int           `yaml:"workers"`
	FileTimeout time.Duration `yaml:"file_timeout"` // 0 disables the per-file timeout

	// Pitch candidate selection (Boersma 1993 autocorrelation method)
	VoicingThreshold float64 `yaml:"voicing_threshold"` // minimum normalised autocorrelation
	SilenceThreshold float64 `yaml:"silence_threshold"` // fraction of global peak below which frames are unvoiced
	OctaveCost       float64 `yaml:"octave_cost"`       // per-octave preference for higher candidates

	// Periodicity model for jitter/shimmer
	PerturbationFloor   float64 `yaml:"perturbation_floor"`   // Hz
	PerturbationCeiling float64 `yaml:"perturbation_ceiling"` // Hz
	ShortestPeriod      float64 `yaml:"shortest_period"`      // s
	LongestPeriod       float64 `yaml:"longest_period"`       // s
	MaxPeriodFactor     float64 `yaml:"max_period_factor"`    // consecutive period ratio bound
	MaxAmplitudeFactor  float64 `yaml:"max_amplitude_factor"` // consecutive amplitude ratio bound
}

// DefaultAnalysisConfig returns the conventional prosody analysis settings
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		TimeStep:     0.01,
		PitchFloor:   75.0,
		PitchCeiling: 600.0,

		MinPauseDuration:         0.15, // 150ms - shorter gaps are plosive closures
		PauseThresholdPercentile: 20.0,
		AverageWordDuration:      0.4,
		TrailingPause:            TrailingPauseClose,

		Precision:             2,
		PerturbationPrecision: 5,

		EnablePerturbation: false,
		HumFilter:          HumFilterOff,

		Workers:     1,
		FileTimeout: 2 * time.Minute,

		VoicingThreshold: 0.45,
		SilenceThreshold: 0.03,
		OctaveCost:       0.01,

		// Clinical voice-analysis conventions
		PerturbationFloor:   75.0,
		PerturbationCeiling: 500.0,
		ShortestPeriod:      0.0001,
		LongestPeriod:       0.02,
		MaxPeriodFactor:     1.3,
		MaxAmplitudeFactor:  1.6,
	}
}

// LoadConfigFile overlays a YAML file onto the defaults.
// Unknown keys are rejected so typos surface as configuration errors.
func LoadConfigFile(path string) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
// The returned error wraps ErrInvalidConfig.
func (c *AnalysisConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(isFinite(c.TimeStep) && c.TimeStep >= minTimeStep, "time_step must be >= %v s, got %v", minTimeStep, c.TimeStep)
	check(isFinite(c.PitchFloor) && c.PitchFloor >= minPitchFloor, "pitch_floor must be >= %v Hz, got %v", minPitchFloor, c.PitchFloor)
	check(isFinite(c.PitchCeiling) && c.PitchFloor < c.PitchCeiling,
		"pitch_floor (%v) must be below pitch_ceiling (%v)", c.PitchFloor, c.PitchCeiling)

	check(isFinite(c.MinPauseDuration) && c.MinPauseDuration >= 0,
		"min_pause_duration must be >= 0, got %v", c.MinPauseDuration)
	check(isFinite(c.PauseThresholdPercentile) && c.PauseThresholdPercentile >= 0 && c.PauseThresholdPercentile <= 100,
		"pause_threshold_percentile must be within [0, 100], got %v", c.PauseThresholdPercentile)
	check(isPositive(c.AverageWordDuration), "average_word_duration must be > 0, got %v", c.AverageWordDuration)
	check(c.TrailingPause == TrailingPauseClose || c.TrailingPause == TrailingPauseDrop,
		"trailing_pause must be %q or %q, got %q", TrailingPauseClose, TrailingPauseDrop, c.TrailingPause)

	check(c.Precision >= 0 && c.Precision <= 10, "precision must be within [0, 10], got %d", c.Precision)
	check(c.PerturbationPrecision >= 0 && c.PerturbationPrecision <= 10,
		"perturbation_precision must be within [0, 10], got %d", c.PerturbationPrecision)

	switch c.HumFilter {
	case HumFilterOff, HumFilterAuto, HumFilter50Hz, HumFilter60Hz:
	default:
		errs = append(errs, fmt.Errorf("hum_filter must be off, auto, 50 or 60, got %q", c.HumFilter))
	}

	check(c.Workers >= 1, "workers must be >= 1, got %d", c.Workers)
	check(c.FileTimeout >= 0, "file_timeout must be >= 0, got %v", c.FileTimeout)

	check(isFinite(c.VoicingThreshold) && c.VoicingThreshold > 0 && c.VoicingThreshold < 1,
		"voicing_threshold must be within (0, 1), got %v", c.VoicingThreshold)
	check(isFinite(c.SilenceThreshold) && c.SilenceThreshold >= 0 && c.SilenceThreshold < 1,
		"silence_threshold must be within [0, 1), got %v", c.SilenceThreshold)
	check(isFinite(c.OctaveCost) && c.OctaveCost >= 0, "octave_cost must be >= 0, got %v", c.OctaveCost)

	if c.EnablePerturbation {
		check(isFinite(c.PerturbationFloor) && c.PerturbationFloor >= minPitchFloor &&
			isFinite(c.PerturbationCeiling) && c.PerturbationFloor < c.PerturbationCeiling,
			"perturbation_floor (%v) must be >= %v Hz and below perturbation_ceiling (%v)",
			c.PerturbationFloor, minPitchFloor, c.PerturbationCeiling)
		check(isPositive(c.ShortestPeriod) && isFinite(c.LongestPeriod) && c.ShortestPeriod < c.LongestPeriod,
			"shortest_period (%v) must be > 0 and below longest_period (%v)", c.ShortestPeriod, c.LongestPeriod)
		check(isFinite(c.MaxPeriodFactor) && c.MaxPeriodFactor >= 1, "max_period_factor must be >= 1, got %v", c.MaxPeriodFactor)
		check(isFinite(c.MaxAmplitudeFactor) && c.MaxAmplitudeFactor >= 1, "max_amplitude_factor must be >= 1, got %v", c.MaxAmplitudeFactor)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// pitchConfig returns a copy with the pitch range replaced, for the periodicity model
func (c *AnalysisConfig) pitchConfig(floor, ceiling float64) *AnalysisConfig {
	cp := *c
	cp.PitchFloor = floor
	cp.PitchCeiling = ceiling
	return &cp
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPositive(v float64) bool {
	return isFinite(v) && v > 0
}
