package main

import (
	"time"

	"github.com/linuxmatters/prosody/internal/prosody"
)

// CLI defines the command-line interface.
// Analysis settings are pointers so only flags or env vars that were actually
// given override the YAML config file.
type CLI struct {
	Version      bool   `short:"v" help:"Show version information"`
	Config       string `short:"c" type:"existingfile" placeholder:"FILE" help:"Path to YAML config file (optional)"`
	Batch        bool   `short:"b" help:"Treat <path> as a directory of WAV files"`
	Perturbation bool   `short:"p" env:"PROSODY_ENABLE_PERTURBATION" help:"Compute jitter and shimmer"`
	Path         string `arg:"" name:"path" type:"path" optional:"" help:"WAV file, or directory with --batch"`

	// Output
	JSON        string `name:"json" group:"Output" type:"path" placeholder:"FILE" help:"Write JSON to FILE (default stdout)"`
	CSV         string `name:"csv" group:"Output" type:"path" placeholder:"FILE" help:"Write CSV rows to FILE"`
	Append      bool   `group:"Output" help:"Append to an existing CSV file, writing the header only when it is empty"`
	SQLite      string `name:"sqlite" group:"Output" type:"path" placeholder:"FILE" help:"Append records to a SQLite database"`
	PlotDir     string `name:"plot-dir" group:"Output" type:"path" placeholder:"DIR" help:"Write F0 and RMS plots to DIR"`
	Logs        bool   `group:"Output" help:"Save a text analysis report next to each input"`
	Summary     bool   `group:"Output" help:"Print a readable analysis summary to stderr"`
	MetricsFile string `name:"metrics-file" group:"Output" type:"path" placeholder:"FILE" help:"Write Prometheus textfile metrics after the run"`

	// Analysis
	TimeStep         *float64 `name:"time-step" group:"Analysis" env:"PROSODY_TIME_STEP" placeholder:"SECONDS" help:"Pitch and intensity frame step"`
	PitchFloor       *float64 `name:"pitch-floor" group:"Analysis" env:"PROSODY_PITCH_FLOOR" placeholder:"HZ" help:"Lowest pitch candidate"`
	PitchCeiling     *float64 `name:"pitch-ceiling" group:"Analysis" env:"PROSODY_PITCH_CEILING" placeholder:"HZ" help:"Highest pitch candidate"`
	MinPause         *float64 `name:"min-pause" group:"Analysis" env:"PROSODY_MIN_PAUSE_DURATION" placeholder:"SECONDS" help:"Shortest silence counted as a pause"`
	PausePercentile  *float64 `name:"pause-percentile" group:"Analysis" env:"PROSODY_PAUSE_THRESHOLD_PERCENTILE" placeholder:"0-100" help:"Intensity percentile used as the pause threshold"`
	WordDuration     *float64 `name:"word-duration" group:"Analysis" env:"PROSODY_AVERAGE_WORD_DURATION" placeholder:"SECONDS" help:"Average word duration for rate estimation"`
	TrailingPause    *string  `name:"trailing-pause" group:"Analysis" env:"PROSODY_TRAILING_PAUSE" placeholder:"close|drop" help:"Handling of a pause still open at the end"`
	Precision        *int     `group:"Analysis" env:"PROSODY_PRECISION" placeholder:"N" help:"Decimals for output values"`
	PerturbPrecision *int     `name:"perturbation-precision" group:"Analysis" env:"PROSODY_PERTURBATION_PRECISION" placeholder:"N" help:"Decimals for jitter and shimmer"`
	HumFilter        *string  `name:"hum-filter" group:"Analysis" env:"PROSODY_HUM_FILTER" placeholder:"off|auto|50|60" help:"Mains hum notch filter"`
	VoicingThreshold *float64 `name:"voicing-threshold" group:"Analysis" env:"PROSODY_VOICING_THRESHOLD" placeholder:"0-1" help:"Minimum autocorrelation for a voiced frame"`
	SilenceThreshold *float64 `name:"silence-threshold" group:"Analysis" env:"PROSODY_SILENCE_THRESHOLD" placeholder:"0-1" help:"Frame peak, relative to the global peak, below which frames are unvoiced"`
	OctaveCost       *float64 `name:"octave-cost" group:"Analysis" env:"PROSODY_OCTAVE_COST" placeholder:"COST" help:"Preference for higher pitch candidates"`

	// Batch
	Workers    *int           `short:"j" group:"Batch" env:"PROSODY_WORKERS" placeholder:"N" help:"Parallel batch workers"`
	Timeout    *time.Duration `group:"Batch" env:"PROSODY_FILE_TIMEOUT" placeholder:"DURATION" help:"Per-file timeout, 0 disables"`
	NoProgress bool           `name:"no-progress" group:"Batch" help:"Disable the progress view"`

	// Logging
	LogLevel string `name:"log-level" group:"Logging" default:"info" env:"PROSODY_LOG_LEVEL" enum:"trace,debug,info,warn,error" help:"Console log level"`
	DebugLog string `name:"debug-log" group:"Logging" type:"path" placeholder:"FILE" help:"Write a rotating JSON debug log"`
}

// AnalysisConfig resolves defaults, then the YAML file, then flags and env,
// and validates the result
func (c *CLI) AnalysisConfig() (*prosody.AnalysisConfig, error) {
	cfg := prosody.DefaultAnalysisConfig()
	if c.Config != "" {
		loaded, err := prosody.LoadConfigFile(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overlay(&cfg.TimeStep, c.TimeStep)
	overlay(&cfg.PitchFloor, c.PitchFloor)
	overlay(&cfg.PitchCeiling, c.PitchCeiling)
	overlay(&cfg.MinPauseDuration, c.MinPause)
	overlay(&cfg.PauseThresholdPercentile, c.PausePercentile)
	overlay(&cfg.AverageWordDuration, c.WordDuration)
	overlay(&cfg.Precision, c.Precision)
	overlay(&cfg.PerturbationPrecision, c.PerturbPrecision)
	overlay(&cfg.VoicingThreshold, c.VoicingThreshold)
	overlay(&cfg.SilenceThreshold, c.SilenceThreshold)
	overlay(&cfg.OctaveCost, c.OctaveCost)
	overlay(&cfg.Workers, c.Workers)
	overlay(&cfg.FileTimeout, c.Timeout)

	if c.TrailingPause != nil {
		cfg.TrailingPause = prosody.TrailingPausePolicy(*c.TrailingPause)
	}
	if c.HumFilter != nil {
		cfg.HumFilter = prosody.HumFilterMode(*c.HumFilter)
	}
	if c.Perturbation {
		cfg.EnablePerturbation = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overlay[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
