package prosody

import (
	"context"
	"fmt"

	"github.com/linuxmatters/prosody/internal/audio"
)

// Record is the rounded per-file prosody summary.
// Jitter and Shimmer are nil when perturbation analysis is disabled.
type Record struct {
	Filename   string   `json:"filename,omitempty"`
	F0Mean     Measure  `json:"f0_mean"`     // Hz
	F0Range    Measure  `json:"f0_range"`    // Hz
	Duration   float64  `json:"duration"`    // s
	SpeechRate float64  `json:"speech_rate"` // estimated words per second
	PauseMean  Measure  `json:"pause_mean"`  // s
	RMSMean    Measure  `json:"rms_mean"`    // dB relative to loudest frame
	Jitter     *Measure `json:"jitter,omitempty"`
	Shimmer    *Measure `json:"shimmer,omitempty"`
}

// Analysis is a Record together with the intermediate tracks it was built from
type Analysis struct {
	Record Record

	Pitch     *PitchTrack
	Intensity *IntensityTrack
	RMS       []float64 // one value per RMSHopLength samples
	RMSStep   float64   // s between RMS values
	Threshold Measure   // pause threshold in dB
	Pauses    []PauseInterval
	Rhythm    Rhythm

	HumFrequency float64 // notch fundamental, 0 when the filter was off
	SampleRate   int
}

// Stage identifies a step of the single-file pipeline
type Stage int

const (
	StageLoading Stage = iota
	StagePitch
	StageIntensity
	StagePauses
	StagePerturbation
	StageComplete
)

var stageNames = [...]string{"loading", "pitch", "intensity", "pauses", "perturbation", "complete"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Fraction is the approximate share of the pipeline finished when s begins
func (s Stage) Fraction() float64 {
	return float64(s) / float64(StageComplete)
}

// ProgressFunc is called as each stage begins. It may be nil.
type ProgressFunc func(stage Stage)

// AnalyzeFile loads a WAV file and analyses it
func AnalyzeFile(ctx context.Context, path string, cfg *AnalysisConfig, progress ProgressFunc) (*Analysis, *audio.Metadata, error) {
	report(progress, StageLoading)
	wave, meta, err := audio.Load(path)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := AnalyzeWaveform(ctx, wave, cfg, progress)
	if err != nil {
		return nil, meta, err
	}
	return analysis, meta, nil
}

// AnalyzeWaveform runs pitch, intensity, pause, rate and (optionally)
// perturbation analysis and builds the rounded Record.
// The result depends only on wave and cfg.
func AnalyzeWaveform(ctx context.Context, wave *audio.Waveform, cfg *AnalysisConfig, progress ProgressFunc) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := &Analysis{
		HumFrequency: HumFrequency(cfg.HumFilter),
		SampleRate:   wave.SampleRate,
		RMSStep:      float64(RMSHopLength) / float64(max(wave.SampleRate, 1)),
	}
	voice := RemoveHum(wave, a.HumFrequency)

	report(progress, StagePitch)
	pitch, err := TrackPitch(ctx, voice, cfg)
	if err != nil {
		return nil, fmt.Errorf("pitch tracking failed: %w", err)
	}
	a.Pitch = pitch

	report(progress, StageIntensity)
	intensity, err := TrackIntensity(ctx, wave, cfg)
	if err != nil {
		return nil, fmt.Errorf("intensity analysis failed: %w", err)
	}
	a.Intensity = intensity
	a.RMS = RMSEnvelope(wave)

	report(progress, StagePauses)
	duration := wave.Duration()
	a.Threshold = PauseThreshold(intensity, cfg)
	a.Pauses = FindPauses(intensity, cfg)
	a.Rhythm = EstimateRate(a.Pauses, duration, cfg)

	f0Mean, f0Range := PitchStats(pitch)
	p, pp := cfg.Precision, cfg.PerturbationPrecision
	a.Record = Record{
		F0Mean:     f0Mean.Round(p),
		F0Range:    f0Range.Round(p),
		Duration:   Round(duration, p),
		SpeechRate: Round(a.Rhythm.SpeechRate, p),
		PauseMean:  a.Rhythm.PauseMean.Round(p),
		RMSMean:    MeanRMSDB(a.RMS).Round(p),
	}

	if cfg.EnablePerturbation {
		report(progress, StagePerturbation)
		jitter, shimmer, err := Perturbation(ctx, voice, cfg)
		if err != nil {
			return nil, fmt.Errorf("perturbation analysis failed: %w", err)
		}
		jitter, shimmer = jitter.Round(pp), shimmer.Round(pp)
		a.Record.Jitter = &jitter
		a.Record.Shimmer = &shimmer
	}

	report(progress, StageComplete)
	return a, nil
}

func report(progress ProgressFunc, stage Stage) {
	if progress != nil {
		progress(stage)
	}
}
