package prosody

import (
	"context"
	"testing"
)

func TestPerturbationTone(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnablePerturbation = true
	wave := synthesize(testSampleRate, tone(200, 1.0))

	jitter, shimmer, err := Perturbation(context.Background(), wave, cfg)
	if err != nil {
		t.Fatalf("Perturbation failed: %v", err)
	}
	if !jitter.Valid || jitter.Value < 0 || jitter.Value > 0.005 {
		t.Errorf("jitter = %+v, want near 0 for a steady tone", jitter)
	}
	if !shimmer.Valid || shimmer.Value < 0 || shimmer.Value > 0.01 {
		t.Errorf("shimmer = %+v, want near 0 for a steady tone", shimmer)
	}
}

func TestPerturbationSilence(t *testing.T) {
	cfg := testConfig(t)
	jitter, shimmer, err := Perturbation(context.Background(), synthesize(testSampleRate, silence(1.0)), cfg)
	if err != nil {
		t.Fatalf("silence should not be an error: %v", err)
	}
	if jitter.Valid || shimmer.Valid {
		t.Errorf("silence gave jitter %+v shimmer %+v, want undefined", jitter, shimmer)
	}
}

func TestPerturbationLowSampleRate(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		freq       float64
		undefined  bool
	}{
		{"ceiling above nyquist", 800, 150, false},
		{"floor above nyquist", 120, 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.EnablePerturbation = true

			jitter, shimmer, err := Perturbation(context.Background(), synthesize(tt.sampleRate, tone(tt.freq, 1.0)), cfg)
			if err != nil {
				t.Fatalf("low sample rate should not be an error: %v", err)
			}
			if tt.undefined && (jitter.Valid || shimmer.Valid) {
				t.Errorf("jitter %+v shimmer %+v, want undefined", jitter, shimmer)
			}
		})
	}
}

// A file whose rate cannot carry the periodicity model still gets a record
func TestAnalyzeWaveformLowSampleRatePerturbation(t *testing.T) {
	cfg := testConfig(t)
	cfg.PitchCeiling = 300
	cfg.EnablePerturbation = true

	a, err := AnalyzeWaveform(context.Background(), synthesize(800, tone(150, 1.0)), cfg, nil)
	if err != nil {
		t.Fatalf("AnalyzeWaveform failed: %v", err)
	}
	if a.Record.Jitter == nil || a.Record.Shimmer == nil {
		t.Fatal("jitter and shimmer should be present when enabled")
	}
	if a.Record.Duration != 1.0 {
		t.Errorf("duration = %v, want 1", a.Record.Duration)
	}
}

func TestPlacePulses(t *testing.T) {
	cfg := testConfig(t)
	wave := synthesize(testSampleRate, tone(200, 0.5), silence(0.3), tone(200, 0.5))

	track, err := TrackPitch(context.Background(), wave, cfg.pitchConfig(cfg.PerturbationFloor, cfg.PerturbationCeiling))
	if err != nil {
		t.Fatal(err)
	}

	stretches := PlacePulses(wave, track)
	if len(stretches) != 2 {
		t.Fatalf("got %d voiced stretches, want 2", len(stretches))
	}
	for s, pulses := range stretches {
		if len(pulses) < 50 {
			t.Errorf("stretch %d has %d pulses, want about 90", s, len(pulses))
		}
		for i := 1; i < len(pulses); i++ {
			if d := pulses[i].Time - pulses[i-1].Time; !approx(d, 0.005, 1e-4) {
				t.Errorf("stretch %d period %d = %v, want 0.005", s, i, d)
				break
			}
		}
	}
}

func TestLocalJitter(t *testing.T) {
	cfg := DefaultAnalysisConfig()

	tests := []struct {
		name    string
		periods []period
		want    Measure
	}{
		{
			name:    "alternating",
			periods: []period{{0.010, 1}, {0.011, 1}, {0.010, 1}},
			want:    Defined(0.001 / (0.031 / 3)),
		},
		{
			name:    "ratio above factor excluded",
			periods: []period{{0.005, 1}, {0.010, 1}},
			want:    Undefined(),
		},
		{
			name:    "period too long excluded",
			periods: []period{{0.025, 1}, {0.026, 1}},
			want:    Undefined(),
		},
		{
			name:    "single period",
			periods: []period{{0.010, 1}},
			want:    Undefined(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localJitter([][]period{tt.periods}, cfg)
			if got.Valid != tt.want.Valid || (got.Valid && !approx(got.Value, tt.want.Value, 1e-9)) {
				t.Errorf("localJitter = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocalShimmer(t *testing.T) {
	cfg := DefaultAnalysisConfig()

	tests := []struct {
		name    string
		periods []period
		want    Measure
	}{
		{
			name:    "steady",
			periods: []period{{0.010, 0.5}, {0.010, 0.5}, {0.010, 0.5}},
			want:    Defined(0),
		},
		{
			name:    "alternating",
			periods: []period{{0.010, 0.4}, {0.010, 0.6}},
			want:    Defined(0.2 / 0.5),
		},
		{
			name:    "amplitude ratio above factor excluded",
			periods: []period{{0.010, 0.2}, {0.010, 0.8}},
			want:    Undefined(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localShimmer([][]period{tt.periods}, cfg)
			if got.Valid != tt.want.Valid || (got.Valid && !approx(got.Value, tt.want.Value, 1e-9)) {
				t.Errorf("localShimmer = %+v, want %+v", got, tt.want)
			}
		})
	}
}
