package prosody

import (
	"context"
	"errors"
	"testing"

	"github.com/linuxmatters/prosody/internal/audio"
)

func TestTrackPitchTone(t *testing.T) {
	tests := []struct {
		name string
		freq float64
	}{
		{"low voice", 110},
		{"mid voice", 200},
		{"high voice", 330},
	}

	cfg := testConfig(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wave := synthesize(testSampleRate, tone(tt.freq, 1.0))

			track, err := TrackPitch(context.Background(), wave, cfg)
			if err != nil {
				t.Fatalf("TrackPitch failed: %v", err)
			}

			mean, rng := PitchStats(track)
			if !mean.Valid {
				t.Fatal("expected voiced frames in a steady tone")
			}
			if !approx(mean.Value, tt.freq, 1.0) {
				t.Errorf("f0 mean = %.2f, want %.0f ±1", mean.Value, tt.freq)
			}
			if !rng.Valid || rng.Value > 2.0 {
				t.Errorf("f0 range = %+v, want < 2 Hz", rng)
			}
			if voiced := len(track.Voiced()); voiced < len(track.Frames)*8/10 {
				t.Errorf("only %d of %d frames voiced", voiced, len(track.Frames))
			}
		})
	}
}

func TestTrackPitchGrid(t *testing.T) {
	cfg := testConfig(t)
	wave := synthesize(testSampleRate, tone(200, 0.5))

	track, err := TrackPitch(context.Background(), wave, cfg)
	if err != nil {
		t.Fatalf("TrackPitch failed: %v", err)
	}

	if len(track.Frames) != 51 {
		t.Fatalf("got %d frames, want 51 (0.00 .. 0.50)", len(track.Frames))
	}
	for i, f := range track.Frames {
		if f.Time < 0 || f.Time > track.Duration+1e-9 {
			t.Errorf("frame %d time %v outside [0, %v]", i, f.Time, track.Duration)
		}
		if i > 0 && f.Time <= track.Frames[i-1].Time {
			t.Errorf("frame %d time %v not increasing", i, f.Time)
		}
	}
	// Edge windows do not fit inside the signal
	if track.Frames[0].Frequency.Valid {
		t.Error("first frame should be unvoiced")
	}
}

func TestTrackPitchSilence(t *testing.T) {
	cfg := testConfig(t)
	wave := synthesize(testSampleRate, silence(1.0))

	track, err := TrackPitch(context.Background(), wave, cfg)
	if err != nil {
		t.Fatalf("TrackPitch failed: %v", err)
	}
	mean, rng := PitchStats(track)
	if mean.Valid || rng.Valid {
		t.Errorf("silence gave f0 mean %+v range %+v, want undefined", mean, rng)
	}
}

func TestTrackPitchOutOfRange(t *testing.T) {
	cfg := testConfig(t)
	cfg.PitchFloor = 75
	cfg.PitchCeiling = 150

	// 40 Hz lies below the floor
	wave := synthesize(testSampleRate, tone(40, 1.0))
	track, err := TrackPitch(context.Background(), wave, cfg)
	if err != nil {
		t.Fatalf("TrackPitch failed: %v", err)
	}
	for _, f := range track.Frames {
		if f.Frequency.Valid && (f.Frequency.Value < cfg.PitchFloor || f.Frequency.Value > cfg.PitchCeiling) {
			t.Errorf("frame at %.2f reports %.1f Hz outside [%v, %v]", f.Time, f.Frequency.Value, cfg.PitchFloor, cfg.PitchCeiling)
		}
	}
}

func TestTrackPitchEmpty(t *testing.T) {
	cfg := testConfig(t)
	track, err := TrackPitch(context.Background(), &audio.Waveform{SampleRate: testSampleRate}, cfg)
	if err != nil {
		t.Fatalf("TrackPitch failed: %v", err)
	}
	if len(track.Frames) != 0 {
		t.Errorf("empty waveform gave %d frames", len(track.Frames))
	}
	if mean, _ := PitchStats(track); mean.Valid {
		t.Error("empty waveform should have undefined f0")
	}
}

func TestTrackPitchAboveNyquist(t *testing.T) {
	cfg := testConfig(t)
	wave := synthesize(1000, tone(100, 0.5))

	_, err := TrackPitch(context.Background(), wave, cfg)
	if !errors.Is(err, ErrPitchAboveNyquist) {
		t.Errorf("error = %v, want ErrPitchAboveNyquist", err)
	}
}

func TestTrackPitchCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrackPitch(ctx, synthesize(testSampleRate, tone(200, 1.0)), cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
