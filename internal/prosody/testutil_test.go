package prosody

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/prosody/internal/audio"
)

const testSampleRate = 16000

// segment is one span of synthetic signal
type segment struct {
	Duration float64 // seconds
	ToneFreq float64 // Hz, 0 = silence
	Level    float64 // linear amplitude of the tone
	Noise    float64 // linear amplitude of white noise added on top
}

// tone is a convenience voiced segment at -6 dBFS
func tone(freq, secs float64) segment {
	return segment{Duration: secs, ToneFreq: freq, Level: 0.5}
}

// silence is a digital-silence segment
func silence(secs float64) segment {
	return segment{Duration: secs}
}

// synthesize builds a waveform from consecutive segments.
// Tone phase is continuous across segments so joins do not click.
func synthesize(sampleRate int, segments ...segment) *audio.Waveform {
	// Simple LCG for deterministic noise
	rngState := uint32(12345)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	var samples []float64
	for _, seg := range segments {
		n := int(math.Round(seg.Duration * float64(sampleRate)))
		for i := 0; i < n; i++ {
			t := float64(len(samples)) / float64(sampleRate)
			var s float64
			if seg.ToneFreq > 0 {
				s += seg.Level * math.Sin(2*math.Pi*seg.ToneFreq*t)
			}
			if seg.Noise > 0 {
				s += seg.Noise * nextRandom()
			}
			samples = append(samples, s)
		}
	}
	return &audio.Waveform{Samples: samples, SampleRate: sampleRate}
}

// writeWaveform encodes a waveform as 16-bit mono PCM in dir
func writeWaveform(t *testing.T, dir, name string, wave *audio.Waveform) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, len(wave.Samples))
	for i, s := range wave.Samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, wave.SampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: wave.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalise WAV: %v", err)
	}
	return path
}

// testConfig returns validated defaults
func testConfig(t *testing.T) *AnalysisConfig {
	t.Helper()
	cfg := DefaultAnalysisConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	return cfg
}

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}
