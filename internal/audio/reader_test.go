package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV encodes integer samples as a PCM WAV file in dir
func writeTestWAV(t *testing.T, dir, name string, data []int, sampleRate, bitDepth, channels int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, formatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if len(data) > 0 {
		if err := enc.Write(buf); err != nil {
			t.Fatalf("failed to write samples: %v", err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalise WAV: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("16-bit mono", func(t *testing.T) {
		data := []int{0, 16384, -16384, 32767, -32768}
		path := writeTestWAV(t, dir, "mono16.wav", data, 16000, 16, 1)

		wave, meta, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if wave.SampleRate != 16000 {
			t.Errorf("SampleRate = %d, want 16000", wave.SampleRate)
		}
		want := []float64{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
		if len(wave.Samples) != len(want) {
			t.Fatalf("got %d samples, want %d", len(wave.Samples), len(want))
		}
		for i := range want {
			if math.Abs(wave.Samples[i]-want[i]) > 1e-9 {
				t.Errorf("sample %d = %v, want %v", i, wave.Samples[i], want[i])
			}
		}
		if meta.Channels != 1 || meta.BitDepth != 16 || meta.NumSamples != 5 {
			t.Errorf("unexpected metadata: %+v", meta)
		}
	})

	t.Run("8-bit unsigned", func(t *testing.T) {
		path := writeTestWAV(t, dir, "mono8.wav", []int{128, 192, 64}, 8000, 8, 1)

		wave, _, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		want := []float64{0, 0.5, -0.5}
		for i := range want {
			if math.Abs(wave.Samples[i]-want[i]) > 1e-9 {
				t.Errorf("sample %d = %v, want %v", i, wave.Samples[i], want[i])
			}
		}
	})

	t.Run("stereo rejected", func(t *testing.T) {
		path := writeTestWAV(t, dir, "stereo.wav", []int{0, 0, 100, 100}, 16000, 16, 2)

		_, _, err := Load(path)
		if !errors.Is(err, ErrNotMono) {
			t.Errorf("Load error = %v, want ErrNotMono", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := Load(filepath.Join(dir, "nope.wav")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("not a WAV", func(t *testing.T) {
		path := filepath.Join(dir, "text.wav")
		if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := Load(path); err == nil {
			t.Error("expected error for invalid WAV")
		}
	})

	t.Run("float encoding rejected", func(t *testing.T) {
		path := filepath.Join(dir, "float.wav")
		writeFloatHeader(t, path)

		_, _, err := Load(path)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Load error = %v, want ErrUnsupportedFormat", err)
		}
	})
}

func TestWaveformDuration(t *testing.T) {
	tests := []struct {
		name string
		wave *Waveform
		want float64
	}{
		{"nil", nil, 0},
		{"zero rate", &Waveform{Samples: make([]float64, 10)}, 0},
		{"one second", &Waveform{Samples: make([]float64, 8000), SampleRate: 8000}, 1.0},
		{"empty", &Waveform{SampleRate: 44100}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.wave.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// writeFloatHeader writes a minimal IEEE-float WAV with a handful of samples
func writeFloatHeader(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	const (
		sampleRate    = 16000
		bitsPerSample = 32
		numSamples    = 4
	)
	dataSize := uint32(numSamples * bitsPerSample / 8)

	write := func(v any) {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			t.Fatal(err)
		}
	}

	write([]byte("RIFF"))
	write(36 + dataSize)
	write([]byte("WAVE"))
	write([]byte("fmt "))
	write(uint32(16))
	write(uint16(3)) // IEEE float
	write(uint16(1))
	write(uint32(sampleRate))
	write(uint32(sampleRate * bitsPerSample / 8))
	write(uint16(bitsPerSample / 8))
	write(uint16(bitsPerSample))
	write([]byte("data"))
	write(dataSize)
	write(make([]float32, numSamples))
}
