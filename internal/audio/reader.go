// Package audio provides WAV file loading into mono float sample buffers
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags accepted by the loader
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

var (
	// ErrNotMono is returned for files with more or fewer than one channel
	ErrNotMono = errors.New("expected mono audio")

	// ErrUnsupportedFormat is returned for WAV encodings other than integer PCM
	ErrUnsupportedFormat = errors.New("unsupported WAV encoding")
)

// Waveform is a decoded single-channel signal.
// Samples are normalised to [-1, 1]. A Waveform is never modified after Load.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds
func (w *Waveform) Duration() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Peak returns the largest absolute sample value
func (w *Waveform) Peak() float64 {
	peak := 0.0
	for _, s := range w.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
	NumSamples int
}

// Load decodes a mono PCM WAV file.
// A valid file with an empty data chunk yields an empty Waveform, not an error.
func Load(filename string) (*Waveform, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, nil, fmt.Errorf("not a valid WAV file: %s", filename)
	}

	if decoder.WavAudioFormat != formatPCM && decoder.WavAudioFormat != formatExtensible {
		return nil, nil, fmt.Errorf("%w: format tag %d in file: %s", ErrUnsupportedFormat, decoder.WavAudioFormat, filename)
	}
	if decoder.NumChans != 1 {
		return nil, nil, fmt.Errorf("%w, got %d channels in file: %s", ErrNotMono, decoder.NumChans, filename)
	}
	if decoder.SampleRate == 0 {
		return nil, nil, fmt.Errorf("zero sample rate in file: %s", filename)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read PCM data: %w", err)
	}

	bitDepth := int(decoder.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}

	wave := &Waveform{
		Samples:    toFloat(buf, bitDepth),
		SampleRate: int(decoder.SampleRate),
	}

	metadata := &Metadata{
		Duration:   wave.Duration(),
		SampleRate: wave.SampleRate,
		Channels:   int(decoder.NumChans),
		BitDepth:   bitDepth,
		NumSamples: len(wave.Samples),
	}

	return wave, metadata, nil
}

// toFloat scales integer PCM to [-1, 1].
// 8-bit WAV is unsigned with a 128 midpoint; wider depths are two's complement.
func toFloat(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	out := make([]float64, len(buf.Data))
	if len(out) == 0 {
		return out
	}

	if bitDepth == 8 {
		for i, v := range buf.Data {
			out[i] = float64(v-128) / 128.0
		}
		return out
	}

	scale := math.Ldexp(1, bitDepth-1)
	for i, v := range buf.Data {
		out[i] = float64(v) / scale
	}
	return out
}
