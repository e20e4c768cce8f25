package prosody

import (
	"math"
	"strconv"
	"sync"

	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/mains"
)

// Mains hum notch parameters
const (
	humHarmonics = 4    // fundamental + 3 harmonics (e.g. 50, 100, 150, 200 Hz)
	humQ         = 30.0 // narrow notch, little impact on voice
)

// localMains is resolved once per process; the timezone does not change mid-run
var localMains = sync.OnceValue(mains.Detect)

// HumFrequency resolves the notch fundamental for a filter mode.
// Returns 0 when the filter is off.
func HumFrequency(mode HumFilterMode) float64 {
	switch mode {
	case HumFilterAuto:
		return float64(localMains().Frequency)
	case HumFilter50Hz, HumFilter60Hz:
		hz, _ := strconv.Atoi(string(mode))
		return float64(hz)
	default:
		return 0
	}
}

// biquad is a direct form I second-order section, coefficients normalised by a0
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

// notch returns an RBJ cookbook band-reject section centred on freq
func notch(freq, q float64, sampleRate int) biquad {
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	a0 := 1 + alpha
	return biquad{
		b0: 1 / a0,
		b1: -2 * cosw / a0,
		b2: 1 / a0,
		a1: -2 * cosw / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f biquad) apply(in, out []float64) {
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
}

// RemoveHum returns a copy of wave with notches at fundamental and its
// harmonics below Nyquist. The input waveform is not modified.
// A zero fundamental returns wave unchanged.
func RemoveHum(wave *audio.Waveform, fundamental float64) *audio.Waveform {
	if wave == nil || fundamental <= 0 || len(wave.Samples) == 0 {
		return wave
	}

	nyquist := float64(wave.SampleRate) / 2
	out := make([]float64, len(wave.Samples))
	copy(out, wave.Samples)

	for h := 1; h <= humHarmonics; h++ {
		freq := fundamental * float64(h)
		if freq >= nyquist {
			break
		}
		notch(freq, humQ, wave.SampleRate).apply(out, out)
	}

	return &audio.Waveform{Samples: out, SampleRate: wave.SampleRate}
}
