package prosody

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/linuxmatters/prosody/internal/audio"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrPitchAboveNyquist is returned when the pitch ceiling cannot be represented at the file's sample rate
var ErrPitchAboveNyquist = errors.New("pitch ceiling above Nyquist frequency")

// Pitch analysis window, in periods of the pitch floor
const pitchWindowPeriods = 3.0

// ctxCheckInterval is how many frames are analysed between cancellation checks
const ctxCheckInterval = 32

// PitchFrame is one analysis frame. Frequency is undefined for unvoiced frames.
type PitchFrame struct {
	Time      float64
	Frequency Measure
}

// PitchTrack is a fixed-step F0 contour starting at t=0
type PitchTrack struct {
	TimeStep float64
	Duration float64
	Frames   []PitchFrame
}

// Voiced returns the frequencies of all voiced frames in time order
func (p *PitchTrack) Voiced() []float64 {
	var out []float64
	for _, f := range p.Frames {
		if f.Frequency.Valid {
			out = append(out, f.Frequency.Value)
		}
	}
	return out
}

// PitchStats returns mean F0 and F0 range (max - min) over voiced frames.
// Both are undefined when no frame is voiced.
func PitchStats(track *PitchTrack) (mean, rng Measure) {
	if track == nil {
		return Undefined(), Undefined()
	}
	voiced := track.Voiced()
	if len(voiced) == 0 {
		return Undefined(), Undefined()
	}
	return Defined(stat.Mean(voiced, nil)), Defined(floats.Max(voiced) - floats.Min(voiced))
}

// frameCount returns the number of frames on the k*step grid within [0, duration]
func frameCount(duration, step float64) int {
	if duration <= 0 || step <= 0 {
		return 0
	}
	return int(math.Floor(duration/step+1e-9)) + 1
}

// pitchAnalyzer holds the per-file FFT plan and window tables
type pitchAnalyzer struct {
	sampleRate float64
	floor      float64
	ceiling    float64
	winLen     int
	minLag     int
	maxLag     int

	fft    *fourier.FFT
	window []float64
	winAC  []float64 // normalised autocorrelation of the window itself

	// scratch buffers reused across frames
	frame  []float64
	padded []float64
	coeffs []complex128
	ac     []float64
}

func newPitchAnalyzer(sampleRate int, floor, ceiling float64) (*pitchAnalyzer, error) {
	sr := float64(sampleRate)
	if ceiling > sr/2 {
		return nil, fmt.Errorf("%w: %.0f Hz at %d Hz sample rate", ErrPitchAboveNyquist, ceiling, sampleRate)
	}

	winLen := int(math.Round(pitchWindowPeriods / floor * sr))
	minLag := int(math.Floor(sr / ceiling))
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(math.Ceil(sr / floor))
	if maxLag > winLen-2 {
		maxLag = winLen - 2
	}

	nfft := 1
	for nfft < 2*winLen {
		nfft <<= 1
	}

	pa := &pitchAnalyzer{
		sampleRate: sr,
		floor:      floor,
		ceiling:    ceiling,
		winLen:     winLen,
		minLag:     minLag,
		maxLag:     maxLag,
		fft:        fourier.NewFFT(nfft),
		window:     make([]float64, winLen),
		frame:      make([]float64, winLen),
		padded:     make([]float64, nfft),
	}

	// Hann window
	for i := range pa.window {
		pa.window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(winLen-1))
	}

	copy(pa.padded, pa.window)
	pa.winAC = make([]float64, nfft)
	pa.autocorrelate(pa.winAC)

	return pa, nil
}

// autocorrelate computes the normalised autocorrelation of pa.padded into dst.
// Returns false when the signal has no energy.
func (pa *pitchAnalyzer) autocorrelate(dst []float64) bool {
	pa.coeffs = pa.fft.Coefficients(pa.coeffs, pa.padded)
	for i, c := range pa.coeffs {
		pa.coeffs[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	pa.ac = pa.fft.Sequence(pa.ac, pa.coeffs)
	if pa.ac[0] <= 0 {
		return false
	}
	for i := range dst {
		dst[i] = pa.ac[i] / pa.ac[0]
	}
	return true
}

// estimate returns the best F0 for the window centred on sample centre.
// Frames whose window does not fit inside the signal are left unvoiced.
func (pa *pitchAnalyzer) estimate(samples []float64, centre int, globalPeak, silenceThreshold, voicingThreshold, octaveCost float64, r []float64) Measure {
	start := centre - pa.winLen/2
	if start < 0 || start+pa.winLen > len(samples) {
		return Undefined()
	}
	copy(pa.frame, samples[start:start+pa.winLen])

	localPeak := 0.0
	for _, s := range pa.frame {
		if a := math.Abs(s); a > localPeak {
			localPeak = a
		}
	}
	if globalPeak <= 0 || localPeak < silenceThreshold*globalPeak {
		return Undefined()
	}

	mean := floats.Sum(pa.frame) / float64(pa.winLen)
	for i := range pa.padded {
		pa.padded[i] = 0
	}
	for i, s := range pa.frame {
		pa.padded[i] = (s - mean) * pa.window[i]
	}
	if !pa.autocorrelate(r) {
		return Undefined()
	}

	// Boersma correction: divide by the window's own autocorrelation
	for lag := 1; lag <= pa.maxLag+1; lag++ {
		if pa.winAC[lag] > 0 {
			r[lag] /= pa.winAC[lag]
		}
	}

	bestScore := math.Inf(-1)
	bestStrength := 0.0
	bestFreq := 0.0
	for lag := pa.minLag; lag <= pa.maxLag; lag++ {
		if r[lag] <= r[lag-1] || r[lag] < r[lag+1] {
			continue
		}

		// Parabolic refinement of the peak position and height
		delta, strength := 0.0, r[lag]
		denom := r[lag-1] - 2*r[lag] + r[lag+1]
		if denom < 0 {
			delta = 0.5 * (r[lag-1] - r[lag+1]) / denom
			strength = r[lag] - 0.25*(r[lag-1]-r[lag+1])*delta
		}

		lagSecs := (float64(lag) + delta) / pa.sampleRate
		freq := 1 / lagSecs
		if freq < pa.floor || freq > pa.ceiling {
			continue
		}

		score := strength - octaveCost*math.Log2(pa.floor*lagSecs)
		if score > bestScore {
			bestScore = score
			bestStrength = strength
			bestFreq = freq
		}
	}

	if bestFreq == 0 || bestStrength < voicingThreshold {
		return Undefined()
	}
	return Defined(bestFreq)
}

// TrackPitch estimates F0 at every time step from 0 to the waveform duration.
// An empty waveform yields an empty track. Frames are unvoiced when the local
// level is below the silence threshold, periodicity is weak, or the best
// candidate falls outside [PitchFloor, PitchCeiling].
func TrackPitch(ctx context.Context, wave *audio.Waveform, cfg *AnalysisConfig) (*PitchTrack, error) {
	track := &PitchTrack{TimeStep: cfg.TimeStep, Duration: wave.Duration()}
	n := frameCount(track.Duration, cfg.TimeStep)
	if n == 0 {
		return track, nil
	}

	pa, err := newPitchAnalyzer(wave.SampleRate, cfg.PitchFloor, cfg.PitchCeiling)
	if err != nil {
		return nil, err
	}

	globalPeak := wave.Peak()
	r := make([]float64, len(pa.padded))
	track.Frames = make([]PitchFrame, n)

	for k := 0; k < n; k++ {
		if k%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		t := float64(k) * cfg.TimeStep
		centre := int(math.Round(t * pa.sampleRate))
		track.Frames[k] = PitchFrame{
			Time:      t,
			Frequency: pa.estimate(wave.Samples, centre, globalPeak, cfg.SilenceThreshold, cfg.VoicingThreshold, cfg.OctaveCost, r),
		}
	}

	return track, nil
}
