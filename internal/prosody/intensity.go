package prosody

import (
	"context"
	"math"

	"github.com/linuxmatters/prosody/internal/audio"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Intensity contour constants
const (
	intensityWindowPeriods = 3.2   // window length in periods of the pitch floor
	intensityReference     = 4e-10 // (20 µPa)^2, auditory threshold
	silenceMeanSquare      = 1e-20 // digital-silence floor, about -86 dB
	gaussianEdge           = 12.0  // exp(-12 * (x/L)^2) reaches ~5% at the window edge
)

// RMS envelope constants (short-time energy, frame/hop in samples)
const (
	RMSFrameLength = 2048
	RMSHopLength   = 512
	rmsAmin        = 1e-5
	rmsTopDB       = 80.0
)

// IntensityFrame is one intensity sample in dB. DB is undefined when the
// frame's window holds no samples.
type IntensityFrame struct {
	Time float64
	DB   Measure
}

// IntensityTrack is a fixed-step intensity contour on the pitch time grid
type IntensityTrack struct {
	TimeStep float64
	Duration float64
	Frames   []IntensityFrame
}

// Values returns every measurable dB value in time order
func (t *IntensityTrack) Values() []float64 {
	var out []float64
	for _, f := range t.Frames {
		if f.DB.Valid {
			out = append(out, f.DB.Value)
		}
	}
	return out
}

// TrackIntensity computes a smoothed intensity contour in dB.
// Each frame is a Gaussian-weighted mean square (DC removed) over a window
// clipped to the signal, so frames near the edges use fewer samples.
func TrackIntensity(ctx context.Context, wave *audio.Waveform, cfg *AnalysisConfig) (*IntensityTrack, error) {
	track := &IntensityTrack{TimeStep: cfg.TimeStep, Duration: wave.Duration()}
	n := frameCount(track.Duration, cfg.TimeStep)
	if n == 0 {
		return track, nil
	}

	sr := float64(wave.SampleRate)
	half := int(math.Round(intensityWindowPeriods / cfg.PitchFloor * sr / 2))
	if half < 1 {
		half = 1
	}

	weights := make([]float64, 2*half+1)
	for j := range weights {
		x := float64(j-half) / float64(2*half)
		weights[j] = math.Exp(-gaussianEdge * x * x)
	}

	samples := wave.Samples
	track.Frames = make([]IntensityFrame, n)

	for k := 0; k < n; k++ {
		if k%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		t := float64(k) * cfg.TimeStep
		centre := int(math.Round(t * sr))
		lo, hi := centre-half, centre+half
		if lo < 0 {
			lo = 0
		}
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}

		var sumW, sumX, sumXX float64
		for i := lo; i <= hi; i++ {
			w := weights[i-centre+half]
			s := samples[i]
			sumW += w
			sumX += w * s
			sumXX += w * s * s
		}

		frame := IntensityFrame{Time: t}
		if sumW > 0 {
			mean := sumX / sumW
			ms := sumXX/sumW - mean*mean
			frame.DB = Defined(10 * math.Log10(math.Max(ms, silenceMeanSquare)/intensityReference))
		}
		track.Frames[k] = frame
	}

	return track, nil
}

// RMSEnvelope computes short-time RMS with centred, zero-padded frames.
// Frame i covers samples [i*hop - frame/2, i*hop + frame/2).
func RMSEnvelope(wave *audio.Waveform) []float64 {
	if wave == nil || len(wave.Samples) == 0 {
		return nil
	}

	samples := wave.Samples
	n := 1 + len(samples)/RMSHopLength
	env := make([]float64, n)

	for i := range env {
		start := i*RMSHopLength - RMSFrameLength/2
		end := start + RMSFrameLength
		if start < 0 {
			start = 0
		}
		if end > len(samples) {
			end = len(samples)
		}

		sum := 0.0
		for _, s := range samples[start:end] {
			sum += s * s
		}
		env[i] = math.Sqrt(sum / RMSFrameLength)
	}
	return env
}

// MeanRMSDB averages the envelope in dB relative to its loudest frame,
// clipping quieter frames at 80 dB below peak.
// Undefined for an empty envelope or digital silence.
func MeanRMSDB(envelope []float64) Measure {
	if len(envelope) == 0 {
		return Undefined()
	}
	peak := floats.Max(envelope)
	if peak <= 0 {
		return Undefined()
	}

	ref := 20 * math.Log10(math.Max(rmsAmin, peak))
	db := make([]float64, len(envelope))
	for i, v := range envelope {
		db[i] = math.Max(20*math.Log10(math.Max(rmsAmin, v))-ref, -rmsTopDB)
	}
	return Defined(stat.Mean(db, nil))
}
