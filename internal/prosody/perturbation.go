package prosody

import (
	"context"
	"math"

	"github.com/linuxmatters/prosody/internal/audio"
)

// Pulse search window, in local periods after the previous pulse
const (
	pulseSearchMin = 0.8
	pulseSearchMax = 1.25
)

// Pulse is one glottal cycle marker
type Pulse struct {
	Time      float64 // s
	Amplitude float64 // peak absolute amplitude of the cycle starting here
}

// period is the interval between two pulses within one voiced stretch
type period struct {
	length    float64
	amplitude float64
}

// Perturbation computes local jitter and local shimmer.
// Both are undefined (not an error) when the sample rate cannot carry the
// periodicity range, fewer than three pulses are found, or no consecutive
// pair satisfies the period and amplitude bounds.
func Perturbation(ctx context.Context, wave *audio.Waveform, cfg *AnalysisConfig) (jitter, shimmer Measure, err error) {
	// The pulse model is limited to what the file can represent
	ceiling := min(cfg.PerturbationCeiling, float64(wave.SampleRate)/2)
	if ceiling <= cfg.PerturbationFloor {
		return Undefined(), Undefined(), nil
	}

	track, err := TrackPitch(ctx, wave, cfg.pitchConfig(cfg.PerturbationFloor, ceiling))
	if err != nil {
		return Undefined(), Undefined(), err
	}

	stretches := PlacePulses(wave, track)
	total := 0
	for _, s := range stretches {
		total += len(s)
	}
	if total < 3 {
		return Undefined(), Undefined(), nil
	}

	var periods [][]period
	for _, pulses := range stretches {
		periods = append(periods, cycles(wave, pulses))
	}

	return localJitter(periods, cfg), localShimmer(periods, cfg), nil
}

// PlacePulses marks glottal pulses inside each voiced stretch of the track.
// Each stretch starts at its largest positive peak within the first period
// and then steps one local period at a time, snapping to the waveform maximum
// inside [0.8, 1.25] periods. Returns one pulse slice per stretch.
func PlacePulses(wave *audio.Waveform, track *PitchTrack) [][]Pulse {
	if wave == nil || track == nil || len(wave.Samples) == 0 {
		return nil
	}

	sr := float64(wave.SampleRate)
	samples := wave.Samples
	half := track.TimeStep / 2

	var out [][]Pulse
	frames := track.Frames
	for i := 0; i < len(frames); {
		if !frames[i].Frequency.Valid {
			i++
			continue
		}
		j := i
		for j < len(frames) && frames[j].Frequency.Valid {
			j++
		}
		stretch := frames[i:j]
		i = j

		begin := math.Max(stretch[0].Time-half, 0)
		end := math.Min(stretch[len(stretch)-1].Time+half, track.Duration)
		f0At := func(t float64) float64 {
			k := int(math.Round((t - stretch[0].Time) / track.TimeStep))
			k = max(0, min(k, len(stretch)-1))
			return stretch[k].Frequency.Value
		}

		// First positive peak, one period window at a time
		first := -1
		for t := begin; t < end && first < 0; t += 1 / f0At(t) {
			first = peakIndex(samples, int(t*sr), int((t+1/f0At(t))*sr))
		}
		if first < 0 {
			continue
		}
		// The window may end on a rising edge; climb to the crest
		for first+1 < len(samples) && samples[first+1] > samples[first] {
			first++
		}

		var pulses []Pulse
		pos := refinePeak(samples, first)
		for pos < end*sr {
			idx := min(int(math.Round(pos)), len(samples)-1)
			pulses = append(pulses, Pulse{Time: pos / sr, Amplitude: math.Abs(samples[idx])})

			t := pos / sr
			local := sr / f0At(t)
			lo := int(math.Ceil(pos + pulseSearchMin*local))
			hi := int(math.Floor(pos + pulseSearchMax*local))
			if float64(hi) >= end*sr {
				break
			}
			next := peakIndex(samples, lo, hi+1)
			if next < 0 {
				break
			}
			pos = refinePeak(samples, next)
		}
		if len(pulses) > 0 {
			out = append(out, pulses)
		}
	}
	return out
}

// peakIndex returns the index of the largest positive sample in [lo, hi),
// or -1 when the range holds no positive sample
func peakIndex(samples []float64, lo, hi int) int {
	lo = max(lo, 0)
	hi = min(hi, len(samples))
	best := -1
	for i := lo; i < hi; i++ {
		if samples[i] > 0 && (best < 0 || samples[i] > samples[best]) {
			best = i
		}
	}
	return best
}

// refinePeak returns the fractional sample position of the parabola vertex around i
func refinePeak(samples []float64, i int) float64 {
	if i <= 0 || i >= len(samples)-1 {
		return float64(i)
	}
	a, b, c := samples[i-1], samples[i], samples[i+1]
	denom := a - 2*b + c
	if denom >= 0 {
		return float64(i)
	}
	return float64(i) + 0.5*(a-c)/denom
}

// cycles converts pulses into periods, each with the peak absolute
// amplitude between its bounding pulses
func cycles(wave *audio.Waveform, pulses []Pulse) []period {
	if len(pulses) < 2 {
		return nil
	}
	sr := float64(wave.SampleRate)
	out := make([]period, 0, len(pulses)-1)
	for k := 1; k < len(pulses); k++ {
		lo := int(math.Round(pulses[k-1].Time * sr))
		hi := int(math.Round(pulses[k].Time * sr))
		amp := 0.0
		for i := max(lo, 0); i < min(hi, len(wave.Samples)); i++ {
			amp = math.Max(amp, math.Abs(wave.Samples[i]))
		}
		out = append(out, period{length: pulses[k].Time - pulses[k-1].Time, amplitude: amp})
	}
	return out
}

// validPair reports whether two consecutive periods may be compared
func validPair(a, b period, cfg *AnalysisConfig) bool {
	for _, p := range []period{a, b} {
		if p.length < cfg.ShortestPeriod || p.length > cfg.LongestPeriod {
			return false
		}
	}
	return math.Max(a.length, b.length)/math.Min(a.length, b.length) <= cfg.MaxPeriodFactor
}

// localJitter is the mean absolute difference of consecutive periods
// divided by the mean period
func localJitter(stretches [][]period, cfg *AnalysisConfig) Measure {
	var diffSum, periodSum float64
	pairs, counted := 0, 0
	for _, periods := range stretches {
		for _, p := range periods {
			if p.length >= cfg.ShortestPeriod && p.length <= cfg.LongestPeriod {
				periodSum += p.length
				counted++
			}
		}
		for k := 1; k < len(periods); k++ {
			if !validPair(periods[k-1], periods[k], cfg) {
				continue
			}
			diffSum += math.Abs(periods[k].length - periods[k-1].length)
			pairs++
		}
	}
	if pairs == 0 || periodSum == 0 {
		return Undefined()
	}
	return Defined((diffSum / float64(pairs)) / (periodSum / float64(counted)))
}

// localShimmer is the mean absolute difference of consecutive cycle
// amplitudes divided by the mean amplitude
func localShimmer(stretches [][]period, cfg *AnalysisConfig) Measure {
	var diffSum, ampSum float64
	pairs := 0
	for _, periods := range stretches {
		for k := 1; k < len(periods); k++ {
			a, b := periods[k-1], periods[k]
			if !validPair(a, b, cfg) || a.amplitude <= 0 || b.amplitude <= 0 {
				continue
			}
			if math.Max(a.amplitude, b.amplitude)/math.Min(a.amplitude, b.amplitude) > cfg.MaxAmplitudeFactor {
				continue
			}
			diffSum += math.Abs(b.amplitude - a.amplitude)
			ampSum += a.amplitude + b.amplitude
			pairs++
		}
	}
	if pairs == 0 || ampSum == 0 {
		return Undefined()
	}
	return Defined((diffSum / float64(pairs)) / (ampSum / float64(2*pairs)))
}
