package prosody

import (
	"math"
	"sort"
)

// pauseEpsilon absorbs float error on the frame grid when comparing
// a pause against the minimum duration
const pauseEpsilon = 1e-9

// PauseInterval is a contiguous low-energy region, End > Start
type PauseInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the pause length in seconds
func (p PauseInterval) Duration() float64 {
	return p.End - p.Start
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. Undefined for an empty slice.
func Percentile(values []float64, p float64) Measure {
	if len(values) == 0 {
		return Undefined()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi > len(sorted)-1 {
		hi = len(sorted) - 1
	}
	frac := pos - float64(lo)
	return Defined(sorted[lo] + frac*(sorted[hi]-sorted[lo]))
}

// PauseThreshold is the intensity level at or below which a frame counts as quiet
func PauseThreshold(track *IntensityTrack, cfg *AnalysisConfig) Measure {
	if track == nil {
		return Undefined()
	}
	return Percentile(track.Values(), cfg.PauseThresholdPercentile)
}

// FindPauses segments the intensity contour into pauses.
// Frames at or below the threshold are quiet; unmeasurable frames keep the
// current state. A pause spans its first to its last quiet frame, so the
// half-window frames on each edge of a gap bound it symmetrically.
// Candidates no longer than MinPauseDuration are discarded.
// A pause still open at the end is closed at the track duration or dropped,
// according to TrailingPause.
func FindPauses(track *IntensityTrack, cfg *AnalysisConfig) []PauseInterval {
	threshold := PauseThreshold(track, cfg)
	if !threshold.Valid {
		return nil
	}

	var pauses []PauseInterval
	keep := func(start, end float64) {
		if end-start-cfg.MinPauseDuration > pauseEpsilon {
			pauses = append(pauses, PauseInterval{Start: start, End: end})
		}
	}

	inPause := false
	start, last := 0.0, 0.0
	for _, f := range track.Frames {
		if !f.DB.Valid {
			continue
		}
		quiet := f.DB.Value <= threshold.Value
		switch {
		case quiet && !inPause:
			inPause = true
			start, last = f.Time, f.Time
		case quiet:
			last = f.Time
		case inPause:
			inPause = false
			keep(start, last)
		}
	}

	if inPause && cfg.TrailingPause == TrailingPauseClose {
		keep(start, track.Duration)
	}

	return pauses
}
