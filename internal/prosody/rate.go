package prosody

import "math"

// Rhythm summarises speech timing derived from pauses
type Rhythm struct {
	SpeechTime float64 // s, duration minus total pause time
	WordCount  float64 // estimated, not counted
	SpeechRate float64 // words per second
	PauseMean  Measure // s, undefined without pauses
	PauseCount int
	TotalPause float64 // s
}

// EstimateRate derives speech time, an estimated word count and speech rate.
// The word count assumes AverageWordDuration seconds per word, so the rate
// is a proxy rather than a transcript-based measure.
func EstimateRate(pauses []PauseInterval, duration float64, cfg *AnalysisConfig) Rhythm {
	r := Rhythm{PauseCount: len(pauses)}
	for _, p := range pauses {
		r.TotalPause += p.Duration()
	}

	r.SpeechTime = math.Max(duration-r.TotalPause, 0)
	r.WordCount = r.SpeechTime / cfg.AverageWordDuration
	if duration > 0 {
		r.SpeechRate = r.WordCount / duration
	}
	if len(pauses) > 0 {
		r.PauseMean = Defined(r.TotalPause / float64(len(pauses)))
	}
	return r
}
