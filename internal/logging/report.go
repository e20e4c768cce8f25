package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// ============================================================================
// Prosody Interpretation Functions
// ============================================================================
// These functions interpret prosody measurements and return human-readable
// descriptions. Reference ranges follow common phonetics conventions for
// adult read and conversational speech.

// interpretF0Mean places the mean fundamental frequency within typical voice ranges.
//
// Reference values:
// - Adult male: 85-155 Hz
// - Adult female: 165-255 Hz
// - Children: 250-400 Hz
func interpretF0Mean(hz float64) string {
	switch {
	case hz < 85:
		return "very low, below the typical adult range"
	case hz < 155:
		return "typical adult male range"
	case hz < 165:
		return "between typical male and female ranges"
	case hz < 255:
		return "typical adult female range"
	case hz < 400:
		return "high, typical of children"
	default:
		return "very high, check pitch ceiling"
	}
}

// interpretF0Range describes intonation from the range relative to the mean.
// A range above the mean itself usually indicates octave jumps in the track.
func interpretF0Range(rng, mean float64) string {
	if mean <= 0 {
		return ""
	}
	ratio := rng / mean
	switch {
	case ratio < 0.25:
		return "narrow, monotone delivery"
	case ratio < 0.6:
		return "moderate intonation"
	case ratio < 1.0:
		return "expressive intonation"
	default:
		return "very wide, possible octave errors"
	}
}

// interpretVoicing describes the share of frames carrying a pitch estimate.
func interpretVoicing(fraction float64) string {
	switch {
	case fraction < 0.1:
		return "little voiced speech"
	case fraction < 0.3:
		return "sparse voicing, pause-heavy"
	case fraction < 0.7:
		return "typical of continuous speech"
	default:
		return "densely voiced"
	}
}

// interpretSpeechRate describes the estimated words per second.
// Conversational English sits around 2-3 words per second.
func interpretSpeechRate(wps float64) string {
	switch {
	case wps <= 0:
		return "no speech"
	case wps < 1.5:
		return "slow"
	case wps < 2.5:
		return "measured, conversational"
	case wps < 3.5:
		return "brisk"
	default:
		return "fast"
	}
}

// interpretPauseMean describes the mean pause length.
func interpretPauseMean(secs float64) string {
	switch {
	case secs < 0.5:
		return "short, fluent"
	case secs < 1.0:
		return "natural phrasing"
	case secs < 2.0:
		return "long, deliberate"
	default:
		return "very long, hesitant or edited gaps"
	}
}

// interpretRMSMean describes mean frame energy relative to the loudest frame.
// Values near 0 dB mean the level barely moves; very low values mean the
// file is mostly quiet around a few loud peaks.
func interpretRMSMean(db float64) string {
	switch {
	case db > -6:
		return "very even level, possibly compressed"
	case db > -15:
		return "natural dynamics"
	case db > -25:
		return "wide dynamics"
	default:
		return "mostly quiet relative to peaks"
	}
}

// interpretJitter compares local jitter with the 1.04% pathology threshold.
func interpretJitter(ratio float64) string {
	if ratio <= jitterNormalLimit {
		return "within normal range (< 1.04%)"
	}
	return "elevated (> 1.04%)"
}

// interpretShimmer compares local shimmer with the 3.81% pathology threshold.
func interpretShimmer(ratio float64) string {
	if ratio <= shimmerNormalLimit {
		return "within normal range (< 3.81%)"
	}
	return "elevated (> 3.81%)"
}

// =============================================================================
// Report Generation
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate an analysis report
type ReportData struct {
	InputPath string
	StartTime time.Time
	EndTime   time.Time
	Analysis  *prosody.Analysis
	Metadata  *audio.Metadata
	Config    *prosody.AnalysisConfig
}

// ReportPath returns the report location for an input file:
// recordings/talk.wav → recordings/talk-prosody.log
func ReportPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-prosody.log"
}

// GenerateReport creates a detailed analysis report alongside the input file
// and returns its path.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - timing and audio format
// 3. Pitch, Energy, Rhythm and Voice Quality tables
// 4. Pause list
// 5. Delivery notes
// 6. Analysis settings
func GenerateReport(data ReportData) (string, error) {
	if data.Analysis == nil {
		return "", fmt.Errorf("no analysis for %s", data.InputPath)
	}

	logPath := ReportPath(data.InputPath)
	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", err
	}
	return logPath, f.Close()
}

// WriteReport renders the report to w
func WriteReport(w io.Writer, data ReportData) error {
	if data.Analysis == nil {
		return fmt.Errorf("no analysis for %s", data.InputPath)
	}
	cfg := data.Config
	if cfg == nil {
		cfg = prosody.DefaultAnalysisConfig()
	}

	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writePitchTable(w, data.Analysis, cfg)
	writeEnergyTable(w, data.Analysis, cfg)
	writeRhythmTable(w, data.Analysis, cfg)
	if data.Analysis.Record.Jitter != nil {
		writeVoiceQualityTable(w, data.Analysis)
	}
	writePauseList(w, data.Analysis)
	writeDeliveryNotes(w, data.Analysis)
	writeSettings(w, data.Analysis, cfg)
	return nil
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// formatTimestamp renders a position in the file as m:ss.cc
func formatTimestamp(secs float64) string {
	minutes := int(secs / 60)
	return fmt.Sprintf("%d:%05.2f", minutes, secs-float64(minutes*60))
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

func writeReportHeader(w io.Writer, data ReportData) {
	title := "Prosody Analysis Report"
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Analysed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	duration := data.Analysis.Record.Duration
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(duration*float64(time.Second))))
	fmt.Fprintln(w, "")
}

func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	if meta := data.Metadata; meta != nil {
		fmt.Fprintf(w, "Format:   %d Hz, %d-bit, %s\n", meta.SampleRate, meta.BitDepth, channelName(meta.Channels))
		fmt.Fprintf(w, "Samples:  %d\n", meta.NumSamples)
	}

	elapsed := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Analysis: %s", formatDuration(elapsed))
	if duration := data.Analysis.Record.Duration; duration > 0 && elapsed > 0 {
		rtf := duration / elapsed.Seconds()
		fmt.Fprintf(w, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

func writePitchTable(w io.Writer, a *prosody.Analysis, cfg *prosody.AnalysisConfig) {
	writeSection(w, "Pitch")
	rec := a.Record
	p := cfg.Precision

	table := NewMetricTable()
	meanNote, rangeNote := "", ""
	if rec.F0Mean.Valid {
		meanNote = interpretF0Mean(rec.F0Mean.Value)
		if rec.F0Range.Valid {
			rangeNote = interpretF0Range(rec.F0Range.Value, rec.F0Mean.Value)
		}
	} else {
		meanNote = "no voiced frames"
	}
	table.AddMeasureRow("Mean F0", rec.F0Mean, p, "Hz", meanNote)
	table.AddMeasureRow("F0 range", rec.F0Range, p, "Hz", rangeNote)

	if a.Pitch != nil && len(a.Pitch.Frames) > 0 {
		voiced := len(a.Pitch.Voiced())
		fraction := float64(voiced) / float64(len(a.Pitch.Frames))
		table.AddRow("Voiced frames", []string{fmt.Sprintf("%d/%d", voiced, len(a.Pitch.Frames))}, "", interpretVoicing(fraction))
	}

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeEnergyTable(w io.Writer, a *prosody.Analysis, cfg *prosody.AnalysisConfig) {
	writeSection(w, "Energy")
	p := cfg.Precision

	table := NewMetricTable()
	rmsNote := "digital silence"
	if a.Record.RMSMean.Valid {
		rmsNote = interpretRMSMean(a.Record.RMSMean.Value)
	}
	table.AddMeasureRow("Mean RMS", a.Record.RMSMean, p, "dB", rmsNote)
	table.AddMeasureRow("Pause threshold", a.Threshold.Round(p), p, "dB", fmt.Sprintf("%gth percentile of intensity", cfg.PauseThresholdPercentile))

	if a.Intensity != nil {
		values := a.Intensity.Values()
		if len(values) > 0 {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range values {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			table.AddMetricRow("Intensity min", lo, p, "dB", "")
			table.AddMetricRow("Intensity max", hi, p, "dB", "")
		}
	}

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeRhythmTable(w io.Writer, a *prosody.Analysis, cfg *prosody.AnalysisConfig) {
	writeSection(w, "Rhythm")
	rec, r := a.Record, a.Rhythm
	p := cfg.Precision

	table := NewMetricTable()
	table.AddMetricRow("Speech rate", rec.SpeechRate, p, "words/s", interpretSpeechRate(rec.SpeechRate))
	table.AddMetricRow("Speech time", prosody.Round(r.SpeechTime, p), p, "s", "")
	table.AddMetricRow("Estimated words", prosody.Round(r.WordCount, 1), 1, "", fmt.Sprintf("at %gs per word", cfg.AverageWordDuration))
	table.AddRow("Pauses", []string{fmt.Sprintf("%d", r.PauseCount)}, "", "")

	pauseNote := "no pauses detected"
	if rec.PauseMean.Valid {
		pauseNote = interpretPauseMean(rec.PauseMean.Value)
	}
	table.AddMeasureRow("Mean pause", rec.PauseMean, p, "s", pauseNote)
	table.AddMetricRow("Total pause", prosody.Round(r.TotalPause, p), p, "s", "")

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writeVoiceQualityTable(w io.Writer, a *prosody.Analysis) {
	writeSection(w, "Voice Quality")
	rec := a.Record

	table := NewMetricTable()
	jitterNote, shimmerNote := "too few periods", "too few periods"
	if rec.Jitter.Valid {
		jitterNote = interpretJitter(rec.Jitter.Value)
	}
	if rec.Shimmer.Valid {
		shimmerNote = interpretShimmer(rec.Shimmer.Value)
	}
	table.AddRow("Jitter (local)", []string{formatPercent(*rec.Jitter, 3)}, "%", jitterNote)
	table.AddRow("Shimmer (local)", []string{formatPercent(*rec.Shimmer, 3)}, "%", shimmerNote)

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

func writePauseList(w io.Writer, a *prosody.Analysis) {
	writeSection(w, "Pauses")
	if len(a.Pauses) == 0 {
		fmt.Fprintln(w, "None detected")
		fmt.Fprintln(w, "")
		return
	}

	for i, pause := range a.Pauses {
		fmt.Fprintf(w, "%3d. %s - %s  (%.2fs)\n", i+1, formatTimestamp(pause.Start), formatTimestamp(pause.End), pause.Duration())
	}
	fmt.Fprintln(w, "")
}

func writeDeliveryNotes(w io.Writer, a *prosody.Analysis) {
	tips := GenerateDeliveryTips(a)
	if len(tips) == 0 {
		return
	}

	writeSection(w, "Delivery Notes")
	for _, tip := range tips {
		fmt.Fprintf(w, "- %s\n", wrapText(tip.Message, 76, "  "))
	}
	fmt.Fprintln(w, "")
}

func writeSettings(w io.Writer, a *prosody.Analysis, cfg *prosody.AnalysisConfig) {
	writeSection(w, "Analysis Settings")

	fmt.Fprintf(w, "Pitch range:      %g-%g Hz, %gs step\n", cfg.PitchFloor, cfg.PitchCeiling, cfg.TimeStep)
	fmt.Fprintf(w, "Minimum pause:    %gs\n", cfg.MinPauseDuration)
	fmt.Fprintf(w, "Trailing pause:   %s\n", cfg.TrailingPause)
	if a.HumFrequency > 0 {
		fmt.Fprintf(w, "Hum filter:       %g Hz notch\n", a.HumFrequency)
	} else {
		fmt.Fprintln(w, "Hum filter:       off")
	}
	if cfg.EnablePerturbation {
		fmt.Fprintf(w, "Periodicity:      %g-%g Hz\n", cfg.PerturbationFloor, cfg.PerturbationCeiling)
	}
}
