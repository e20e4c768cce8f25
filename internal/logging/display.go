// This file provides console display for single-file and batch summaries.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// DisplayAnalysis outputs a compact human-readable summary of one file.
// Used by --summary alongside the structured output.
func DisplayAnalysis(w io.Writer, inputPath string, metadata *audio.Metadata, a *prosody.Analysis, precision int) {
	rec := a.Record

	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "PROSODY: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(rec.Duration))
	if metadata != nil {
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", metadata.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(metadata.Channels))
	}
	fmt.Fprintln(w)

	writeAnalysisSection(w, "PITCH")
	fmt.Fprintf(w, "  Mean F0:        %s\n", withUnit(formatMeasure(rec.F0Mean, precision), "Hz"))
	fmt.Fprintf(w, "  F0 Range:       %s\n", withUnit(formatMeasure(rec.F0Range, precision), "Hz"))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "RHYTHM")
	fmt.Fprintf(w, "  Speech Rate:    %s (%s)\n", formatMetricWithUnit(rec.SpeechRate, precision, "words/s"), interpretSpeechRate(rec.SpeechRate))
	fmt.Fprintf(w, "  Pauses:         %d\n", a.Rhythm.PauseCount)
	fmt.Fprintf(w, "  Mean Pause:     %s\n", withUnit(formatMeasure(rec.PauseMean, precision), "s"))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "ENERGY")
	fmt.Fprintf(w, "  Mean RMS:       %s\n", withUnit(formatMeasure(rec.RMSMean, precision), "dB"))

	if rec.Jitter != nil && rec.Shimmer != nil {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "VOICE QUALITY")
		fmt.Fprintf(w, "  Jitter:         %s\n", withUnit(formatPercent(*rec.Jitter, 3), "%"))
		fmt.Fprintf(w, "  Shimmer:        %s\n", withUnit(formatPercent(*rec.Shimmer, 3), "%"))
	}

	if tips := GenerateDeliveryTips(a); len(tips) > 0 {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "NOTES")
		for _, tip := range tips {
			fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
		}
	}
}

// DisplayBatchSummary prints the closing line of a batch run
// and one line per failed file.
func DisplayBatchSummary(w io.Writer, results []prosody.Result, elapsed time.Duration) {
	failed := prosody.Failed(results)
	fmt.Fprintf(w, "Analysed %d file(s) in %s", len(results)-failed, formatDuration(elapsed))
	if failed > 0 {
		fmt.Fprintf(w, ", %d failed", failed)
	}
	fmt.Fprintln(w)

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "  ✗ %s\n", res.Err)
		}
	}
}

// writeAnalysisSection writes a section header for console output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

func withUnit(value, unit string) string {
	if value == MissingValue {
		return "undefined"
	}
	return value + " " + unit
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
