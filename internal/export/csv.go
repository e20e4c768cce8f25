// Package export writes prosody records to tabular, structured, SQLite and
// plot outputs.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/linuxmatters/prosody/internal/prosody"
)

// CSVHeader is the fixed column order. Jitter and shimmer are always present
// and left empty when perturbation analysis is disabled.
var CSVHeader = []string{
	"filename", "f0_mean", "f0_range", "duration", "speech_rate",
	"pause_mean", "rms_mean", "jitter", "shimmer", "error",
}

// CSVOptions controls CSV output
type CSVOptions struct {
	NoHeader bool // omit the header row, for appending to an existing file
}

// WriteCSV writes one row per result in order.
// Undefined values are empty cells; failed files fill only filename and error.
func WriteCSV(w io.Writer, results []prosody.Result, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	if !opts.NoHeader {
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
	}

	for _, res := range results {
		if err := cw.Write(csvRow(res)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(res prosody.Result) []string {
	row := make([]string, len(CSVHeader))
	row[0] = res.Filename

	if res.Err != nil || res.Record == nil {
		if res.Err != nil {
			row[len(row)-1] = res.Err.Error()
		}
		return row
	}

	rec := res.Record
	row[1] = formatMeasure(rec.F0Mean)
	row[2] = formatMeasure(rec.F0Range)
	row[3] = formatFloat(rec.Duration)
	row[4] = formatFloat(rec.SpeechRate)
	row[5] = formatMeasure(rec.PauseMean)
	row[6] = formatMeasure(rec.RMSMean)
	if rec.Jitter != nil {
		row[7] = formatMeasure(*rec.Jitter)
	}
	if rec.Shimmer != nil {
		row[8] = formatMeasure(*rec.Shimmer)
	}
	return row
}

// formatFloat uses the shortest representation so rounded values stay rounded
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMeasure(m prosody.Measure) string {
	if !m.Valid {
		return ""
	}
	return formatFloat(m.Value)
}
