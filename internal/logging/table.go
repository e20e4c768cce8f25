// This file contains reusable table formatting for report sections:
// aligned label/value/unit columns with an optional interpretation.

package logging

import (
	"fmt"
	"math"
	"strings"

	"github.com/linuxmatters/prosody/internal/prosody"
)

// MetricRow represents a single row in a report table.
// Values are pre-formatted strings to allow for mixed formatting (decimals, scientific notation).
type MetricRow struct {
	Label          string   // Row label, e.g., "Mean F0"
	Values         []string // One value per column
	Unit           string   // Unit suffix, e.g., "Hz", "" for unitless
	Interpretation string   // Optional interpretation text (only shown if non-empty)
}

// MetricTable formats aligned columns of metrics.
// Handles variable column widths, missing values, and optional interpretation column.
type MetricTable struct {
	Headers []string    // Column headers, e.g., ["Value"]
	Rows    []MetricRow // Data rows
}

// String renders the table with aligned columns.
// - Labels are left-aligned
// - Values are right-aligned within their column
// - Units are appended after the last value column
// - Interpretation column only shown if any row has one
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	hasInterpretation := false
	labelWidth, unitWidth := 0, 0
	for _, row := range t.Rows {
		if row.Interpretation != "" {
			hasInterpretation = true
		}
		labelWidth = max(labelWidth, len(row.Label))
		unitWidth = max(unitWidth, len(row.Unit))
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	var sb strings.Builder
	writeLine := func(line *strings.Builder) {
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}

	// Header row
	var header strings.Builder
	header.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, h := range t.Headers {
		fmt.Fprintf(&header, "%*s  ", valueWidths[i], h)
	}
	if unitWidth > 0 {
		header.WriteString(strings.Repeat(" ", unitWidth+1))
	}
	if hasInterpretation {
		header.WriteString("Interpretation")
	}
	writeLine(&header)

	for _, row := range t.Rows {
		var line strings.Builder
		fmt.Fprintf(&line, "%-*s  ", labelWidth, row.Label)

		for i := range t.Headers {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			fmt.Fprintf(&line, "%*s  ", valueWidths[i], val)
		}

		if unitWidth > 0 {
			fmt.Fprintf(&line, "%-*s ", unitWidth, row.Unit)
		}
		if hasInterpretation {
			line.WriteString(row.Interpretation)
		}
		writeLine(&line)
	}

	return sb.String()
}

// =============================================================================
// Metric Formatting Helpers
// =============================================================================

// MissingValue is the placeholder for undefined measurements
const MissingValue = "-"

// formatMetric formats a numeric value with appropriate precision.
// Handles:
// - Regular floats: formatted to specified decimal places
// - Very small values (< 0.0001): scientific notation
// - NaN/Inf: returns MissingValue
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	if value != 0 && math.Abs(value) < 0.0001 {
		return fmt.Sprintf("%.2e", value)
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatMeasure formats a Measure, showing MissingValue when undefined
func formatMeasure(m prosody.Measure, decimals int) string {
	if !m.Valid {
		return MissingValue
	}
	return formatMetric(m.Value, decimals)
}

// formatPercent renders a ratio such as jitter as a percentage
func formatPercent(m prosody.Measure, decimals int) string {
	if !m.Valid {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, m.Value*100)
}

// formatMetricWithUnit combines value and unit for display.
// Returns "value unit" if unit is non-empty, otherwise just "value".
func formatMetricWithUnit(value float64, decimals int, unit string) string {
	formatted := formatMetric(value, decimals)
	if formatted == MissingValue || unit == "" {
		return formatted
	}
	return formatted + " " + unit
}

// =============================================================================
// Table Builder Helpers
// =============================================================================

// NewMetricTable creates a single-column table headed "Value".
func NewMetricTable() *MetricTable {
	return &MetricTable{
		Headers: []string{"Value"},
		Rows:    make([]MetricRow, 0),
	}
}

// AddRow adds a row to the table with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string, interpretation string) {
	t.Rows = append(t.Rows, MetricRow{
		Label:          label,
		Values:         values,
		Unit:           unit,
		Interpretation: interpretation,
	})
}

// AddMeasureRow adds a single-value row from a Measure; undefined values display as "-"
func (t *MetricTable) AddMeasureRow(label string, m prosody.Measure, decimals int, unit string, interpretation string) {
	t.AddRow(label, []string{formatMeasure(m, decimals)}, unit, interpretation)
}

// AddMetricRow adds a single-value row from a plain number.
// Pass math.NaN() for missing values.
func (t *MetricTable) AddMetricRow(label string, value float64, decimals int, unit string, interpretation string) {
	t.AddRow(label, []string{formatMetric(value, decimals)}, unit, interpretation)
}
