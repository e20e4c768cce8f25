package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// Larger batches only list active and failed files
const maxListedFiles = 12

var (
	accentColor = lipgloss.Color("#5F5FD7")
	okColor     = lipgloss.Color("#00AA00")
	busyColor   = lipgloss.Color("#FFA500")
	errColor    = lipgloss.Color("#A40000")
	mutedColor  = lipgloss.Color("#888888")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Prosody 🎵 - Speech Analysis")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Analysing %d file(s) with %d worker(s)", m.TotalFiles, m.Workers))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	listAll := len(m.Files) <= maxListedFiles
	hidden := 0
	for _, file := range m.Files {
		if !listAll && file.Status != StatusAnalyzing && file.Status != StatusError {
			hidden++
			continue
		}
		b.WriteString(renderFileEntry(file, m.spinnerIndex))
		b.WriteString("\n")
	}
	if hidden > 0 {
		muted := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
		b.WriteString(muted.Render(fmt.Sprintf(" … %d more queued or complete", hidden)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, spinnerIndex int) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, recordSummary(file.Record))

	case StatusAnalyzing:
		icon := lipgloss.NewStyle().Foreground(busyColor).Render(spinnerFrames[spinnerIndex%len(spinnerFrames)])
		return fmt.Sprintf(" %s %s\n   %s %s [%s]", icon, fileName,
			renderProgressBar(file.Progress, 30), file.Stage, formatElapsed(file.Elapsed))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(errColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// recordSummary condenses a record to one line
func recordSummary(rec *prosody.Record) string {
	if rec == nil {
		return ""
	}
	parts := []string{
		"F0 " + measureText(rec.F0Mean, "Hz"),
		fmt.Sprintf("Rate %.2f w/s", rec.SpeechRate),
		"Pause " + measureText(rec.PauseMean, "s"),
		"RMS " + measureText(rec.RMSMean, "dB"),
	}
	return strings.Join(parts, " | ")
}

func measureText(m prosody.Measure, unit string) string {
	if !m.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %s", m.Value, unit)
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = min(max(progress, 0), 1)
	filled := int(progress * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	percentage := int(progress * 100)

	return fmt.Sprintf("%s %3d%%", bar, percentage)
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	finished := m.CompletedFiles + m.FailedFiles
	fraction := 0.0
	if m.TotalFiles > 0 {
		fraction = float64(finished) / float64(m.TotalFiles)
	}

	content := fmt.Sprintf("%s\n%d of %d done, %d active, %d failed [%s]",
		renderProgressBar(fraction, 40), finished, m.TotalFiles, m.ActiveFiles, m.FailedFiles,
		formatElapsed(time.Since(m.StartTime)))

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	headerColor := okColor
	if m.FailedFiles > 0 {
		headerColor = busyColor
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(headerColor).
		Render("✨ Analysis Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		if file.Status == StatusError {
			b.WriteString(renderFileEntry(file, 0))
			b.WriteString("\n")
		}
	}

	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d analysed, %d failed in %s\n", m.CompletedFiles, m.FailedFiles, formatElapsed(time.Since(m.StartTime)))

	return b.String()
}
