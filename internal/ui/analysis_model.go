package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// Spinner frames for indeterminate progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// pipelineStages are listed in the single-file view, in run order
var pipelineStages = []prosody.Stage{
	prosody.StageLoading,
	prosody.StagePitch,
	prosody.StageIntensity,
	prosody.StagePauses,
	prosody.StagePerturbation,
}

// AnalysisModel shows the stage checklist of a single-file analysis
type AnalysisModel struct {
	FilePath  string
	Stage     prosody.Stage
	Started   bool
	StartTime time.Time

	// Perturbation is listed only when enabled
	Perturbation bool

	Record *prosody.Record
	Error  error
	Done   bool

	spinnerIndex int
	Width        int
}

// AnalysisStartMsg signals analysis has started
type AnalysisStartMsg struct {
	FilePath string
}

// AnalysisStageMsg signals the pipeline has moved to a new stage
type AnalysisStageMsg struct {
	Stage prosody.Stage
}

// AnalysisCompleteMsg carries the record, or the error that stopped the analysis
type AnalysisCompleteMsg struct {
	Record *prosody.Record
	Error  error
}

// NewAnalysisModel creates the single-file view
func NewAnalysisModel(perturbation bool) AnalysisModel {
	return AnalysisModel{StartTime: time.Now(), Perturbation: perturbation}
}

func (m AnalysisModel) Init() tea.Cmd {
	return tickCmd()
}

func (m AnalysisModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		return m, tickCmd()

	case AnalysisStartMsg:
		m.FilePath = msg.FilePath
		m.Started = true
		m.StartTime = time.Now()

	case AnalysisStageMsg:
		m.Stage = msg.Stage

	case AnalysisCompleteMsg:
		m.Record = msg.Record
		m.Error = msg.Error
		m.Done = true
		if msg.Error == nil {
			m.Stage = prosody.StageComplete
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m AnalysisModel) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Prosody 🎵")
	b.WriteString(title)
	if m.Started {
		b.WriteString("  ")
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(filepath.Base(m.FilePath)))
		b.WriteString(" ")
		b.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render("[" + formatElapsed(time.Since(m.StartTime)) + "]"))
	}
	b.WriteString("\n\n")

	for _, stage := range pipelineStages {
		if stage == prosody.StagePerturbation && !m.Perturbation {
			continue
		}
		b.WriteString(m.renderStage(stage))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.Done && m.Error != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(errColor).Render("✗ " + m.Error.Error()))
		b.WriteString("\n")
	case m.Done:
		b.WriteString(lipgloss.NewStyle().Foreground(okColor).Render("✓ "))
		b.WriteString(recordSummary(m.Record))
		b.WriteString("\n")
	default:
		b.WriteString(renderProgressBar(m.Stage.Fraction(), 40))
		b.WriteString("\n")
	}
	return b.String()
}

// renderStage marks a stage done, running, failed or pending
func (m AnalysisModel) renderStage(stage prosody.Stage) string {
	var icon string
	switch {
	case !m.Started || stage > m.Stage:
		icon = lipgloss.NewStyle().Foreground(mutedColor).Render("○")
	case stage < m.Stage:
		icon = lipgloss.NewStyle().Foreground(okColor).Render("✓")
	case m.Done && m.Error != nil:
		icon = lipgloss.NewStyle().Foreground(errColor).Render("✗")
	default:
		icon = lipgloss.NewStyle().Foreground(busyColor).Render(spinnerFrames[m.spinnerIndex])
	}
	return fmt.Sprintf("  %s %s", icon, stage)
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
