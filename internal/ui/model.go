// Package ui provides the Bubbletea terminal user interface for prosody
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusAnalyzing
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath string
	Status    FileStatus

	// Stage tracking
	Stage     prosody.Stage
	Progress  float64 // 0.0 to 1.0
	StartTime time.Time
	Elapsed   time.Duration

	// Completion results
	Record *prosody.Record

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the batch progress view.
// Several files may be active at once when workers > 1.
type Model struct {
	// File queue
	Files          []FileProgress
	TotalFiles     int
	ActiveFiles    int
	CompletedFiles int
	FailedFiles    int
	Workers        int

	// Global state
	StartTime time.Time
	Done      bool

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string, workers int) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:      files,
		TotalFiles: len(inputFiles),
		Workers:    max(workers, 1),
		StartTime:  time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		for i := range m.Files {
			if m.Files[i].Status == StatusAnalyzing {
				m.Files[i].Elapsed = time.Since(m.Files[i].StartTime)
			}
		}
		return m, tickCmd()

	case FileStartMsg:
		if fp := m.file(msg.FileIndex); fp != nil {
			fp.Status = StatusAnalyzing
			fp.StartTime = time.Now()
			fp.Stage = prosody.StageLoading
			fp.Progress = 0
			m.ActiveFiles++
		}

	case StageMsg:
		if fp := m.file(msg.FileIndex); fp != nil && fp.Status == StatusAnalyzing {
			fp.Stage = msg.Stage
			fp.Progress = msg.Stage.Fraction()
		}

	case FileCompleteMsg:
		if fp := m.file(msg.FileIndex); fp != nil {
			if fp.Status == StatusAnalyzing {
				m.ActiveFiles--
			}
			fp.Elapsed = msg.Elapsed
			fp.Record = msg.Record
			fp.Error = msg.Error
			fp.Progress = 1

			if msg.Error != nil {
				fp.Status = StatusError
				m.FailedFiles++
			} else {
				fp.Status = StatusComplete
				m.CompletedFiles++
			}
		}

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// file returns the entry at index, or nil when out of range
func (m *Model) file(index int) *FileProgress {
	if index < 0 || index >= len(m.Files) {
		return nil
	}
	return &m.Files[index]
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
