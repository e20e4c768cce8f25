package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/prosody/internal/prosody"
)

// FileStartMsg indicates a worker has picked up a file
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// StageMsg reports the analysis stage a file has reached
type StageMsg struct {
	FileIndex int
	Stage     prosody.Stage
}

// FileCompleteMsg indicates a file has finished, successfully or not
type FileCompleteMsg struct {
	FileIndex int
	Record    *prosody.Record
	Elapsed   time.Duration
	Error     error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}

// EventMsg converts a batch runner event into the matching UI message
func EventMsg(e prosody.Event) tea.Msg {
	switch e.Kind {
	case prosody.EventFileStart:
		return FileStartMsg{FileIndex: e.Index, FileName: e.Filename}
	case prosody.EventFileStage:
		return StageMsg{FileIndex: e.Index, Stage: e.Stage}
	case prosody.EventFileDone:
		msg := FileCompleteMsg{FileIndex: e.Index}
		if e.Result != nil {
			msg.Record = e.Result.Record
			msg.Elapsed = e.Result.Elapsed
			msg.Error = e.Result.Err
		}
		return msg
	}
	return nil
}
