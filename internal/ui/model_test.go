package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/prosody/internal/prosody"
)

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelLifecycle(t *testing.T) {
	m := NewModel([]string{"a.wav", "b.wav", "c.wav"}, 2)
	m = update(t, m,
		tea.WindowSizeMsg{Width: 80, Height: 24},
		FileStartMsg{FileIndex: 0, FileName: "a.wav"},
		FileStartMsg{FileIndex: 1, FileName: "b.wav"},
		StageMsg{FileIndex: 0, Stage: prosody.StagePauses},
	)

	if m.ActiveFiles != 2 {
		t.Errorf("active = %d, want 2", m.ActiveFiles)
	}
	if m.Files[0].Progress != prosody.StagePauses.Fraction() {
		t.Errorf("progress = %v", m.Files[0].Progress)
	}
	if view := m.View(); !strings.Contains(view, "pauses") || !strings.Contains(view, "Queued") {
		t.Errorf("processing view missing stage or queue:\n%s", view)
	}

	rec := &prosody.Record{F0Mean: prosody.Defined(200), RMSMean: prosody.Undefined()}
	m = update(t, m,
		FileCompleteMsg{FileIndex: 0, Record: rec, Elapsed: time.Second},
		FileCompleteMsg{FileIndex: 1, Error: errors.New("b.wav: not mono")},
		FileStartMsg{FileIndex: 2, FileName: "c.wav"},
		FileCompleteMsg{FileIndex: 2, Record: rec},
	)

	if m.CompletedFiles != 2 || m.FailedFiles != 1 || m.ActiveFiles != 0 {
		t.Errorf("completed %d failed %d active %d", m.CompletedFiles, m.FailedFiles, m.ActiveFiles)
	}
	if view := m.View(); !strings.Contains(view, "F0 200.00 Hz") || !strings.Contains(view, "RMS n/a") {
		t.Errorf("completed entry summary missing:\n%s", view)
	}

	next, cmd := m.Update(AllCompleteMsg{})
	m = next.(Model)
	if !m.Done || cmd == nil {
		t.Error("AllCompleteMsg should finish and quit")
	}
	if view := m.View(); !strings.Contains(view, "2 analysed, 1 failed") || !strings.Contains(view, "not mono") {
		t.Errorf("summary view:\n%s", view)
	}
}

func TestModelIgnoresUnknownIndex(t *testing.T) {
	m := NewModel([]string{"a.wav"}, 1)
	m = update(t, m, FileStartMsg{FileIndex: 5}, StageMsg{FileIndex: -1}, FileCompleteMsg{FileIndex: 3})
	if m.ActiveFiles != 0 || m.CompletedFiles != 0 {
		t.Errorf("out-of-range messages changed counters: %+v", m)
	}
}

func TestEventMsg(t *testing.T) {
	res := &prosody.Result{Index: 1, Filename: "b.wav", Err: errors.New("boom"), Elapsed: time.Second}

	tests := []struct {
		name  string
		event prosody.Event
		want  tea.Msg
	}{
		{"start", prosody.Event{Kind: prosody.EventFileStart, Index: 1, Filename: "b.wav"}, FileStartMsg{FileIndex: 1, FileName: "b.wav"}},
		{"stage", prosody.Event{Kind: prosody.EventFileStage, Index: 1, Stage: prosody.StagePitch}, StageMsg{FileIndex: 1, Stage: prosody.StagePitch}},
		{"done", prosody.Event{Kind: prosody.EventFileDone, Index: 1, Result: res}, FileCompleteMsg{FileIndex: 1, Elapsed: time.Second, Error: res.Err}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EventMsg(tt.event); got != tt.want {
				t.Errorf("EventMsg() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestListingCap(t *testing.T) {
	paths := make([]string, maxListedFiles+3)
	for i := range paths {
		paths[i] = string(rune('a'+i)) + ".wav"
	}
	m := update(t, NewModel(paths, 1), tea.WindowSizeMsg{Width: 80}, FileStartMsg{FileIndex: 4})

	view := m.View()
	if !strings.Contains(view, "e.wav") || strings.Contains(view, "a.wav") {
		t.Errorf("large batch should list only active files:\n%s", view)
	}
	if !strings.Contains(view, "14 more queued or complete") {
		t.Errorf("hidden count missing:\n%s", view)
	}
}

func TestAnalysisModel(t *testing.T) {
	var m tea.Model = NewAnalysisModel(false)
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 80},
		AnalysisStartMsg{FilePath: "/tmp/talk.wav"},
		AnalysisStageMsg{Stage: prosody.StageIntensity},
	} {
		m, _ = m.Update(msg)
	}

	view := m.View()
	if !strings.Contains(view, "talk.wav") || !strings.Contains(view, "✓ pitch") || !strings.Contains(view, "○ pauses") {
		t.Errorf("stage checklist wrong:\n%s", view)
	}
	if strings.Contains(view, "perturbation") {
		t.Errorf("perturbation listed while disabled:\n%s", view)
	}

	m, cmd := m.Update(AnalysisCompleteMsg{Error: errors.New("not mono")})
	am := m.(AnalysisModel)
	if !am.Done || cmd == nil {
		t.Fatalf("completion not handled: %+v", am)
	}
	if view := am.View(); !strings.Contains(view, "✗ intensity") || !strings.Contains(view, "✗ not mono") {
		t.Errorf("failure view:\n%s", view)
	}
}

func TestAnalysisModelComplete(t *testing.T) {
	var m tea.Model = NewAnalysisModel(true)
	rec := &prosody.Record{F0Mean: prosody.Defined(120), SpeechRate: 2.5}
	for _, msg := range []tea.Msg{
		tea.WindowSizeMsg{Width: 80},
		AnalysisStartMsg{FilePath: "talk.wav"},
		AnalysisStageMsg{Stage: prosody.StagePerturbation},
		AnalysisCompleteMsg{Record: rec},
	} {
		m, _ = m.Update(msg)
	}

	view := m.View()
	if !strings.Contains(view, "✓ perturbation") || !strings.Contains(view, "F0 120.00 Hz") {
		t.Errorf("completed view:\n%s", view)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{65 * time.Second, "01:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
