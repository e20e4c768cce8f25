package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/export"
	"github.com/linuxmatters/prosody/internal/logging"
	"github.com/linuxmatters/prosody/internal/metrics"
	"github.com/linuxmatters/prosody/internal/prosody"
	"github.com/linuxmatters/prosody/internal/ui"
	"github.com/rs/zerolog"
)

// errAllFailed is returned when a batch ran but every file failed
var errAllFailed = errors.New("every file in the batch failed")

type app struct {
	args     *CLI
	cfg      *prosody.AnalysisConfig
	log      zerolog.Logger
	progress bool
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) out() io.Writer {
	if a.stdout != nil {
		return a.stdout
	}
	return os.Stdout
}

func (a *app) errOut() io.Writer {
	if a.stderr != nil {
		return a.stderr
	}
	return os.Stderr
}

// runSingle analyses one file and prints its record as JSON
func (a *app) runSingle(ctx context.Context) error {
	path := a.args.Path
	start := time.Now()

	var (
		analysis *prosody.Analysis
		meta     *audio.Metadata
		err      error
	)
	if a.progress {
		analysis, meta, err = a.analyzeWithProgress(ctx, path)
	} else {
		analysis, meta, err = prosody.AnalyzeFile(ctx, path, a.cfg, nil)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	a.log.Info().
		Str("file", filepath.Base(path)).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	rec := analysis.Record
	if err := export.WriteJSON(a.out(), &rec); err != nil {
		return err
	}
	if a.args.JSON != "" {
		if err := writeFile(a.args.JSON, func(w io.Writer) error { return export.WriteJSON(w, &rec) }); err != nil {
			return err
		}
	}

	if a.args.Summary {
		logging.DisplayAnalysis(a.errOut(), path, meta, analysis, a.cfg.Precision)
	}

	a.writeFileOutputs(path, analysis, meta, start, "")

	rec.Filename = filepath.Base(path)
	results := []prosody.Result{{Filename: rec.Filename, Path: path, Record: &rec, Elapsed: time.Since(start)}}
	return a.writeResults(results, start)
}

// analyzeWithProgress runs a single analysis behind the stage spinner
func (a *app) analyzeWithProgress(ctx context.Context, path string) (*prosody.Analysis, *audio.Metadata, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewAnalysisModel(a.cfg.EnablePerturbation), tea.WithOutput(os.Stderr), tea.WithContext(ctx))

	var (
		analysis *prosody.Analysis
		meta     *audio.Metadata
		err      error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Send(ui.AnalysisStartMsg{FilePath: path})
		analysis, meta, err = prosody.AnalyzeFile(ctx, path, a.cfg, func(stage prosody.Stage) {
			p.Send(ui.AnalysisStageMsg{Stage: stage})
		})
		msg := ui.AnalysisCompleteMsg{Error: err}
		if err == nil {
			msg.Record = &analysis.Record
		}
		p.Send(msg)
	}()

	if _, uiErr := p.Run(); uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		a.log.Warn().Err(uiErr).Msg("progress view failed")
	}
	// Quitting the view early abandons the analysis
	cancel()
	<-done
	return analysis, meta, err
}

// runBatch analyses every WAV file in a directory
func (a *app) runBatch(ctx context.Context) error {
	paths, err := prosody.ListAudioFiles(a.args.Path)
	if err != nil {
		return err
	}

	start := time.Now()
	m := metrics.New()
	runner := prosody.NewRunner(a.cfg, a.log, m)
	runner.OnAnalysis = func(res prosody.Result, analysis *prosody.Analysis, meta *audio.Metadata) error {
		prefix := strings.TrimSuffix(res.Filename, filepath.Ext(res.Filename))
		a.writeFileOutputs(res.Path, analysis, meta, time.Now().Add(-res.Elapsed), prefix)
		return nil
	}

	var results []prosody.Result
	if a.progress {
		results = a.runBatchWithProgress(ctx, runner, paths)
	} else {
		results = runner.Run(ctx, paths)
		logging.DisplayBatchSummary(a.errOut(), results, time.Since(start))
	}

	if err := a.writeResults(results, start); err != nil {
		return err
	}
	if a.args.JSON == "" && a.args.CSV == "" {
		if err := export.WriteJSON(a.out(), export.JSONResults(results)); err != nil {
			return err
		}
	}

	if a.args.MetricsFile != "" {
		if err := m.WriteTextfile(a.args.MetricsFile); err != nil {
			a.log.Warn().Err(err).Str("path", a.args.MetricsFile).Msg("failed to write metrics")
		}
	}

	if len(results) > 0 && prosody.Failed(results) == len(results) {
		return errAllFailed
	}
	return nil
}

func (a *app) runBatchWithProgress(ctx context.Context, runner *prosody.Runner, paths []string) []prosody.Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(paths, a.cfg.Workers), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	runner.OnEvent = func(e prosody.Event) {
		p.Send(ui.EventMsg(e))
	}

	var results []prosody.Result
	done := make(chan struct{})
	go func() {
		defer close(done)
		results = runner.Run(ctx, paths)
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.log.Warn().Err(err).Msg("progress view failed")
	}
	cancel()
	<-done
	return results
}

// writeFileOutputs writes the per-file report and plots. Failures are logged
// and never fail the analysis.
func (a *app) writeFileOutputs(path string, analysis *prosody.Analysis, meta *audio.Metadata, started time.Time, plotPrefix string) {
	log := a.log.With().Str("file", filepath.Base(path)).Logger()

	if a.args.Logs {
		reportPath, err := logging.GenerateReport(logging.ReportData{
			InputPath: path,
			StartTime: started,
			EndTime:   time.Now(),
			Analysis:  analysis,
			Metadata:  meta,
			Config:    a.cfg,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to write report")
		} else {
			log.Debug().Str("report", reportPath).Msg("report written")
		}
	}

	if a.args.PlotDir != "" {
		plots, err := export.WritePlots(a.args.PlotDir, analysis, export.PlotOptions{Prefix: plotPrefix})
		if err != nil {
			log.Warn().Err(err).Msg("failed to write plots")
		} else {
			log.Debug().Strs("plots", plots).Msg("plots written")
		}
	}
}

// writeResults writes the CSV, JSON file and SQLite sinks that were requested
func (a *app) writeResults(results []prosody.Result, started time.Time) error {
	if a.args.CSV != "" {
		if err := a.writeCSV(results); err != nil {
			return err
		}
	}

	if a.args.Batch && a.args.JSON != "" {
		if err := writeFile(a.args.JSON, func(w io.Writer) error {
			return export.WriteJSON(w, export.JSONResults(results))
		}); err != nil {
			return err
		}
	}

	if a.args.SQLite != "" {
		sink, err := export.OpenSQLite(a.args.SQLite)
		if err != nil {
			return err
		}
		defer sink.Close()

		batchID := started.UTC().Format("20060102T150405.000Z")
		if err := sink.Write(batchID, started, results); err != nil {
			return err
		}
		a.log.Debug().Str("batch", batchID).Int("rows", len(results)).Msg("records stored")
	}
	return nil
}

func (a *app) writeCSV(results []prosody.Result) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if a.args.Append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(a.args.CSV, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	opts := export.CSVOptions{}
	if a.args.Append {
		info, err := f.Stat()
		if err != nil {
			return err
		}
		opts.NoHeader = info.Size() > 0
	}

	if err := export.WriteCSV(f, results, opts); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return f.Close()
}

// writeFile creates path and hands it to write
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
