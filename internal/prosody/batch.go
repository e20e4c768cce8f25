package prosody

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoAudioFiles is returned when a batch directory holds no WAV files
var ErrNoAudioFiles = errors.New("no .wav files found")

// Result is one batch slot. Exactly one of Record and Err is set.
type Result struct {
	Index    int
	Filename string // base name
	Path     string
	Record   *Record
	Err      error
	Elapsed  time.Duration
}

// EventKind distinguishes batch progress events
type EventKind int

const (
	EventFileStart EventKind = iota
	EventFileStage
	EventFileDone
)

// Event reports batch progress. Result is set for EventFileDone.
type Event struct {
	Kind     EventKind
	Index    int
	Filename string
	Stage    Stage
	Result   *Result
}

// AnalysisHook receives the full analysis of each successful file before it
// is discarded. Hooks run on worker goroutines.
type AnalysisHook func(res Result, analysis *Analysis, meta *audio.Metadata) error

// Runner analyses many files with a bounded worker pool
type Runner struct {
	cfg     *AnalysisConfig
	log     zerolog.Logger
	metrics *metrics.Metrics

	// OnEvent, when set, is called from worker goroutines and must be safe for concurrent use
	OnEvent func(Event)
	// OnAnalysis, when set, is called for each successfully analysed file
	OnAnalysis AnalysisHook
}

// NewRunner creates a batch runner. cfg must already be validated.
func NewRunner(cfg *AnalysisConfig, log zerolog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{cfg: cfg, log: log, metrics: m}
}

// ListAudioFiles returns the .wav files (case-insensitive) directly inside dir,
// sorted lexicographically
func ListAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAudioFiles, dir)
	}
	return paths, nil
}

// Run analyses every path and returns results in input order.
// A failing file fills its own slot and never aborts the batch.
func (r *Runner) Run(ctx context.Context, paths []string) []Result {
	start := time.Now()
	results := make([]Result, len(paths))

	var g errgroup.Group
	g.SetLimit(max(r.cfg.Workers, 1))

	for i, path := range paths {
		g.Go(func() error {
			results[i] = r.runOne(ctx, i, path)
			return nil
		})
	}
	_ = g.Wait()

	r.metrics.BatchFinished(time.Since(start))

	r.log.Info().
		Int("files", len(results)).
		Int("failed", Failed(results)).
		Dur("elapsed", time.Since(start)).
		Msg("batch complete")

	return results
}

func (r *Runner) runOne(ctx context.Context, index int, path string) Result {
	res := Result{Index: index, Filename: filepath.Base(path), Path: path}
	log := r.log.With().Str("file", res.Filename).Logger()

	r.emit(Event{Kind: EventFileStart, Index: index, Filename: res.Filename})
	r.metrics.FileStarted()
	log.Debug().Msg("analysis started")

	fileCtx := ctx
	if r.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, r.cfg.FileTimeout)
		defer cancel()
	}

	started := time.Now()
	analysis, meta, err := AnalyzeFile(fileCtx, path, r.cfg, func(stage Stage) {
		r.emit(Event{Kind: EventFileStage, Index: index, Filename: res.Filename, Stage: stage})
	})
	res.Elapsed = time.Since(started)

	status := metrics.StatusOK
	switch {
	case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		status = metrics.StatusTimeout
		res.Err = fmt.Errorf("%s: timed out after %v: %w", res.Filename, r.cfg.FileTimeout, err)
	case err != nil:
		status = metrics.StatusFailed
		res.Err = fmt.Errorf("%s: %w", res.Filename, err)
	default:
		rec := analysis.Record
		rec.Filename = res.Filename
		analysis.Record = rec
		res.Record = &rec
	}

	audioSecs := 0.0
	if meta != nil {
		audioSecs = meta.Duration
	}
	r.metrics.FileFinished(status, res.Elapsed, audioSecs)

	if res.Err != nil {
		log.Warn().Err(res.Err).Dur("elapsed", res.Elapsed).Msg("analysis failed")
	} else {
		r.countUndefined(res.Record)
		log.Info().
			Dur("elapsed", res.Elapsed).
			Float64("duration", res.Record.Duration).
			Msg("analysis complete")

		if r.OnAnalysis != nil {
			if err := r.OnAnalysis(res, analysis, meta); err != nil {
				log.Warn().Err(err).Msg("output hook failed")
			}
		}
	}

	r.emit(Event{Kind: EventFileDone, Index: index, Filename: res.Filename, Stage: StageComplete, Result: &res})
	return res
}

func (r *Runner) emit(e Event) {
	if r.OnEvent != nil {
		r.OnEvent(e)
	}
}

func (r *Runner) countUndefined(rec *Record) {
	fields := []struct {
		name string
		m    *Measure
	}{
		{"f0_mean", &rec.F0Mean},
		{"f0_range", &rec.F0Range},
		{"pause_mean", &rec.PauseMean},
		{"rms_mean", &rec.RMSMean},
		{"jitter", rec.Jitter},
		{"shimmer", rec.Shimmer},
	}
	for _, f := range fields {
		if f.m != nil && !f.m.Valid {
			r.metrics.Undefined(f.name)
		}
	}
}

// Failed counts results with an error
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
