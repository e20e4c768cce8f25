package prosody

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/prosody/internal/audio"
	"github.com/linuxmatters/prosody/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

// writeBatchDir creates a directory of varied WAV files plus non-audio clutter
func writeBatchDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeWaveform(t, dir, "c_low.wav", synthesize(testSampleRate, tone(120, 0.6), silence(0.3), tone(130, 0.4)))
	writeWaveform(t, dir, "a_mid.wav", synthesize(testSampleRate, tone(200, 1.0)))
	writeWaveform(t, dir, "B_high.WAV", synthesize(testSampleRate, tone(300, 0.5), silence(0.5)))
	writeWaveform(t, dir, "d_silent.wav", synthesize(testSampleRate, silence(0.8)))

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.wav"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestListAudioFiles(t *testing.T) {
	dir := writeBatchDir(t)

	paths, err := ListAudioFiles(dir)
	if err != nil {
		t.Fatalf("ListAudioFiles failed: %v", err)
	}

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	want := []string{"B_high.WAV", "a_mid.wav", "c_low.wav", "d_silent.wav"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("files = %v, want %v", names, want)
	}

	if _, err := ListAudioFiles(t.TempDir()); !errors.Is(err, ErrNoAudioFiles) {
		t.Errorf("empty dir error = %v, want ErrNoAudioFiles", err)
	}
	if _, err := ListAudioFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRunnerWorkerIndependence(t *testing.T) {
	dir := writeBatchDir(t)
	paths, err := ListAudioFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	run := func(workers int) []Result {
		cfg := testConfig(t)
		cfg.Workers = workers
		cfg.EnablePerturbation = true
		return NewRunner(cfg, zerolog.Nop(), nil).Run(context.Background(), paths)
	}

	sequential := run(1)
	parallel := run(4)

	if len(sequential) != len(paths) || len(parallel) != len(paths) {
		t.Fatalf("got %d and %d results, want %d", len(sequential), len(parallel), len(paths))
	}
	for i := range paths {
		s, p := sequential[i], parallel[i]
		if s.Err != nil || p.Err != nil {
			t.Fatalf("file %d failed: %v / %v", i, s.Err, p.Err)
		}
		if s.Index != i || p.Index != i || s.Filename != filepath.Base(paths[i]) {
			t.Errorf("slot %d misordered: %d %d %s", i, s.Index, p.Index, s.Filename)
		}
		if !reflect.DeepEqual(s.Record, p.Record) {
			t.Errorf("%s differs between 1 and 4 workers:\n%+v\n%+v", s.Filename, s.Record, p.Record)
		}
		if s.Record.Filename != s.Filename {
			t.Errorf("record filename = %q, want %q", s.Record.Filename, s.Filename)
		}
	}
}

func TestRunnerFailedSlot(t *testing.T) {
	dir := writeBatchDir(t)
	if err := os.WriteFile(filepath.Join(dir, "b_broken.wav"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeStereo(t, dir, "e_stereo.wav")

	paths, err := ListAudioFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Workers = 3
	m := metrics.New()
	results := NewRunner(cfg, zerolog.Nop(), m).Run(context.Background(), paths)

	if Failed(results) != 2 {
		t.Fatalf("failed = %d, want 2", Failed(results))
	}
	for _, res := range results {
		switch res.Filename {
		case "b_broken.wav", "e_stereo.wav":
			if res.Err == nil || res.Record != nil {
				t.Errorf("%s: want error slot, got %+v", res.Filename, res)
			}
		default:
			if res.Err != nil || res.Record == nil {
				t.Errorf("%s: unexpected failure %v", res.Filename, res.Err)
			}
		}
	}
	stereo := results[len(results)-1]
	if !errors.Is(stereo.Err, audio.ErrNotMono) {
		t.Errorf("stereo error = %v, want ErrNotMono", stereo.Err)
	}

	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(metrics.StatusFailed)); got != 2 {
		t.Errorf("failed metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(metrics.StatusOK)); got != 4 {
		t.Errorf("ok metric = %v, want 4", got)
	}
	// Silent file has undefined f0
	if got := testutil.ToFloat64(m.UndefinedTotal.WithLabelValues("f0_mean")); got < 1 {
		t.Errorf("undefined f0_mean metric = %v, want >= 1", got)
	}
}

func TestRunnerCancelled(t *testing.T) {
	dir := writeBatchDir(t)
	paths, _ := ListAudioFiles(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewRunner(testConfig(t), zerolog.Nop(), nil).Run(ctx, paths)
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", res.Filename, res.Err)
		}
	}
}

func TestRunnerTimeout(t *testing.T) {
	dir := t.TempDir()
	path := writeWaveform(t, dir, "long.wav", synthesize(testSampleRate, tone(200, 5.0)))

	cfg := testConfig(t)
	cfg.FileTimeout = time.Nanosecond
	m := metrics.New()

	results := NewRunner(cfg, zerolog.Nop(), m).Run(context.Background(), []string{path})
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want deadline exceeded", results[0].Err)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(metrics.StatusTimeout)); got != 1 {
		t.Errorf("timeout metric = %v, want 1", got)
	}
}

func TestRunnerEvents(t *testing.T) {
	dir := writeBatchDir(t)
	paths, _ := ListAudioFiles(dir)

	cfg := testConfig(t)
	cfg.Workers = 2

	var mu sync.Mutex
	started := map[int]bool{}
	done := map[int]bool{}
	hooked := 0

	r := NewRunner(cfg, zerolog.Nop(), nil)
	r.OnEvent = func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Kind {
		case EventFileStart:
			started[e.Index] = true
		case EventFileDone:
			if !started[e.Index] {
				t.Errorf("file %d done before start", e.Index)
			}
			if e.Result == nil {
				t.Errorf("file %d done without result", e.Index)
			}
			done[e.Index] = true
		}
	}
	r.OnAnalysis = func(res Result, a *Analysis, meta *audio.Metadata) error {
		mu.Lock()
		defer mu.Unlock()
		if a == nil || meta == nil || a.Pitch == nil {
			t.Errorf("%s: hook without analysis", res.Filename)
		}
		hooked++
		return nil
	}

	r.Run(context.Background(), paths)

	if len(done) != len(paths) || hooked != len(paths) {
		t.Errorf("done %d, hooked %d, want %d", len(done), hooked, len(paths))
	}
}

// writeStereo writes a short two-channel file
func writeStereo(t *testing.T, dir, name string) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testSampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: testSampleRate},
		Data:           make([]int, 2*testSampleRate/10),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}
