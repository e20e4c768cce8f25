// Package logging sets up structured logging and renders per-file prosody
// analysis reports.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger
type Options struct {
	Level     string    // zerolog level name, default info
	DebugFile string    // optional rotating JSON log capturing debug and above
	Console   io.Writer // default os.Stderr
}

// Debug log rotation limits
const (
	debugMaxSizeMB  = 20
	debugMaxBackups = 3
	debugMaxAgeDays = 14
)

// levelFilter drops events below min before they reach the wrapped writer
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// New builds a logger writing human-readable output to the console and,
// when DebugFile is set, JSON lines to a size-rotated file.
// The returned closer flushes and closes the debug file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Nop(), nopCloser{}, err
		}
		level = parsed
	}

	out := opts.Console
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(out),
	}

	zerolog.TimeFieldFormat = time.RFC3339

	if opts.DebugFile == "" {
		logger := zerolog.New(console).Level(level).With().Timestamp().Logger()
		return logger, nopCloser{}, nil
	}

	file := &lumberjack.Logger{
		Filename:   opts.DebugFile,
		MaxSize:    debugMaxSizeMB,
		MaxBackups: debugMaxBackups,
		MaxAge:     debugMaxAgeDays,
	}

	fileLevel := min(level, zerolog.DebugLevel)
	writer := zerolog.MultiLevelWriter(
		levelFilter{w: console, min: level},
		levelFilter{w: file, min: fileLevel},
	)
	logger := zerolog.New(writer).Level(fileLevel).With().Timestamp().Logger()
	return logger, file, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
