package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/linuxmatters/prosody/internal/cli"
	"github.com/linuxmatters/prosody/internal/logging"
	"github.com/mattn/go-isatty"
)

var (
	version = "0.0.1"
)

// Exit codes
const (
	exitOK        = 0
	exitError     = 1 // configuration or single-file input error
	exitAllFailed = 2 // batch ran but no file could be analysed
)

func main() {
	os.Exit(run())
}

func run() int {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("prosody"),
		kong.Description("Prosodic feature extraction for speech recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(os.Stdout, version)
		return exitOK
	}

	// Validate input
	if cliArgs.Path == "" {
		cli.PrintError("No input path specified")
		_ = kctx.PrintUsage(false)
		return exitError
	}

	// Configuration errors stop the run before any file is opened
	cfg, err := cliArgs.AnalysisConfig()
	if err != nil {
		cli.PrintErrors(os.Stderr, err)
		return exitError
	}

	// The progress view owns the terminal, so console logs are muted while it runs
	progress := !cliArgs.NoProgress && isatty.IsTerminal(os.Stderr.Fd())
	var console io.Writer = os.Stderr
	if progress {
		console = io.Discard
	}

	log, closer, err := logging.New(logging.Options{
		Level:     cliArgs.LogLevel,
		DebugFile: cliArgs.DebugLog,
		Console:   console,
	})
	if err != nil {
		cli.PrintError(err.Error())
		return exitError
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{args: cliArgs, cfg: cfg, log: log, progress: progress}

	if cliArgs.Batch {
		err = app.runBatch(ctx)
	} else {
		err = app.runSingle(ctx)
	}

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errAllFailed):
		return exitAllFailed
	default:
		cli.PrintErrors(os.Stderr, err)
		return exitError
	}
}
