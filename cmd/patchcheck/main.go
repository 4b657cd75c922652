package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/sokinpui/patchcheck/cli"
	"github.com/sokinpui/patchcheck/internal/report"
	"github.com/sokinpui/patchcheck/internal/tui"
	"github.com/sokinpui/patchcheck/internal/ui"
	"github.com/sokinpui/patchcheck/patchcheck"
)

const (
	exitClean    = 0
	exitConflict = 1
	exitError    = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseFlags()
	if errors.Is(err, cli.ErrHelp) {
		return exitClean
	}
	if errors.Is(err, cli.ErrUsage) {
		// pflag already prints the error message.
		return exitError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	ui.SetColor(!cfg.NoColor)
	ui.SetQuiet(cfg.Quiet || cfg.JSON)
	ui.SetVerbose(cfg.Verbose)

	app, err := patchcheck.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Watch {
		if err := tui.Run(ctx, app, strings.Join(cfg.Patches, ", ")); err != nil {
			printError(err)
			return exitError
		}
		return exitClean
	}

	var bar *ui.ProgressBar
	app.SetProgressCallback(func(current, total int) {
		if total < 2 {
			return
		}
		if current == 0 {
			bar = ui.NewProgressBar(total, "Checking patches")
			bar.Start()
			return
		}
		bar.Increment()
		if current == total {
			bar.Finish()
		}
	})

	rep, err := app.Execute(ctx)
	if err != nil {
		printError(err)
		return exitError
	}

	switch {
	case cfg.OutputDiffFix:
		for _, missing := range rep.Missing {
			ui.Error("Patch does not exist: %s", missing)
		}
	case cfg.JSON:
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			printError(err)
			return exitError
		}
	default:
		report.Render(os.Stdout, rep)
	}

	if rep.Failed() {
		return exitConflict
	}
	return exitClean
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var detailed *patchcheck.DetailedError
	if errors.As(err, &detailed) {
		fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
	}
}
