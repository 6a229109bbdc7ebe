package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"flowfmt/internal/driver"
	"flowfmt/internal/ui"
)

type runOutcome struct {
	results []driver.Result
	err     error
}

// runDriver formats the given paths, with an interactive progress view when
// the output is a terminal (or --progress forces one). Stdout and diff modes
// stay plain so their output is not interleaved with the UI.
func runDriver(cmd *cobra.Command, args []string, opt driver.Options, quiet bool) ([]driver.Result, error) {
	wantProgress, err := cmd.Flags().GetBool("progress")
	if err != nil {
		return nil, err
	}
	interactive := opt.Mode == driver.ModeWrite || opt.Mode == driver.ModeCheck
	if !wantProgress {
		wantProgress = interactive && !quiet && isTerminal(os.Stdout)
	}
	if !wantProgress || !interactive {
		return driver.FormatPaths(cmd.Context(), args, opt)
	}
	return runWithProgress(cmd, args, opt)
}

func runWithProgress(cmd *cobra.Command, args []string, opt driver.Options) ([]driver.Result, error) {
	files, err := driver.ListFiles(cmd.Context(), args, opt.Config.Files)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, driver.ErrNoFiles
	}

	events := make(chan ui.Event, len(files))
	outcomeCh := make(chan runOutcome, 1)

	runOpt := opt
	runOpt.OnResult = func(res driver.Result, done, total int) {
		events <- ui.Event{Path: res.Path, Status: resultStatus(res)}
	}

	go func() {
		results, runErr := driver.FormatPaths(cmd.Context(), files, runOpt)
		outcomeCh <- runOutcome{results: results, err: runErr}
		close(events)
	}()

	model := ui.NewProgressModel("flowfmt", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}

func resultStatus(res driver.Result) ui.Status {
	switch {
	case res.Err != nil:
		return ui.StatusError
	case res.FromCache:
		return ui.StatusCached
	case res.Changed:
		return ui.StatusFormatted
	}
	return ui.StatusUnchanged
}
