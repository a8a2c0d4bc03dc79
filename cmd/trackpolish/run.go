package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/trackpolish/internal/batch"
	"github.com/linuxmatters/trackpolish/internal/logging"
	"github.com/linuxmatters/trackpolish/internal/ui"
	"github.com/sirupsen/logrus"
)

// describeFunc turns a task result into the one-line TUI summary and
// reports whether the track was skipped.
type describeFunc[T any] func(T) (summary string, skipped bool)

// execute runs fn over tasks with the requested parallelism. With a
// terminal attached the Bubbletea UI shows progress; otherwise tasks are
// logged as they finish.
func execute[T any](s *session, title string, jobs int, tasks []batch.Task,
	fn func(context.Context, batch.Task) (T, error), describe describeFunc[T]) []batch.Outcome[T] {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := batch.Runner{Jobs: jobs}
	if !s.tui {
		return batch.Run(ctx, runner, tasks, fn)
	}

	names := make([]string, len(tasks))
	for i, t := range tasks {
		names[i] = t.Name
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(title, names)
	model.Cancel = cancel
	progress := model.ProgressChan
	runner.Observer = func(e batch.Event) {
		switch e.Kind {
		case batch.TaskStarted:
			progress <- ui.TaskStartMsg{Index: e.Task.Index}
		case batch.TaskFinished:
			msg := ui.TaskCompleteMsg{Index: e.Task.Index, Err: e.Err}
			if v, ok := e.Value.(T); ok && e.Err == nil {
				msg.Summary, msg.Skipped = describe(v)
			}
			progress <- msg
		}
	}

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	done := make(chan []batch.Outcome[T], 1)
	go func() {
		out := batch.Run(ctx, runner, tasks, fn)
		progress <- ui.AllCompleteMsg{}
		done <- out
	}()

	if _, err := p.Run(); err != nil {
		logrus.WithError(err).Warn("UI error")
		cancel()
	}
	// Tracks already started finish before results are printed.
	return <-done
}

// failures collects per-track errors for display and the run report.
func failures[T any](outcomes []batch.Outcome[T]) []logging.Failure {
	var fs []logging.Failure
	for _, o := range outcomes {
		if o.Err != nil {
			fs = append(fs, logging.Failure{Name: o.Task.Name, Err: o.Err})
		}
	}
	return fs
}

// printFailures lists failed tracks after the results table.
func printFailures(fs []logging.Failure) {
	if len(fs) == 0 {
		return
	}
	fmt.Printf("\n%d track(s) failed:\n", len(fs))
	for _, f := range fs {
		fmt.Printf("  %s: %v\n", f.Name, f.Err)
	}
}

// writeReport saves the run report when --logs is set.
func writeReport(s *session, dir string, data logging.ReportData) {
	if !s.Logs {
		return
	}
	path, err := logging.GenerateReport(dir, data)
	if err != nil {
		logrus.WithError(err).Warn("failed to write run report")
		return
	}
	fmt.Printf("\nReport: %s\n", path)
}

// fileTasks builds one task per file, writing to outDir under the same name.
func fileTasks(files []string, outDir string) []batch.Task {
	tasks := make([]batch.Task, len(files))
	for i, f := range files {
		name := filepath.Base(f)
		tasks[i] = batch.Task{Index: i, Name: name, Input: f}
		if outDir != "" {
			tasks[i].Output = filepath.Join(outDir, name)
		}
	}
	return tasks
}
