package batch

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Task is one unit of per-track work.
type Task struct {
	Index  int
	Name   string
	Input  string // file or stem folder
	Output string
}

// Outcome pairs a task with its result or error.
type Outcome[T any] struct {
	Task    Task
	Value   T
	Err     error
	Elapsed time.Duration
}

// EventKind distinguishes task lifecycle events.
type EventKind int

const (
	TaskStarted EventKind = iota
	TaskFinished
)

// Event reports task progress to an observer such as the TUI.
type Event struct {
	Kind    EventKind
	Task    Task
	Value   any
	Err     error
	Elapsed time.Duration
}

// Runner executes tasks. Jobs of 1 runs sequentially, 0 uses every CPU.
// Observer, when set, is called from worker goroutines and must be safe for
// concurrent use.
type Runner struct {
	Jobs     int
	Observer func(Event)
}

// Workers returns the effective worker count for n tasks.
func (r Runner) Workers(n int) int {
	w := r.Jobs
	if w <= 0 {
		w = runtime.NumCPU()
	}
	return max(1, min(w, n))
}

func (r Runner) emit(e Event) {
	if r.Observer != nil {
		r.Observer(e)
	}
}

// Run applies fn to every task and returns outcomes in task order. A failing
// task never stops the others; tasks not yet started when ctx is cancelled
// report ctx.Err().
func Run[T any](ctx context.Context, r Runner, tasks []Task, fn func(context.Context, Task) (T, error)) []Outcome[T] {
	out := make([]Outcome[T], len(tasks))
	workers := r.Workers(len(tasks))
	if workers > 1 {
		logrus.WithField("workers", workers).Info("using parallel workers")
	}

	run := func(i int) {
		task := tasks[i]
		out[i].Task = task
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			r.emit(Event{Kind: TaskFinished, Task: task, Err: err})
			return
		}
		r.emit(Event{Kind: TaskStarted, Task: task})
		start := time.Now()
		v, err := fn(ctx, task)
		out[i].Value, out[i].Err, out[i].Elapsed = v, err, time.Since(start)
		if err != nil {
			logrus.WithFields(logrus.Fields{"task": task.Name, "error": err}).Warn("task failed")
		}
		r.emit(Event{Kind: TaskFinished, Task: task, Value: v, Err: err, Elapsed: out[i].Elapsed})
	}

	if workers == 1 {
		for i := range tasks {
			run(i)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range tasks {
		i := i
		g.Go(func() error {
			run(i)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Values returns the successful results in task order.
func Values[T any](outcomes []Outcome[T]) []T {
	var vs []T
	for _, o := range outcomes {
		if o.Err == nil {
			vs = append(vs, o.Value)
		}
	}
	return vs
}

// Failed counts outcomes with an error.
func Failed[T any](outcomes []Outcome[T]) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
