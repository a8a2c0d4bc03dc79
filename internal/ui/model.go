// Package ui provides the Bubbletea terminal user interface for batch runs
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// TaskStatus represents the processing state of a single track
type TaskStatus int

const (
	StatusQueued TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusSkipped
	StatusError
)

// TaskProgress tracks progress for a single track
type TaskProgress struct {
	Name      string
	Status    TaskStatus
	StartTime time.Time
	Elapsed   time.Duration
	Summary   string
	Error     error
}

// Model is the Bubbletea model for a batch run. Several tasks may be
// running at once.
type Model struct {
	Title string // e.g. "Mastering to -14 LUFS"
	Tasks []TaskProgress

	CompletedTasks int
	FailedTasks    int

	// Global state
	StartTime time.Time
	Done      bool
	Cancelled bool

	// ProgressChan receives task messages from the workers
	ProgressChan chan tea.Msg
	// Cancel stops the batch when the user quits early
	Cancel func()

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with one entry per task name
func NewModel(title string, names []string) Model {
	tasks := make([]TaskProgress, len(names))
	for i, name := range names {
		tasks[i] = TaskProgress{Name: name, Status: StatusQueued}
	}

	return Model{
		Title:        title,
		Tasks:        tasks,
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 2*len(names)+1),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForProgress(m.ProgressChan), tickCmd())
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			logrus.Debug("ui: cancel requested")
			m.Cancelled = true
			if m.Cancel != nil {
				m.Cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		for i := range m.Tasks {
			if m.Tasks[i].Status == StatusRunning {
				m.Tasks[i].Elapsed = time.Since(m.Tasks[i].StartTime)
			}
		}
		return m, tickCmd()

	case TaskStartMsg:
		if t := m.task(msg.Index); t != nil {
			t.Status = StatusRunning
			t.StartTime = time.Now()
		}
		return m, waitForProgress(m.ProgressChan)

	case TaskCompleteMsg:
		if t := m.task(msg.Index); t != nil {
			t.Elapsed = time.Since(t.StartTime)
			t.Summary = msg.Summary
			t.Error = msg.Err
			switch {
			case msg.Err != nil:
				t.Status = StatusError
				m.FailedTasks++
			case msg.Skipped:
				t.Status = StatusSkipped
				m.CompletedTasks++
			default:
				t.Status = StatusComplete
				m.CompletedTasks++
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) task(i int) *TaskProgress {
	if i < 0 || i >= len(m.Tasks) {
		logrus.WithField("index", i).Debug("ui: message for unknown task")
		return nil
	}
	return &m.Tasks[i]
}

// Running counts tasks currently being processed
func (m Model) Running() int {
	n := 0
	for _, t := range m.Tasks {
		if t.Status == StatusRunning {
			n++
		}
	}
	return n
}

// Progress is the fraction of tasks finished, 0.0 to 1.0
func (m Model) Progress() float64 {
	if len(m.Tasks) == 0 {
		return 1
	}
	return float64(m.CompletedTasks+m.FailedTasks) / float64(len(m.Tasks))
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing..."
	}
	if m.Done {
		return renderCompletionSummary(m)
	}
	return renderProcessingView(m)
}

// waitForProgress creates a command that waits for progress messages
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
