package ui

// TaskStartMsg indicates a worker has picked up a task
type TaskStartMsg struct {
	Index int
}

// TaskCompleteMsg indicates a task has finished. Summary is a one-line
// result shown beneath the task, e.g. "-18.2 → -14.0 LUFS".
type TaskCompleteMsg struct {
	Index   int
	Summary string
	Skipped bool
	Err     error
}

// AllCompleteMsg indicates every task has been processed
type AllCompleteMsg struct{}

// tickMsg is sent for spinner/timer animation
type tickMsg struct{}
