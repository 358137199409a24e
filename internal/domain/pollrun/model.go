package pollrun

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run records one poll cycle for operators.
type Run struct {
	RunID        string
	Status       Status
	Regions      []string
	Watermark    *time.Time
	Found        int
	Processed    int
	Failed       int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
	TraceID      string
}
