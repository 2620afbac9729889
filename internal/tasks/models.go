package tasks

import "time"

// Status represents the lifecycle of a render task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// BatchStatus represents the lifecycle of a batch run.
type BatchStatus string

const (
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
)

// MaxAttempts bounds how many times a failed task is retried before it
// is left in the failed state.
const MaxAttempts = 3

const (
	taskErrorLimit     = 1000
	progressErrorLimit = 500
)

// Identity is the five-field combination that uniquely identifies a
// render task.
type Identity struct {
	Model        string
	PrimaryColor string
	AccentColor  string
	LEDColor     string
	Width        int
}

// Task is one persisted render combination.
type Task struct {
	ID           int64
	Model        string
	PrimaryColor string
	AccentColor  string
	LEDColor     string
	Width        int
	Status       Status
	Attempts     int
	BatchID      string
	WorkerID     string
	OutputKey    string
	OutputBytes  int64
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Identity returns the task's dedup key.
func (t *Task) Identity() Identity {
	return Identity{
		Model:        t.Model,
		PrimaryColor: t.PrimaryColor,
		AccentColor:  t.AccentColor,
		LEDColor:     t.LEDColor,
		Width:        t.Width,
	}
}

// Batch records aggregate results of one orchestrator run.
type Batch struct {
	ID              string
	Status          BatchStatus
	TotalTasks      int
	CompletedTasks  int
	FailedTasks     int
	ImagesPerSecond float64
	DurationSeconds float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Progress tracks an interactive generation session step by step.
type Progress struct {
	ID          string
	SessionID   string
	Model       string
	StepName    string
	StepNumber  int
	Percent     int
	Completed   bool
	ErrorDetail string
	ResultURL   string
	UpdatedAt   time.Time
}

// Stats is a per-status task count summary.
type Stats struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
}

// Total returns the number of known tasks.
func (s Stats) Total() int {
	return s.Pending + s.Processing + s.Completed + s.Failed
}

// PercentComplete reports completed tasks against the total.
func (s Stats) PercentComplete() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(total) * 100
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
