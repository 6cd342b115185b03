package scheduler

import (
	"context"
	"time"
)

// Job is a recurring in-process task.
type Job struct {
	ID       string
	Name     string
	Schedule string // cron spec, seconds field optional
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

// EventResult captures the outcome of one job run
type EventResult struct {
	EventID   string
	StartTime time.Time
	EndTime   time.Time
	Success   bool
	Error     error
}

// EventHistory tracks historical execution data for a job
type EventHistory struct {
	EventID      string    `json:"event_id"`
	LastRun      time.Time `json:"last_run"`
	LastStatus   string    `json:"last_status"` // "success", "failure", "timeout"
	LastError    string    `json:"last_error,omitempty"`
	LastDuration int64     `json:"last_duration_ms"`
	RunCount     int       `json:"run_count"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
}
