package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StepStats counts what one pipeline step did. Items that fail are counted
// in Errors and never stop the step.
type StepStats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	// Unmatched holds names that could not be resolved, capped by the step.
	Unmatched []string `json:"unmatched,omitempty"`
}

func (s *StepStats) Add(o StepStats) {
	s.Processed += o.Processed
	s.Succeeded += o.Succeeded
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	s.Unmatched = append(s.Unmatched, o.Unmatched...)
}

type ScrapeRun struct {
	ID         int64      `json:"id" db:"id"`
	RunUUID    string     `json:"run_uuid" db:"run_uuid"`
	Step       string     `json:"step" db:"step"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at" db:"finished_at"`
	Status     RunStatus  `json:"status" db:"status"`
	Processed  int        `json:"processed" db:"processed"`
	Succeeded  int        `json:"succeeded" db:"succeeded"`
	Skipped    int        `json:"skipped" db:"skipped"`
	Errors     int        `json:"errors" db:"errors"`
	Message    string     `json:"message,omitempty" db:"message"`
}

func (r *ScrapeRun) Apply(s StepStats) {
	r.Processed = s.Processed
	r.Succeeded = s.Succeeded
	r.Skipped = s.Skipped
	r.Errors = s.Errors
}

func (r *ScrapeRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
