package models

import (
	"encoding/json"
	"time"
)

type CommandType string

const (
	CmdRunAll  CommandType = "run_all"
	CmdRunStep CommandType = "run_step"
	CmdPause   CommandType = "pause"
	CmdResume  CommandType = "resume"
)

type Command struct {
	ID          int64           `json:"id" db:"id"`
	Command     CommandType     `json:"command" db:"command"`
	Params      json.RawMessage `json:"params" db:"params"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at" db:"processed_at"`
}

// CommandParams carries the step name and the filters a step accepts.
type CommandParams struct {
	Step      string   `json:"step,omitempty"`
	State     string   `json:"state,omitempty"`
	Area      string   `json:"area,omitempty"`
	Community string   `json:"community,omitempty"`
	Types     []string `json:"types,omitempty"`
	DryRun    bool     `json:"dry_run,omitempty"`
}
