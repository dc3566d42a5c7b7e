package model

import "time"

// JobStatus is the processing status reported by the backend for the current import job.
type JobStatus int

const (
	StatusInProgress JobStatus = 0
	StatusSucceeded  JobStatus = 1
	StatusFailed     JobStatus = 2
)

// Terminal reports whether no further transitions will happen for the job.
func (s JobStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

func (s JobStatus) String() string {
	switch s {
	case StatusInProgress:
		return "in-progress"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PollResult is a single answer to the "how is the job doing" query.
type PollResult struct {
	Status JobStatus `json:"status"`
	Reason string    `json:"reason,omitempty"` // backend-provided failure text; optional
}

// PendingResult is the answer to the "is anything running" query.
type PendingResult struct {
	HasActiveJob bool `json:"hasActiveJob"`
}

// UploadReceipt is returned by the backend once a file has been accepted.
type UploadReceipt struct {
	JobID string `json:"jobId"`
}

// CLIOptions holds user-configurable runtime options as parsed from flags, env and config.
type CLIOptions struct {
	Server  string        // Backend base URL, e.g. http://localhost:8080
	Token   string        // Optional bearer token
	Timeout time.Duration // Per-request timeout for status queries; uploads are never timed out
	Verbose bool
	NoUI    bool // Disable TUI when true
	Force   bool // Submit even when a job is already running
}
