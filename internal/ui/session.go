package ui

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"importctl/internal/job"
	"importctl/internal/progress"
	"importctl/internal/util/format"
)

// Action is what the user asked for on this visit.
type Action struct {
	Path  string // file to submit; empty means resume a pending job
	Force bool   // submit even if the backend reports a running job
}

// Config carries the collaborators a session needs.
type Config struct {
	Transport job.Transport
	Logger    *zap.Logger
	Clock     job.Clock
}

// Outcome summarizes a finished session for the caller.
type Outcome struct {
	State progress.State
	// Err is the error returned by Submit (validation, upload, busy).
	Err error
	// Pending reports what the mount-time check found.
	Pending bool
	// Blocked is set when a submit was refused because a job was already running.
	Blocked bool
	// NothingToResume is set when resume found no pending job.
	NothingToResume bool
	// Interrupted is set when the user stopped watching before a terminal state.
	Interrupted bool
}

type step int

const (
	stepSubmit step = iota
	stepResume
	stepBlocked
	stepNothing
)

// decide picks the next step after the mount-time pending check.
func decide(a Action, pending bool) step {
	if a.Path == "" {
		if pending {
			return stepResume
		}
		return stepNothing
	}
	if pending && !a.Force {
		return stepBlocked
	}
	return stepSubmit
}

func newTracker(cfg Config, n job.Notifier, o progress.Observer) *job.Tracker {
	opts := []job.Option{job.WithObserver(o)}
	if cfg.Logger != nil {
		opts = append(opts, job.WithLogger(cfg.Logger))
	}
	if cfg.Clock != nil {
		opts = append(opts, job.WithClock(cfg.Clock))
	}
	return job.NewTracker(cfg.Transport, n, opts...)
}

// describeFile returns the base name and human size of path (size empty if unknown).
func describeFile(path string) (string, string) {
	if path == "" {
		return "", ""
	}
	name := filepath.Base(path)
	st, err := os.Stat(path)
	if err != nil {
		return name, ""
	}
	return name, format.Bytes(st.Size())
}

const (
	msgBlocked = "An import is already running on the server. Run 'importctl resume' to watch it, or pass --force."
	msgNothing = "No import is running on the server."
	msgStopped = "Stopped watching. The import keeps running on the server; run 'importctl resume' to check on it."
)

// contextDone reports whether ctx has been cancelled.
func contextDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
