package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"importctl/internal/notify"
	"importctl/internal/progress"
	"importctl/internal/util/format"
)

// plainPrinter renders state changes as log-style lines for non-interactive output.
type plainPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	file        string
	lastPhase   progress.Phase
	lastPercent int
}

func (p *plainPrinter) Observe(s progress.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch s.Phase {
	case progress.PhaseUploading:
		if p.lastPhase != s.Phase {
			fmt.Fprintf(p.w, "Uploading %s\n", p.file)
			p.lastPercent = 0
		}
		// Print in 10% steps to keep logs readable.
		if s.UploadPercent/10 > p.lastPercent/10 {
			fmt.Fprintf(p.w, "  %3d%%  %s\n", s.UploadPercent, format.Transfer(s.UploadedBytes, s.UploadTotal))
			p.lastPercent = s.UploadPercent
		}
	case progress.PhaseAwaitingProcessing:
		if p.lastPhase != s.Phase {
			fmt.Fprintln(p.w, "Upload complete, waiting for the server to accept it")
		}
	case progress.PhasePolling:
		if p.lastPhase != s.Phase {
			fmt.Fprintln(p.w, "Processing on the server")
		} else if s.ElapsedSeconds > 0 && s.ElapsedSeconds%10 == 0 {
			fmt.Fprintf(p.w, "  still processing (%s elapsed)\n", elapsed(s.ElapsedSeconds))
		}
	}
	p.lastPhase = s.Phase
}

// RunPlain drives a session without a TUI, writing progress lines and
// notifications to w. It returns when the session reaches a terminal state,
// nothing is left to do, or ctx is cancelled.
func RunPlain(ctx context.Context, w io.Writer, cfg Config, a Action) Outcome {
	name, size := describeFile(a.Path)
	label := name
	if size != "" {
		label = fmt.Sprintf("%s (%s)", name, size)
	}
	console := notify.NewConsole(w)
	printer := &plainPrinter{w: w, file: label}
	var n notify.Notifier = console
	if cfg.Logger != nil {
		n = notify.Multi{console, notify.NewLog(cfg.Logger)}
	}
	tracker := newTracker(cfg, n, printer)

	out := Outcome{}
	out.Pending = tracker.CheckForPendingJob(ctx)

	switch decide(a, out.Pending) {
	case stepBlocked:
		console.NotifyWarning(msgBlocked)
		out.Blocked = true
		out.State = tracker.State()
		return out
	case stepNothing:
		fmt.Fprintln(w, msgNothing)
		out.NothingToResume = true
		out.State = tracker.State()
		return out
	case stepResume:
		fmt.Fprintln(w, "Found an import in progress, resuming")
		tracker.ResumePolling(ctx)
	case stepSubmit:
		if err := tracker.Submit(ctx, a.Path); err != nil {
			out.Err = err
			out.State = tracker.State()
			out.Interrupted = contextDone(ctx)
			return out
		}
	}

	tracker.Wait()
	out.State = tracker.State()
	if !out.State.Terminal() && contextDone(ctx) {
		tracker.Cancel()
		out.Interrupted = true
		fmt.Fprintln(w, msgStopped)
	}
	return out
}
