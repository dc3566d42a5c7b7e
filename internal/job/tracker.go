// Package job drives an import through upload and background processing and
// keeps a single progress.State describing where it is.
package job

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"importctl/internal/model"
	"importctl/internal/progress"
)

// PollInterval is the fixed delay between two status queries.
const PollInterval = time.Second

const (
	msgSucceeded    = "Import completed successfully"
	msgJobFailed    = "Import failed"
	msgUploadFailed = "Upload failed"
	msgUploadCancel = "Upload cancelled"
)

var allowedExtensions = []string{"zip", "json"}

// Transport performs the network side of an import.
type Transport interface {
	// Upload sends the file and reports (loaded, total) bytes; total may be 0 when unknown.
	Upload(ctx context.Context, path string, onProgress func(loaded, total int64)) error
	// CheckPending reports whether the backend has an active or queued job.
	CheckPending(ctx context.Context) (bool, error)
	// Poll returns the status of the current job.
	Poll(ctx context.Context) (model.PollResult, error)
}

// Notifier receives user-facing outcome messages. Calls are fire-and-forget.
type Notifier interface {
	NotifySuccess(message string)
	NotifyWarning(message string)
	NotifyError(message string)
}

// Tracker owns the import state machine: idle → uploading → awaiting-processing →
// polling → succeeded | failed. All state changes go through the tracker; readers
// get snapshots via State or an Observer.
type Tracker struct {
	transport Transport
	notifier  Notifier
	clock     Clock
	logger    *zap.Logger

	mu        sync.Mutex
	state     progress.State
	uploading bool
	gen       int // bumped by Reset so stale uploads are not applied
	session   *pollSession
	seq       uint64 // bumped under mu for every published snapshot

	// emitMu serializes observer delivery.
	emitMu    sync.Mutex
	delivered uint64 // seq of the last snapshot handed to observers
	observers []subscription
	nextSubID int
}

type subscription struct {
	id  int
	obs progress.Observer
}

// pollSession is one run of the polling loop.
type pollSession struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newPollSession() *pollSession {
	return &pollSession{stop: make(chan struct{}), done: make(chan struct{})}
}

func (s *pollSession) cancel() {
	s.once.Do(func() { close(s.stop) })
}

func (s *pollSession) stopped(ctx context.Context) bool {
	select {
	case <-s.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces the wall clock used to pace polling (useful for testing).
func WithClock(c Clock) Option {
	return func(t *Tracker) {
		t.clock = c
	}
}

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) {
		t.logger = l
	}
}

// WithObserver subscribes an observer at construction time.
func WithObserver(o progress.Observer) Option {
	return func(t *Tracker) {
		t.nextSubID++
		t.observers = append(t.observers, subscription{id: t.nextSubID, obs: o})
	}
}

// NewTracker constructs a Tracker in the Idle phase.
func NewTracker(transport Transport, notifier Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		transport: transport,
		notifier:  notifier,
		state:     progress.NewState(),
	}
	for _, o := range opts {
		o(t)
	}
	if t.notifier == nil {
		t.notifier = nopNotifier{}
	}
	if t.clock == nil {
		t.clock = realClock{}
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

// Subscribe registers an observer and returns a function that removes it.
// Observers may read State from Observe but must not call Submit, ResumePolling
// or Reset.
func (t *Tracker) Subscribe(o progress.Observer) (unsubscribe func()) {
	t.emitMu.Lock()
	t.nextSubID++
	id := t.nextSubID
	t.observers = append(t.observers, subscription{id: id, obs: o})
	t.emitMu.Unlock()

	return func() {
		t.emitMu.Lock()
		defer t.emitMu.Unlock()
		for i, s := range t.observers {
			if s.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// State returns a snapshot of the current progress state.
func (t *Tracker) State() progress.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Polling reports whether a polling loop is active.
func (t *Tracker) Polling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil
}

// Wait blocks until the active polling loop, if any, exits.
func (t *Tracker) Wait() {
	t.mu.Lock()
	sess := t.session
	t.mu.Unlock()
	if sess != nil {
		<-sess.done
	}
}

// CheckForPendingJob asks the backend whether a job is already running.
// Transport errors count as "nothing pending" so callers are never blocked.
func (t *Tracker) CheckForPendingJob(ctx context.Context) bool {
	pending, err := t.transport.CheckPending(ctx)
	if err != nil {
		t.logger.Warn("pending job check failed", zap.Error(err))
		pending = false
	}

	t.mu.Lock()
	if t.session != nil || t.uploading || t.state.HasResumableJob == pending {
		t.mu.Unlock()
		return pending
	}
	t.state.HasResumableJob = pending
	t.publishLocked()
	return pending
}

// Submit validates and uploads the file at path, then starts polling in the
// background. It returns once the upload has finished.
func (t *Tracker) Submit(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if err := validateExtension(name); err != nil {
		t.logger.Debug("rejected file", zap.String("file", name), zap.Error(err))
		t.notifier.NotifyWarning(err.Error())
		return err
	}

	t.mu.Lock()
	if t.uploading || t.session != nil {
		t.mu.Unlock()
		return ErrBusy
	}
	t.uploading = true
	gen := t.gen
	t.state.Phase = progress.PhaseUploading
	t.state.UploadPercent = 0
	t.state.UploadedBytes = 0
	t.state.UploadTotal = 0
	t.state.ElapsedSeconds = 0
	t.state.FailureReason = ""
	t.publishLocked()

	t.logger.Info("upload started", zap.String("file", name))
	err := t.transport.Upload(ctx, path, func(loaded, total int64) {
		t.uploadProgress(gen, loaded, total)
	})

	t.mu.Lock()
	t.uploading = false
	if gen != t.gen {
		t.mu.Unlock()
		t.logger.Debug("upload finished after reset; outcome dropped", zap.String("file", name))
		if err != nil {
			return &UploadError{Err: err}
		}
		return nil
	}
	if err != nil {
		reason := uploadReason(err)
		t.state.Phase = progress.PhaseFailed
		t.state.FailureReason = reason
		t.publishLocked()
		t.logger.Warn("upload failed", zap.String("file", name), zap.Error(err))
		t.notifier.NotifyError(msgUploadFailed + ": " + reason)
		return &UploadError{Err: err}
	}

	t.logger.Info("upload accepted", zap.String("file", name))
	t.state.HasResumableJob = true
	sess := t.startLocked()
	go t.poll(ctx, sess)
	return nil
}

// ResumePolling starts watching a job found by CheckForPendingJob. It returns
// false without side effects when nothing is resumable or a loop is already running.
func (t *Tracker) ResumePolling(ctx context.Context) bool {
	t.mu.Lock()
	if t.session != nil || t.uploading || !t.state.HasResumableJob {
		t.mu.Unlock()
		return false
	}
	sess := t.startLocked()
	go t.poll(ctx, sess)
	return true
}

// Cancel stops the polling loop at its next check point. The state keeps its
// last observed value; an in-flight result is discarded.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return
	}
	t.session.cancel()
	t.session = nil
	t.logger.Debug("polling cancelled")
}

// Reset stops any polling and returns the state to Idle.
func (t *Tracker) Reset() {
	t.mu.Lock()
	if t.session != nil {
		t.session.cancel()
		t.session = nil
	}
	t.gen++
	t.state = progress.NewState()
	t.publishLocked()
}

func (t *Tracker) uploadProgress(gen int, loaded, total int64) {
	if total <= 0 {
		return
	}
	pct := int(math.Round(float64(loaded) / float64(total) * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	t.mu.Lock()
	if gen != t.gen || t.state.Phase != progress.PhaseUploading || pct < t.state.UploadPercent {
		t.mu.Unlock()
		return
	}
	changed := pct != t.state.UploadPercent
	t.state.UploadPercent = pct
	t.state.UploadedBytes = min(loaded, total)
	t.state.UploadTotal = total
	if loaded >= total {
		// Everything is on the wire; the backend still has to acknowledge.
		t.state.Phase = progress.PhaseAwaitingProcessing
		changed = true
	}
	if !changed {
		t.mu.Unlock()
		return
	}
	t.publishLocked()
}

// startLocked switches to Polling with a fresh session. Must hold t.mu; releases it.
func (t *Tracker) startLocked() *pollSession {
	sess := newPollSession()
	t.session = sess
	t.state.Phase = progress.PhasePolling
	t.state.ElapsedSeconds = 0
	t.state.FailureReason = ""
	t.publishLocked()
	t.logger.Debug("polling started")
	return sess
}

func (t *Tracker) poll(ctx context.Context, sess *pollSession) {
	defer t.finish(sess)
	for {
		if sess.stopped(ctx) {
			return
		}
		res, err := t.transport.Poll(ctx)
		if sess.stopped(ctx) {
			t.logger.Debug("dropping status received after cancel")
			return
		}

		switch {
		case err != nil:
			t.logger.Debug("status query failed; retrying", zap.Error(err))
		case res.Status.Terminal():
			t.complete(sess, res)
			return
		case res.Status != model.StatusInProgress:
			t.logger.Warn("unknown job status; retrying", zap.Int("status", int(res.Status)))
		}
		if !t.tick(sess) {
			return
		}

		select {
		case <-t.clock.After(PollInterval):
		case <-sess.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick advances the elapsed counter for one poll interval.
func (t *Tracker) tick(sess *pollSession) bool {
	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		return false
	}
	t.state.ElapsedSeconds++
	t.publishLocked()
	return true
}

func (t *Tracker) complete(sess *pollSession, res model.PollResult) {
	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		return
	}
	t.state.HasResumableJob = false
	var msg string
	if res.Status == model.StatusSucceeded {
		t.state.Phase = progress.PhaseSucceeded
		t.state.FailureReason = ""
		msg = msgSucceeded
	} else {
		reason := strings.TrimSpace(res.Reason)
		if reason == "" {
			reason = msgJobFailed
		}
		t.state.Phase = progress.PhaseFailed
		t.state.FailureReason = reason
		msg = reason
	}
	elapsed := t.state.ElapsedSeconds
	t.publishLocked()

	t.logger.Info("import finished",
		zap.Stringer("status", res.Status),
		zap.Int("elapsed_seconds", elapsed),
		zap.String("reason", res.Reason))
	if res.Status == model.StatusSucceeded {
		t.notifier.NotifySuccess(msg)
	} else {
		t.notifier.NotifyError(msg)
	}
}

func (t *Tracker) finish(sess *pollSession) {
	t.mu.Lock()
	if t.session == sess {
		t.session = nil
	}
	t.mu.Unlock()
	close(sess.done)
}

// publishLocked releases t.mu and hands the snapshot to observers. Snapshots are
// stamped under t.mu; one that loses the race to a newer snapshot is dropped so
// observers never see state go backwards. t.mu is never held while waiting for emitMu.
func (t *Tracker) publishLocked() {
	t.seq++
	seq, snap := t.seq, t.state
	t.mu.Unlock()

	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	if seq <= t.delivered {
		return
	}
	t.delivered = seq
	for _, s := range t.observers {
		s.obs.Observe(snap)
	}
}

func validateExtension(name string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, a := range allowedExtensions {
		if ext == a {
			return nil
		}
	}
	return &ValidationError{Name: name, Ext: ext}
}

func allowedList() string {
	return strings.Join(allowedExtensions, ", ")
}

func uploadReason(err error) string {
	if errors.Is(err, context.Canceled) {
		return msgUploadCancel
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return msgUploadFailed
	}
	return msg
}

type nopNotifier struct{}

func (nopNotifier) NotifySuccess(string) {}
func (nopNotifier) NotifyWarning(string) {}
func (nopNotifier) NotifyError(string)   {}
