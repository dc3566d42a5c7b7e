package backend

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"importctl/internal/model"
)

// ErrJobActive is returned when a new upload arrives while a job is still running.
var ErrJobActive = errors.New("an import job is already running")

// ErrNoJob is returned when progress is requested before any job was created.
var ErrNoJob = errors.New("no import job")

// JobState is the backend-side lifecycle of a job.
type JobState string

const (
	JobQueued     JobState = "queued"
	JobProcessing JobState = "processing"
	JobSucceeded  JobState = "succeeded"
	JobFailed     JobState = "failed"
)

// Job is one uploaded file and its processing outcome.
type Job struct {
	ID        string
	FileName  string
	Size      int64
	State     JobState
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j Job) active() bool {
	return j.State == JobQueued || j.State == JobProcessing
}

// PollResult maps the job onto the client status contract.
func (j Job) PollResult() model.PollResult {
	switch j.State {
	case JobSucceeded:
		return model.PollResult{Status: model.StatusSucceeded}
	case JobFailed:
		return model.PollResult{Status: model.StatusFailed, Reason: j.Reason}
	default:
		return model.PollResult{Status: model.StatusInProgress}
	}
}

// Store holds the current job in memory and runs processing in the background.
type Store struct {
	mu      sync.Mutex
	current *Job
	delay   time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewStore creates a Store whose jobs take delay to process.
func NewStore(delay time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{delay: delay, logger: logger}
}

// Create registers a new job for data and starts processing it.
func (s *Store) Create(fileName string, data []byte) (Job, error) {
	s.mu.Lock()
	if s.current != nil && s.current.active() {
		s.mu.Unlock()
		return Job{}, ErrJobActive
	}
	now := time.Now().UTC()
	j := &Job{
		ID:        uuid.NewString(),
		FileName:  fileName,
		Size:      int64(len(data)),
		State:     JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.current = j
	out := *j
	s.mu.Unlock()

	s.logger.Info("job queued", zap.String("job_id", out.ID), zap.String("file", fileName), zap.Int("bytes", len(data)))
	s.wg.Add(1)
	go s.process(out.ID, fileName, data)
	return out, nil
}

// Current returns the latest job, if any.
func (s *Store) Current() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Job{}, false
	}
	return *s.current, true
}

// HasActive reports whether a job is queued or processing.
func (s *Store) HasActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.active()
}

// Wait blocks until all background processing has finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) process(id, fileName string, data []byte) {
	defer s.wg.Done()
	s.transition(id, JobProcessing, "")

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if err := validatePayload(fileName, data); err != nil {
		s.transition(id, JobFailed, err.Error())
		return
	}
	s.transition(id, JobSucceeded, "")
}

func (s *Store) transition(id string, state JobState, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != id {
		return
	}
	s.current.State = state
	s.current.Reason = reason
	s.current.UpdatedAt = time.Now().UTC()
	s.logger.Info("job state changed",
		zap.String("job_id", id),
		zap.String("state", string(state)),
		zap.String("reason", reason))
}

// validatePayload checks that the file parses as the format its name claims.
func validatePayload(fileName string, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty file")
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		if !json.Valid(data) {
			return errors.New("invalid JSON document")
		}
	case ".zip":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return errors.New("corrupt zip archive")
		}
		if len(zr.File) == 0 {
			return errors.New("zip archive contains no files")
		}
	default:
		return errors.New("unsupported file type")
	}
	return nil
}
