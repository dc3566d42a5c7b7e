package progress

// Phase identifies the lifecycle stage of an import as seen by the client.
// Exactly one phase applies at any instant.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseUploading          Phase = "uploading"
	PhaseAwaitingProcessing Phase = "awaiting-processing"
	PhasePolling            Phase = "processing"
	PhaseSucceeded          Phase = "succeeded"
	PhaseFailed             Phase = "failed"
)

// Terminal reports whether the phase ends the lifecycle.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// State is the single source of truth for anything rendering an import.
// Values are snapshots; the tracker owns the live copy.
type State struct {
	Phase Phase

	// UploadPercent is 0..100 and only meaningful while uploading.
	UploadPercent int
	// UploadedBytes and UploadTotal back UploadPercent; both stay 0 when the size is unknown.
	UploadedBytes int64
	UploadTotal   int64
	// ElapsedSeconds counts whole seconds since the current polling session began.
	ElapsedSeconds int
	// FailureReason is set only when Phase is PhaseFailed.
	FailureReason string
	// HasResumableJob is true while a backend job is known to exist and has not ended.
	HasResumableJob bool
}

// NewState returns the initial state for a fresh session.
func NewState() State {
	return State{Phase: PhaseIdle}
}

// Terminal reports whether the state is Succeeded or Failed.
func (s State) Terminal() bool {
	return s.Phase.Terminal()
}

// Observer is implemented by UI or any component interested in state changes.
type Observer interface {
	Observe(s State)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(s State)

func (f ObserverFunc) Observe(s State) { f(s) }
