package confirm

import (
	"time"
)

// State of a command inside the confirmation gate.
type State int

const (
	Idle State = iota
	Listening
	PendingConfirmation
	Confirmed
	Cancelled
	Timeout
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case PendingConfirmation:
		return "pending_confirmation"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Command is a recognized utterance waiting behind the confirmation gate.
// Owned by the System from creation until its terminal transition.
type Command struct {
	ID                   string
	Text                 string
	Intent               string
	Params               map[string]any
	Confidence           float64
	CreatedAt            time.Time
	RequiresConfirmation bool
	Timeout              time.Duration
	Preview              string
}

// Request is what callers hand to Submit; the System fills in identity,
// timestamps and the confirmation policy from its options.
type Request struct {
	Text       string
	Intent     string
	Params     map[string]any
	Confidence float64
	Preview    string

	// Bypass skips the confirmation gate for this command regardless of
	// the configured policy.
	Bypass bool
}

// Callback executes a confirmed command.
type Callback func(intent string, params map[string]any) error

// Recognizer is the speech source the gate polls for submit/cancel
// keywords. The gate does not own its lifecycle.
type Recognizer interface {
	ListenOnce(timeout time.Duration) (string, error)
	Enabled() bool
}

// Speaker is a fire-and-forget voice output sink.
type Speaker interface {
	Speak(text string)
}

// Surface is the visual confirmation prompt. Events coming back from it
// (button clicks) arrive through System.Confirm and System.Cancel.
type Surface interface {
	ShowPrompt(cmd Command)
	NotifyTimeout(id string)
	Hide(id string)
}
