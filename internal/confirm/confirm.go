package confirm

import (
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Options come from the voice confirmation section of the config file.
type Options struct {
	ConfirmationRequired bool
	Timeout              time.Duration
	SubmitKeywords       []string
	CancelKeywords       []string
	VoiceConfirmation    bool
	VisualConfirmation   bool
	ConfirmationPrompt   string
	TimeoutPrompt        string

	// MaxReprompts caps how many timeout re-prompt windows a command may
	// go through before it is cancelled. 0 keeps re-prompting forever.
	MaxReprompts int
}

func (o *Options) fillDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if len(o.SubmitKeywords) == 0 {
		o.SubmitKeywords = []string{"submit", "execute", "confirm", "yes", "do it"}
	}
	if len(o.CancelKeywords) == 0 {
		o.CancelKeywords = []string{"cancel", "stop", "no", "abort", "nevermind"}
	}
	if o.ConfirmationPrompt == "" {
		o.ConfirmationPrompt = "Say 'submit' to execute or 'cancel' to abort"
	}
	if o.TimeoutPrompt == "" {
		o.TimeoutPrompt = "Command timeout. Say 'submit' or 'cancel'?"
	}
}

type pendingCommand struct {
	cmd       Command
	cb        Callback
	state     State
	stop      chan struct{}
	reprompts int
}

// System gates execution of recognized commands behind an explicit
// confirm/cancel step reachable by spoken keyword or surface event.
// Commands are independent: each gets its own listener and countdown.
type System struct {
	opts    Options
	speech  Recognizer
	voice   Speaker
	surface Surface

	mu      sync.Mutex
	pending map[string]*pendingCommand

	// shortened by tests
	listenPoll time.Duration
}

func New(opts Options, speech Recognizer, voice Speaker, surface Surface) *System {
	opts.fillDefaults()
	return &System{
		opts:       opts,
		speech:     speech,
		voice:      voice,
		surface:    surface,
		pending:    make(map[string]*pendingCommand),
		listenPoll: 2 * time.Second,
	}
}

// Submit registers a recognized command and returns its id. Commands that
// do not require confirmation execute their callback right here, exactly
// once, before Submit returns.
func (s *System) Submit(req Request, cb Callback) string {
	cmd := Command{
		ID:                   uuid.NewString(),
		Text:                 req.Text,
		Intent:               req.Intent,
		Params:               req.Params,
		Confidence:           req.Confidence,
		CreatedAt:            time.Now(),
		RequiresConfirmation: s.opts.ConfirmationRequired && !req.Bypass,
		Timeout:              s.opts.Timeout,
		Preview:              req.Preview,
	}
	if cmd.Preview == "" {
		cmd.Preview = "Execute: " + cmd.Intent
	}

	if !cmd.RequiresConfirmation {
		s.execute(cmd, cb)
		return cmd.ID
	}

	p := &pendingCommand{
		cmd:   cmd,
		cb:    cb,
		state: PendingConfirmation,
		stop:  make(chan struct{}),
	}

	s.mu.Lock()
	s.pending[cmd.ID] = p
	s.mu.Unlock()

	log.Info("Awaiting confirmation", "id", cmd.ID, "text", cmd.Text, "intent", cmd.Intent)

	if s.opts.VisualConfirmation && s.surface != nil {
		s.surface.ShowPrompt(cmd)
	}
	if s.voice != nil {
		s.voice.Speak(s.opts.ConfirmationPrompt)
	}
	if s.opts.VoiceConfirmation && s.speech != nil && s.speech.Enabled() {
		go s.listenLoop(cmd.ID, p.stop)
	}
	go s.countdown(cmd.ID, p.stop, cmd.Timeout)

	return cmd.ID
}

// Confirm resolves a pending command as confirmed and runs its callback.
// The surface button and the IPC channel land here. Returns false when
// the command is unknown or already resolved.
func (s *System) Confirm(id string) bool {
	return s.finish(id, Confirmed)
}

// Cancel resolves a pending command as cancelled.
func (s *System) Cancel(id string) bool {
	return s.finish(id, Cancelled)
}

// CancelAll cancels every pending command.
func (s *System) CancelAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.Cancel(id)
	}
}

// Pending lists commands still waiting for a decision.
func (s *System) Pending() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Command, 0, len(s.pending))
	for _, p := range s.pending {
		if p.state == PendingConfirmation {
			out = append(out, p.cmd)
		}
	}
	return out
}

// Waiting reports whether any command awaits confirmation.
func (s *System) Waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pending {
		if p.state == PendingConfirmation {
			return true
		}
	}
	return false
}

// listenLoop polls the speech source for submit/cancel keywords until the
// command resolves. Recognition failures are transient: log and keep going.
func (s *System) listenLoop(id string, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		text, err := s.speech.ListenOnce(s.listenPoll)
		if err != nil {
			log.Debug("Confirmation listening error", "id", id, "err", err)
			select {
			case <-stop:
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if text == "" {
			continue
		}

		lower := strings.ToLower(text)
		switch {
		case containsAny(lower, s.opts.SubmitKeywords):
			log.Info("Voice confirmation received", "id", id)
			if s.voice != nil {
				s.voice.Speak("Command confirmed, executing now")
			}
			s.Confirm(id)
			return
		case containsAny(lower, s.opts.CancelKeywords):
			log.Info("Voice cancellation received", "id", id)
			if s.voice != nil {
				s.voice.Speak("Command cancelled")
			}
			s.Cancel(id)
			return
		}
	}
}

// countdown owns the timeout path: when a window elapses with no decision
// the command is re-prompted and a fresh window of the same length starts.
func (s *System) countdown(id string, stop <-chan struct{}, window time.Duration) {
	t := time.NewTimer(window)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if !s.reprompt(id) {
				return
			}
			t.Reset(window)
		}
	}
}

// reprompt handles one elapsed confirmation window. Returns false once the
// command is gone or hit its re-prompt cap.
func (s *System) reprompt(id string) bool {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok || p.state != PendingConfirmation {
		s.mu.Unlock()
		return false
	}
	p.state = Timeout
	p.reprompts++
	capped := s.opts.MaxReprompts > 0 && p.reprompts > s.opts.MaxReprompts
	// back into an active waiting window; a capped command goes through
	// the regular cancel path below
	p.state = PendingConfirmation
	s.mu.Unlock()

	if capped {
		log.Warn("Confirmation re-prompt cap reached, cancelling", "id", id)
		s.Cancel(id)
		return false
	}

	log.Info("Confirmation timeout, re-prompting", "id", id)

	if s.voice != nil {
		s.voice.Speak(s.opts.TimeoutPrompt)
	}
	if s.opts.VisualConfirmation && s.surface != nil {
		s.surface.NotifyTimeout(id)
	}
	return true
}

// finish applies a terminal transition. First applied wins: a losing
// concurrent confirm/cancel/timeout is a no-op. Removal from the pending
// map is the very last step.
func (s *System) finish(id string, to State) bool {
	s.mu.Lock()
	p, ok := s.pending[id]
	if !ok || p.state != PendingConfirmation {
		s.mu.Unlock()
		return false
	}
	p.state = to
	close(p.stop)
	cmd, cb := p.cmd, p.cb
	s.mu.Unlock()

	if s.surface != nil {
		s.surface.Hide(id)
	}

	switch to {
	case Confirmed:
		s.execute(cmd, cb)
	case Cancelled:
		log.Info("Command cancelled", "id", id, "text", cmd.Text)
	}

	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()

	return true
}

// execute runs the callback. Failures are reported and spoken, never
// propagated; the command counts as handled either way.
func (s *System) execute(cmd Command, cb Callback) {
	log.Info("Executing command", "id", cmd.ID, "intent", cmd.Intent)

	if cb == nil {
		return
	}
	if err := cb(cmd.Intent, cmd.Params); err != nil {
		log.Error("Command execution failed", "id", cmd.ID, "err", err)
		if s.voice != nil {
			s.voice.Speak("Sorry, there was an error executing the command")
		}
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
