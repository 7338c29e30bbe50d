package speech

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"avatar/internal/audio"
	"avatar/internal/config"
	"avatar/internal/nlu"
	"avatar/internal/stt"
)

// whisper gives no per-utterance confidence; everything that transcribes
// gets this score, matching the threshold semantics of the config.
const defaultConfidence = 0.8

// Utterance is one recognized piece of speech.
type Utterance struct {
	Text       string
	Confidence float64
	Intent     string
	WakeWord   bool
	At         time.Time
}

// System wraps the microphone and the transcriber behind a degrade-to-
// disabled speech source: a missing model or dead audio stack leaves the
// daemon running without voice input.
type System struct {
	cfg     config.Speech
	rec     *audio.Recorder
	tr      *stt.Transcriber
	enabled bool
}

func New(cfg config.Speech) *System {
	s := &System{cfg: cfg}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Warn("Audio input unavailable, speech disabled", "err", err)
		return s
	}

	tr, err := stt.New(cfg.ModelPath)
	if err != nil {
		log.Warn("Whisper model unavailable, speech disabled", "path", cfg.ModelPath, "err", err)
		rec.Close()
		return s
	}

	s.rec = rec
	s.tr = tr
	s.enabled = true
	log.Info("Speech recognition ready", "model", cfg.ModelPath, "language", cfg.Language)
	return s
}

func (s *System) Enabled() bool { return s.enabled }

func (s *System) Close() {
	if !s.enabled {
		return
	}
	if err := s.tr.Close(); err != nil {
		log.Warn("Failed to close transcriber", "err", err)
	}
	s.rec.Close()
	s.enabled = false
}

// ListenOnce records for up to timeout and returns the raw transcript.
// An empty string with nil error means nothing intelligible was heard.
// This is the polling primitive the confirmation gate runs on.
func (s *System) ListenOnce(timeout time.Duration) (string, error) {
	if !s.enabled {
		return "", errors.New("speech recognition disabled")
	}

	pcm, err := s.rec.Record(nil, timeout)
	if err != nil {
		return "", err
	}
	if len(pcm) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := s.tr.Transcribe(ctx, pcm, stt.Options{Language: s.cfg.Language})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// RecognizeOnce captures one utterance and classifies it.
func (s *System) RecognizeOnce(ctx context.Context, timeout time.Duration) (*Utterance, error) {
	if timeout <= 0 {
		timeout = time.Duration(s.cfg.TimeoutSeconds) * time.Second
	}

	text, err := s.ListenOnce(timeout)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}
	return s.interpret(text), nil
}

// RecognizeFile transcribes a wav/mp3/ogg recording, mainly for the ctl
// tool and for exercising the pipeline without a microphone.
func (s *System) RecognizeFile(ctx context.Context, path string) (*Utterance, error) {
	if s.tr == nil {
		return nil, errors.New("speech recognition disabled")
	}

	pcm, err := audio.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	res, err := s.tr.Transcribe(ctx, pcm, stt.Options{Language: s.cfg.Language})
	if err != nil {
		return nil, err
	}
	if res.Text == "" {
		return nil, nil
	}
	return s.interpret(res.Text), nil
}

func (s *System) interpret(text string) *Utterance {
	u := &Utterance{
		Text:       text,
		Confidence: defaultConfidence,
		At:         time.Now(),
	}
	if u.Confidence < s.cfg.ConfidenceThreshold {
		log.Debug("Recognition confidence below threshold", "text", text)
		return nil
	}
	u.WakeWord = nlu.ContainsWakeWord(text, s.cfg.WakeWords)
	u.Intent = nlu.Classify(text, s.cfg.Commands)
	return u
}

// Status mirrors what the settings surface shows about voice input.
func (s *System) Status() map[string]any {
	return map[string]any{
		"enabled":  s.enabled,
		"language": s.cfg.Language,
		"model":    s.cfg.ModelPath,
	}
}
