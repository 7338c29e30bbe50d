package tts

import (
	log "log/slog"

	"avatar/internal/config"
)

// Speaker is the fire-and-forget voice output sink. Utterances queue on a
// single worker so speech never overlaps; when the queue is full the
// oldest behavior wins and new phrases are dropped, not blocked on.
type Speaker struct {
	queue   chan string
	done    chan struct{}
	enabled bool
}

func NewSpeaker(cfg config.Voice) *Speaker {
	s := &Speaker{
		queue:   make(chan string, 16),
		done:    make(chan struct{}),
		enabled: cfg.Enabled,
	}
	if !s.enabled {
		close(s.done)
		return s
	}

	go func() {
		defer close(s.done)
		for text := range s.queue {
			if err := say(text, cfg.Voice); err != nil {
				log.Warn("Voice output failed", "err", err)
			}
		}
	}()
	return s
}

// Speak queues text for synthesis and returns immediately.
func (s *Speaker) Speak(text string) {
	if !s.enabled || text == "" {
		return
	}
	select {
	case s.queue <- text:
	default:
		log.Debug("Voice queue full, dropping phrase", "text", text)
	}
}

// Close drains the queue and stops the worker.
func (s *Speaker) Close() {
	if s.enabled {
		close(s.queue)
	}
	<-s.done
}
