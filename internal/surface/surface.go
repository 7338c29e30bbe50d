package surface

import (
	log "log/slog"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"

	"avatar/internal/confirm"
)

// Event goes out to the attached GUI widget. The widget renders the
// prompt and drives its own countdown from TimeoutSec.
type Event struct {
	Type       string `json:"type"` // show_prompt, timeout, hide
	CommandID  string `json:"command_id"`
	Text       string `json:"text,omitempty"`
	Preview    string `json:"preview,omitempty"`
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

// Decision comes back from the widget's confirm/cancel buttons.
type Decision struct {
	Type      string `json:"type"` // confirmed, cancelled
	CommandID string `json:"command_id"`
}

// Server is the websocket side of the visual confirmation surface. One
// widget at a time: a new connection replaces the previous one, which
// matches the single shared prompt display of the avatar.
type Server struct {
	upgrader ws.Upgrader

	mu   sync.Mutex
	conn *ws.Conn

	decisions chan Decision
}

func NewServer() *Server {
	return &Server{
		upgrader:  ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		decisions: make(chan Decision, 8),
	}
}

// Decisions streams confirm/cancel clicks from the widget.
func (s *Server) Decisions() <-chan Decision {
	return s.decisions
}

// Start serves the websocket endpoint until the process exits.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("Surface server stopped", "addr", addr, "err", err)
		}
	}()

	log.Info("Confirmation surface listening", "addr", addr)
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Surface upgrade failed", "err", err)
		return
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.mu.Unlock()

	log.Info("Surface widget attached", "remote", conn.RemoteAddr())

	for {
		var d Decision
		if err := conn.ReadJSON(&d); err != nil {
			if !wsClosed(err) {
				log.Warn("Surface read failed", "err", err)
			}
			break
		}
		select {
		case s.decisions <- d:
		default:
			log.Warn("Decision channel full, dropping", "type", d.Type, "id", d.CommandID)
		}
	}

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	conn.Close()
}

// ShowPrompt implements confirm.Surface.
func (s *Server) ShowPrompt(cmd confirm.Command) {
	s.send(Event{
		Type:       "show_prompt",
		CommandID:  cmd.ID,
		Text:       cmd.Text,
		Preview:    cmd.Preview,
		TimeoutSec: int(cmd.Timeout.Seconds()),
	})
}

// NotifyTimeout implements confirm.Surface: the widget re-arms its
// countdown and flashes the prompt.
func (s *Server) NotifyTimeout(id string) {
	s.send(Event{Type: "timeout", CommandID: id})
}

// Hide implements confirm.Surface.
func (s *Server) Hide(id string) {
	s.send(Event{Type: "hide", CommandID: id})
}

// send delivers an event to the attached widget, if any. A headless
// daemon simply drops surface events.
func (s *Server) send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(ev); err != nil {
		log.Warn("Surface write failed", "err", err)
		s.conn.Close()
		s.conn = nil
	}
}

func wsClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
