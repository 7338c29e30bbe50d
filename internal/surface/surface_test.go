package surface

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar/internal/confirm"
)

func dialTestSurface(t *testing.T) (*Server, *ws.Conn) {
	t.Helper()

	s := NewServer()
	srv := httptest.NewServer(http.HandlerFunc(s.handleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// wait for the server side to register the connection
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		attached := s.conn != nil
		s.mu.Unlock()
		if attached {
			return s, conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("widget never attached")
	return nil, nil
}

func TestShowPromptReachesWidget(t *testing.T) {
	s, conn := dialTestSurface(t)

	s.ShowPrompt(confirm.Command{
		ID:      "cmd-1",
		Text:    "estimate the app",
		Preview: "Estimate: the app",
		Timeout: 10 * time.Second,
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "show_prompt", ev.Type)
	assert.Equal(t, "cmd-1", ev.CommandID)
	assert.Equal(t, 10, ev.TimeoutSec)

	s.NotifyTimeout("cmd-1")
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "timeout", ev.Type)

	s.Hide("cmd-1")
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "hide", ev.Type)
}

func TestDecisionsRouted(t *testing.T) {
	s, conn := dialTestSurface(t)

	require.NoError(t, conn.WriteJSON(Decision{Type: "confirmed", CommandID: "cmd-2"}))

	select {
	case d := <-s.Decisions():
		assert.Equal(t, "confirmed", d.Type)
		assert.Equal(t, "cmd-2", d.CommandID)
	case <-time.After(time.Second):
		t.Fatal("decision never arrived")
	}
}

func TestSendWithoutWidgetIsNoop(t *testing.T) {
	s := NewServer()
	s.ShowPrompt(confirm.Command{ID: "cmd-3"})
	s.Hide("cmd-3")
}
