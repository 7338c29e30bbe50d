package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

// DefaultSocketPath is where avatar-ctl looks when no flag is given.
const DefaultSocketPath = "/tmp/avatar.sock"

// ControlMessage is one command from the ctl tool or the GUI shell.
type ControlMessage struct {
	Cmd  string   `json:"cmd"`
	Args []string `json:"args,omitempty"`
}

// Reply carries the handler's answer back over the same connection.
type Reply struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// Handler processes one control message and returns the reply text.
type Handler func(msg ControlMessage) (string, error)

// StartServer listens on a unix socket and dispatches control messages to
// handler, one connection per message.
func StartServer(socketPath string, handler Handler) error {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}

	reply := Reply{OK: true}
	out, err := handler(msg)
	if err != nil {
		reply.OK = false
		reply.Msg = err.Error()
	} else {
		reply.Msg = out
	}

	json.NewEncoder(conn).Encode(reply)
}

// Send delivers one command to a running daemon and waits for the reply.
func Send(socketPath, cmd string, args ...string) (Reply, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ControlMessage{Cmd: cmd, Args: args}); err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}
