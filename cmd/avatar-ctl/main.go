package main

import (
	"fmt"
	"os"

	cli "github.com/spf13/pflag"

	"avatar/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Daemon socket path")
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		fmt.Println("usage: avatar-ctl [--socket path] <trigger|say|confirm|cancel|status|briefing|transcribe> [args...]")
		os.Exit(1)
	}

	reply, err := ipc.Send(*socket, args[0], args[1:]...)
	if err != nil {
		fmt.Println("avatar-daemon not running:", err)
		os.Exit(1)
	}

	if !reply.OK {
		fmt.Println("error:", reply.Msg)
		os.Exit(1)
	}
	if reply.Msg != "" {
		fmt.Println(reply.Msg)
	}
}
