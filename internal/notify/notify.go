package notify

import (
	log "log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// Chime plays the attention sound before the daemon starts listening.
// A missing or broken sound file only costs the chime, never the daemon.
func Chime(path string) {
	if path == "" {
		path = "chime.mp3"
	}

	f, err := os.Open(path)
	if err != nil {
		log.Debug("No chime sound available", "path", path, "err", err)
		return
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		log.Warn("Failed to decode chime", "path", path, "err", err)
		f.Close()
		return
	}
	defer streamer.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		log.Warn("Failed to init speaker", "err", err)
		return
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
}

// Desktop sends a desktop notification through notify-send. Best effort.
func Desktop(summary, body string) {
	cmd := exec.Command("notify-send", "--app-name=avatar", summary, body)
	if err := cmd.Run(); err != nil {
		log.Debug("Desktop notification failed", "err", err)
	}
}
