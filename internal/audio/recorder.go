package audio

import (
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// SampleRate is what the whisper models expect: mono 16 kHz float32.
const SampleRate = 16000

const (
	frameSize       = 320 // 20ms
	silenceThresh   = 0.015
	trailingSilence = 600 * time.Millisecond
)

// Recorder captures microphone input through portaudio.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// Record captures one utterance: it waits for speech, then stops after
// trailing silence, a fire on stop, or maxDur, whichever comes first.
// stop may be nil.
func (r *Recorder) Record(stop <-chan struct{}, maxDur time.Duration) ([]float32, error) {
	if maxDur <= 0 {
		maxDur = 10 * time.Second
	}

	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	var (
		speaking      bool
		silentFrames  int
		frameDuration = time.Duration(frameSize) * time.Second / SampleRate
		deadline      = time.Now().Add(maxDur)
	)

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			if len(out) == 0 {
				return nil, errors.New("no audio recorded")
			}
			return out, nil
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, err
		}

		if rms(buf) > silenceThresh {
			speaking = true
			silentFrames = 0
			out = append(out, buf...)
			continue
		}
		if !speaking {
			continue
		}

		silentFrames++
		if time.Duration(silentFrames)*frameDuration >= trailingSilence {
			break
		}
		out = append(out, buf...)
	}

	return out, nil
}

func rms(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
