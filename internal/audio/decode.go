package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	opus "github.com/pekim/opus"
)

// DecodeFile reads a wav/mp3/ogg recording and returns mono PCM at
// SampleRate, ready for transcription.
func DecodeFile(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(f)
	case ".mp3":
		return decodeMP3(f)
	case ".ogg", ".oga":
		return decodeOgg(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

func decodeWAV(r io.ReadSeeker) ([]float32, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	pb, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if pb == nil || len(pb.Data) == 0 {
		return nil, errors.New("empty wav file")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	scale := 1.0 / float64(int64(1)<<(depth-1))

	pcm := make([]float32, len(pb.Data))
	for i, v := range pb.Data {
		pcm[i] = float32(clamp(float64(v) * scale))
	}

	channels, rate := 1, 44100
	if pb.Format != nil {
		if pb.Format.NumChannels > 0 {
			channels = pb.Format.NumChannels
		}
		if pb.Format.SampleRate > 0 {
			rate = pb.Format.SampleRate
		}
	}
	return normalize(pcm, channels, rate), nil
}

func decodeMP3(r io.Reader) ([]float32, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, err
	}

	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(bytes.NewReader(raw.Bytes()), binary.LittleEndian, &ints); err != nil {
		return nil, err
	}

	pcm := make([]float32, len(ints))
	for i, v := range ints {
		pcm[i] = float32(v) / 32768.0
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	// go-mp3 always emits interleaved stereo
	return normalize(pcm, 2, rate), nil
}

func decodeOgg(r io.ReadSeeker) ([]float32, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err == nil && format != nil && format.Channels > 0 {
		return normalize(pcm, format.Channels, format.SampleRate), nil
	}

	// not Vorbis; retry the container as Opus
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return decodeOggOpus(r)
}

func decodeOggOpus(r io.ReadSeeker) ([]float32, error) {
	dec, err := opus.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("ogg is neither vorbis nor opus: %w", err)
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	// opus always decodes at 48 kHz
	var pcm []float32
	buf := make([]int16, 48000*channels/2)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			chunk := buf[:n*channels]
			for _, v := range chunk {
				pcm = append(pcm, float32(v)/32768.0)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return normalize(pcm, channels, 48000), nil
}

// normalize downmixes interleaved channels to mono and resamples to
// SampleRate with linear interpolation.
func normalize(pcm []float32, channels, rate int) []float32 {
	if channels > 1 {
		frames := len(pcm) / channels
		mono := make([]float32, frames)
		for i := 0; i < frames; i++ {
			var sum float64
			for c := 0; c < channels; c++ {
				sum += float64(pcm[i*channels+c])
			}
			mono[i] = float32(sum / float64(channels))
		}
		pcm = mono
	}

	if rate == SampleRate || len(pcm) == 0 {
		return pcm
	}

	ratio := float64(SampleRate) / float64(rate)
	out := make([]float32, int(math.Ceil(float64(len(pcm))*ratio)))
	for i := range out {
		src := float64(i) / ratio
		lo := int(src)
		if lo >= len(pcm)-1 {
			out[i] = pcm[len(pcm)-1]
			continue
		}
		frac := float32(src - float64(lo))
		out[i] = pcm[lo]*(1-frac) + pcm[lo+1]*frac
	}
	return out
}

func clamp(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
