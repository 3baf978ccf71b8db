// Package audio holds the decoded-PCM buffer type, the decoders that
// normalize provider output (MP3 or WAV) into it, and the quality validator
// the synthesis pipeline runs on every candidate result.
package audio

import (
	"bytes"
	"io"
	"time"

	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/go-audio/wav"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/errors"
)

// Buffer is decoded audio normalized to mono signed 16-bit samples.
type Buffer struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(b.Samples)) / float64(b.SampleRate) * float64(time.Second))
}

// Normalize scales samples so the peak reaches full range. Silence-only
// buffers are left untouched.
func (b *Buffer) Normalize() {
	var peak int16
	for _, s := range b.Samples {
		if s == minInt16 {
			peak = maxInt16
			break
		}
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 || peak == maxInt16 {
		return
	}
	scale := float64(maxInt16) / float64(peak)
	for i, s := range b.Samples {
		b.Samples[i] = clampInt16(float64(s) * scale)
	}
}

// Resample converts the buffer to the target rate with linear
// interpolation. Good enough for speech routed to a single output device.
func (b *Buffer) Resample(targetRate int) *Buffer {
	if targetRate <= 0 || targetRate == b.SampleRate || len(b.Samples) == 0 {
		return b
	}
	ratio := float64(b.SampleRate) / float64(targetRate)
	outLen := int(float64(len(b.Samples)) / ratio)
	out := make([]int16, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(b.Samples)-1 {
			out[i] = b.Samples[len(b.Samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = clampInt16(float64(b.Samples[idx])*(1-frac) + float64(b.Samples[idx+1])*frac)
	}
	return &Buffer{Samples: out, SampleRate: targetRate}
}

// PCMBytes renders the buffer as little-endian 16-bit PCM for the output
// device.
func (b *Buffer) PCMBytes() []byte {
	out := make([]byte, len(b.Samples)*2)
	for i, s := range b.Samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

const (
	minInt16 = -32768
	maxInt16 = 32767
)

func clampInt16(v float64) int16 {
	if v > maxInt16 {
		return maxInt16
	}
	if v < minInt16 {
		return minInt16
	}
	return int16(v)
}

// Decode turns raw adapter output into a mono Buffer. Multi-channel input is
// downmixed by averaging.
func Decode(data []byte, format providers.Format) (*Buffer, error) {
	switch format {
	case providers.FormatMP3:
		return decodeMP3(data)
	case providers.FormatWAV:
		return decodeWAV(data)
	default:
		return nil, errors.New(errors.KindDomain, "audio.decode", "unknown audio format: "+string(format))
	}
}

func decodeMP3(data []byte) (*Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "audio.decode", "invalid mp3 payload", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "audio.decode", "failed to read mp3 stream", err)
	}

	// go-mp3 always emits 16-bit stereo little-endian.
	sampleCount := len(raw) / 4
	samples := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		left := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		right := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		samples[i] = int16((int32(left) + int32(right)) / 2)
	}

	return &Buffer{Samples: samples, SampleRate: dec.SampleRate()}, nil
}

func decodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New(errors.KindDomain, "audio.decode", "invalid wav payload")
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(errors.KindDomain, "audio.decode", "failed to read wav stream", err)
	}

	channels := pcm.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	shift := 0
	if pcm.SourceBitDepth > 16 {
		shift = pcm.SourceBitDepth - 16
	}

	frames := len(pcm.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int64
		for c := 0; c < channels; c++ {
			v := int64(pcm.Data[i*channels+c])
			if shift > 0 {
				v >>= shift
			} else if pcm.SourceBitDepth == 8 {
				v = (v - 128) << 8
			}
			sum += v
		}
		samples[i] = clampInt16(float64(sum) / float64(channels))
	}

	return &Buffer{Samples: samples, SampleRate: pcm.Format.SampleRate}, nil
}
