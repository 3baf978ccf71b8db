package playback

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"donotts-server-go/internal/domain/audio"
	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
	"donotts-server-go/internal/platform/logging"
)

// Device plays artifacts on the default output via oto. The process can hold
// only one oto context, so Device is created once at bootstrap; the mutex
// serializes playback, which the queue's advancing lock already guarantees
// in practice.
type Device struct {
	mu      sync.Mutex
	ctx     *oto.Context
	profile audio.Profile
	volume  float64
	log     *logging.Logger
}

func NewDevice(cfg config.PlaybackConfig, profile audio.Profile, log *logging.Logger) (*Device, error) {
	octx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   profile.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindPlayback, "playback.NewDevice", "failed to open audio device", err)
	}
	<-ready

	volume := cfg.Volume
	if volume <= 0 || volume > 1 {
		volume = 1
	}
	return &Device{ctx: octx, profile: profile, volume: volume, log: log}, nil
}

func (d *Device) Play(ctx context.Context, artifact *tts.Artifact) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf, err := audio.Decode(artifact.Data, artifact.Format)
	if err != nil {
		return errors.Wrap(errors.KindPlayback, "playback.Play", "failed to decode artifact", err)
	}
	buf = buf.Resample(d.profile.SampleRate)
	scaleVolume(buf, d.volume)

	player := d.ctx.NewPlayer(bytes.NewReader(buf.PCMBytes()))
	player.Play()
	d.log.DebugTag("PLAY", "playing %.2fs from %s/%s", artifact.Duration.Seconds(), artifact.Provider, artifact.Voice)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Close(); err != nil {
		return errors.Wrap(errors.KindPlayback, "playback.Play", "failed to close player", err)
	}
	return nil
}

func (d *Device) Close() error {
	// oto contexts cannot be torn down; suspending releases the device.
	return d.ctx.Suspend()
}

// scaleVolume attenuates samples in place. volume is 0..1.
func scaleVolume(buf *audio.Buffer, volume float64) {
	if volume >= 1 {
		return
	}
	for i, s := range buf.Samples {
		buf.Samples[i] = int16(float64(s) * volume)
	}
}
