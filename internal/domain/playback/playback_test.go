package playback

import (
	"context"
	"testing"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/domain/audio"
	"donotts-server-go/internal/domain/tts"
)

func TestNullExecutor(t *testing.T) {
	n := NewNull(nil)
	art := &tts.Artifact{Provider: "edge", Voice: "aria", Format: providers.FormatMP3}

	if err := n.Play(context.Background(), art); err != nil {
		t.Fatalf("Play: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Play(ctx, art); err != context.Canceled {
		t.Fatalf("Play on cancelled context = %v, want context.Canceled", err)
	}
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestScaleVolume(t *testing.T) {
	buf := &audio.Buffer{Samples: []int16{10000, -10000, 0}, SampleRate: 24000}
	scaleVolume(buf, 0.5)
	if buf.Samples[0] != 5000 || buf.Samples[1] != -5000 || buf.Samples[2] != 0 {
		t.Errorf("scaled samples = %v", buf.Samples)
	}

	full := &audio.Buffer{Samples: []int16{123}, SampleRate: 24000}
	scaleVolume(full, 1.0)
	if full.Samples[0] != 123 {
		t.Errorf("volume 1.0 must not change samples, got %d", full.Samples[0])
	}
}
