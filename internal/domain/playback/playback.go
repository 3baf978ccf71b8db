// Package playback renders synthesized artifacts on the local audio device.
package playback

import (
	"context"

	"donotts-server-go/internal/domain/tts"
)

// Executor plays one artifact to completion. Play blocks until the audio
// finishes or the context is cancelled; cancellation returns the context
// error.
type Executor interface {
	Play(ctx context.Context, artifact *tts.Artifact) error
	Close() error
}
