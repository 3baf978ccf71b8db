package playback

import (
	"context"

	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/logging"
)

// Null is the executor used when playback is disabled: entries complete
// immediately and only the log shows what would have been spoken. Useful on
// headless hosts where the overlay or a downstream consumer does the actual
// playback.
type Null struct {
	log *logging.Logger
}

func NewNull(log *logging.Logger) *Null {
	return &Null{log: log}
}

func (n *Null) Play(ctx context.Context, artifact *tts.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.InfoTag("PLAY", "playback disabled, skipping %.2fs from %s/%s",
		artifact.Duration.Seconds(), artifact.Provider, artifact.Voice)
	return nil
}

func (n *Null) Close() error { return nil }
