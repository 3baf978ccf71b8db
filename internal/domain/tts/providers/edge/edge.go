// Package edge adapts Microsoft Edge's free online TTS endpoint. No
// credentials required, which makes it the usual primary provider.
package edge

import (
	"context"
	"fmt"
	"time"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/config"
)

const providerID = "edge"

type Provider struct {
	cfg config.ProviderConfig
}

func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg}
}

func (p *Provider) ID() string           { return providerID }
func (p *Provider) DefaultVoice() string { return p.cfg.Voice }

// Synthesize streams MP3 audio from the Edge endpoint. The library has no
// context hook, so the call runs in a goroutine and the result is dropped if
// the context expires first.
func (p *Provider) Synthesize(ctx context.Context, text, voice string, options map[string]string) ([]byte, providers.Format, error) {
	opts := []edge_tts.CommunicateOption{edge_tts.SetVoice(voice)}
	if rate, ok := options["rate"]; ok {
		opts = append(opts, edge_tts.SetRate(rate))
	}
	if pitch, ok := options["pitch"]; ok {
		opts = append(opts, edge_tts.SetPitch(pitch))
	}
	if volume, ok := options["volume"]; ok {
		opts = append(opts, edge_tts.SetVolume(volume))
	}
	if deadline, ok := ctx.Deadline(); ok {
		if secs := int(time.Until(deadline).Seconds()); secs > 0 {
			opts = append(opts, edge_tts.SetReceiveTimeout(secs))
		}
	}

	conn, err := edge_tts.NewCommunicate(text, opts...)
	if err != nil {
		return nil, "", providers.Unsupported(providerID, fmt.Errorf("bad synthesis parameters: %w", err))
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := conn.Stream()
		done <- result{data, err}
	}()

	select {
	case <-ctx.Done():
		return nil, "", providers.FromTransport(providerID, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, "", providers.Unavailable(providerID, r.err)
		}
		if len(r.data) == 0 {
			return nil, "", providers.Unavailable(providerID, fmt.Errorf("empty audio stream"))
		}
		return r.data, providers.FormatMP3, nil
	}
}
