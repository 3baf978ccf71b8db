// Package coqui adapts a self-hosted Coqui TTS server. The server returns
// WAV; the voice maps to speaker_id for multi-speaker models.
package coqui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/config"
)

const providerID = "coqui"

type Provider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{Timeout: 120 * time.Second}}
}

func (p *Provider) ID() string           { return providerID }
func (p *Provider) DefaultVoice() string { return p.cfg.Voice }

func (p *Provider) Synthesize(ctx context.Context, text, voice string, options map[string]string) ([]byte, providers.Format, error) {
	if p.cfg.BaseURL == "" {
		return nil, "", providers.Unavailable(providerID, fmt.Errorf("url not configured"))
	}

	q := url.Values{}
	q.Set("text", text)
	if voice != "" {
		q.Set("speaker_id", voice)
	}
	if lang, ok := options["language_id"]; ok {
		q.Set("language_id", lang)
	}

	endpoint := strings.TrimRight(p.cfg.BaseURL, "/") + "/api/tts?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", providers.FromHTTPStatus(providerID, resp.StatusCode,
			fmt.Errorf("tts server returned %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	return data, providers.FormatWAV, nil
}
