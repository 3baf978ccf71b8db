// Package polly adapts the StreamElements speech gateway, which fronts AWS
// Polly voices (Brian, Amy, Joanna, ...) without AWS credentials.
package polly

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/config"
)

const (
	providerID = "polly"
	defaultURL = "https://api.streamelements.com/kappa/v2/speech"
)

type Provider struct {
	cfg    config.ProviderConfig
	client *http.Client
}

func New(cfg config.ProviderConfig) *Provider {
	return &Provider{cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}}
}

func (p *Provider) ID() string           { return providerID }
func (p *Provider) DefaultVoice() string { return p.cfg.Voice }

func (p *Provider) Synthesize(ctx context.Context, text, voice string, _ map[string]string) ([]byte, providers.Format, error) {
	base := p.cfg.BaseURL
	if base == "" {
		base = defaultURL
	}
	q := url.Values{}
	q.Set("voice", voice)
	q.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
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
			fmt.Errorf("speech gateway returned %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	return data, providers.FormatMP3, nil
}
