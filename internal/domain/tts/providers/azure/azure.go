// Package azure adapts the Azure Cognitive Services speech endpoint via its
// SSML REST API.
package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/config"
)

const (
	providerID   = "azure"
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
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

func (p *Provider) endpoint() string {
	if p.cfg.BaseURL != "" {
		return p.cfg.BaseURL
	}
	return fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", p.cfg.Region)
}

func (p *Provider) Synthesize(ctx context.Context, text, voice string, options map[string]string) ([]byte, providers.Format, error) {
	if p.cfg.APIKey == "" {
		return nil, "", providers.AuthFailed(providerID, fmt.Errorf("api_key not configured"))
	}

	body, err := buildSSML(text, voice, options)
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), strings.NewReader(body))
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "donotts-server")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", providers.FromHTTPStatus(providerID, resp.StatusCode,
			fmt.Errorf("speech endpoint returned %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	return data, providers.FormatMP3, nil
}

// buildSSML wraps the text in a speak document, with an optional prosody
// element when rate or pitch options are set.
func buildSSML(text, voice string, options map[string]string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", err
	}

	inner := escaped.String()
	rate, pitch := options["rate"], options["pitch"]
	if rate != "" || pitch != "" {
		var attrs strings.Builder
		if rate != "" {
			fmt.Fprintf(&attrs, " rate=%q", rate)
		}
		if pitch != "" {
			fmt.Fprintf(&attrs, " pitch=%q", pitch)
		}
		inner = fmt.Sprintf("<prosody%s>%s</prosody>", attrs.String(), inner)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="en-US"><voice name=%q>%s</voice></speak>`,
		voice, inner), nil
}
