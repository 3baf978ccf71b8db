// Package elevenlabs adapts the ElevenLabs text-to-speech REST API. Voices
// are opaque voice IDs.
package elevenlabs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/platform/config"
)

const (
	providerID = "elevenlabs"
	defaultURL = "https://api.elevenlabs.io"
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

type synthesisRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// parseVoiceSettings reads the numeric stability/similarity_boost options.
// Absent options mean the API's own defaults apply; either one present
// yields a settings block with the other left at the API default of zero
// unless also set.
func parseVoiceSettings(options map[string]string) (*voiceSettings, error) {
	stability, hasStability := options["stability"]
	similarity, hasSimilarity := options["similarity_boost"]
	if !hasStability && !hasSimilarity {
		return nil, nil
	}
	vs := &voiceSettings{}
	if hasStability {
		v, err := strconv.ParseFloat(stability, 64)
		if err != nil {
			return nil, fmt.Errorf("stability %q: %w", stability, err)
		}
		vs.Stability = v
	}
	if hasSimilarity {
		v, err := strconv.ParseFloat(similarity, 64)
		if err != nil {
			return nil, fmt.Errorf("similarity_boost %q: %w", similarity, err)
		}
		vs.SimilarityBoost = v
	}
	return vs, nil
}

func (p *Provider) Synthesize(ctx context.Context, text, voice string, options map[string]string) ([]byte, providers.Format, error) {
	if p.cfg.APIKey == "" {
		return nil, "", providers.AuthFailed(providerID, fmt.Errorf("api_key not configured"))
	}

	settings, err := parseVoiceSettings(options)
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}
	payload := synthesisRequest{Text: text, ModelID: options["model_id"], VoiceSettings: settings}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}

	base := p.cfg.BaseURL
	if base == "" {
		base = defaultURL
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s", base, voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", providers.Unsupported(providerID, err)
	}
	req.Header.Set("xi-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", providers.FromHTTPStatus(providerID, resp.StatusCode,
			fmt.Errorf("text-to-speech returned %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", providers.FromTransport(providerID, err)
	}
	return data, providers.FormatMP3, nil
}
