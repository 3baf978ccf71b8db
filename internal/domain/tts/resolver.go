package tts

import (
	"donotts-server-go/internal/platform/config"
)

// Candidate is one concrete (provider, voice, options) triple the pipeline
// may attempt, in priority order.
type Candidate struct {
	Provider string
	Voice    string
	Options  map[string]string
}

// Resolver turns a donor identity into an ordered candidate list: the
// per-username override if one exists, otherwise the donor's tier mapping,
// then the global fallback order with each provider's default voice.
// Disabled providers are dropped, and a provider already chosen as the
// primary is not revisited in the fallback scan.
type Resolver struct {
	cfg config.TTSConfig
}

func NewResolver(cfg config.TTSConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve builds the candidate list for one donation. The returned slice is
// never shared between calls.
func (r *Resolver) Resolve(username, tier string) []Candidate {
	var out []Candidate
	seen := make(map[string]bool)

	add := func(sel config.VoiceSelection) {
		pc, ok := r.cfg.Providers[sel.Provider]
		if !ok || !pc.Enabled {
			return
		}
		if seen[sel.Provider] {
			return
		}
		seen[sel.Provider] = true
		voice := sel.Voice
		if voice == "" {
			voice = pc.Voice
		}
		out = append(out, Candidate{
			Provider: sel.Provider,
			Voice:    voice,
			Options:  mergeOptions(pc.Options, sel.Options),
		})
	}

	if sel, ok := r.cfg.UserOverrides[username]; ok {
		add(sel)
	} else if sel, ok := r.cfg.Tiers[tier]; ok {
		add(sel)
	}
	for _, provider := range r.cfg.FallbackOrder {
		add(config.VoiceSelection{Provider: provider})
	}

	return out
}

// mergeOptions layers selection options over the provider defaults. Returns
// nil when both sides are empty so candidates stay comparable.
func mergeOptions(base, over map[string]string) map[string]string {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	merged := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range over {
		merged[k] = v
	}
	return merged
}
