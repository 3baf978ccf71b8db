package tts

import (
	"testing"

	"donotts-server-go/internal/platform/config"
)

func resolverConfig() config.TTSConfig {
	return config.TTSConfig{
		FallbackOrder: []string{"edge", "azure", "elevenlabs", "gtts"},
		Providers: map[string]config.ProviderConfig{
			"edge":       {Enabled: true, Voice: "en-US-AriaNeural"},
			"azure":      {Enabled: true, Voice: "en-US-JennyNeural"},
			"elevenlabs": {Enabled: true, Voice: "21m00Tcm4TlvDq8ikWAM"},
			"gtts":       {Enabled: false, Voice: "en"},
		},
		Tiers: map[string]config.VoiceSelection{
			"default": {Provider: "edge", Voice: "en-US-AriaNeural"},
			"vip":     {Provider: "elevenlabs", Voice: "EXAVITQu4vr4xnSDxMaL"},
		},
		UserOverrides: map[string]config.VoiceSelection{
			"StreamerName": {Provider: "elevenlabs", Voice: "pNInz6obpgDQGcFmaJgB"},
		},
	}
}

func TestResolveTierSelection(t *testing.T) {
	r := NewResolver(resolverConfig())

	got := r.Resolve("Alice", "vip")
	if len(got) == 0 {
		t.Fatal("no candidates")
	}
	if got[0].Provider != "elevenlabs" || got[0].Voice != "EXAVITQu4vr4xnSDxMaL" {
		t.Errorf("primary = %s/%s, want elevenlabs/EXAVITQu4vr4xnSDxMaL", got[0].Provider, got[0].Voice)
	}
}

func TestResolveUserOverrideBeatsTier(t *testing.T) {
	r := NewResolver(resolverConfig())

	got := r.Resolve("StreamerName", "vip")
	if got[0].Provider != "elevenlabs" || got[0].Voice != "pNInz6obpgDQGcFmaJgB" {
		t.Errorf("primary = %s/%s, want the override voice", got[0].Provider, got[0].Voice)
	}
	// The override replaces the tier selection entirely; elevenlabs must not
	// be revisited with the tier voice or its fallback default.
	for i, c := range got[1:] {
		if c.Provider == "elevenlabs" {
			t.Errorf("candidate %d = elevenlabs/%s, provider already tried as primary", i+1, c.Voice)
		}
	}
	want := []string{"elevenlabs", "edge", "azure"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %d, want %d", len(got), len(want))
	}
	for i, p := range want {
		if got[i].Provider != p {
			t.Errorf("candidate %d = %s, want %s", i, got[i].Provider, p)
		}
	}
}

func TestResolveOverrideProviderNotRetriedInFallback(t *testing.T) {
	// The vip tier and the elevenlabs fallback default are three distinct
	// voices for the same provider; the candidate list must still carry
	// elevenlabs exactly once.
	r := NewResolver(resolverConfig())

	got := r.Resolve("StreamerName", "vip")
	count := 0
	for _, c := range got {
		if c.Provider == "elevenlabs" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("elevenlabs appears %d times, want 1", count)
	}
}

func TestResolveDeduplicatesAndSkipsDisabled(t *testing.T) {
	r := NewResolver(resolverConfig())

	// The default tier names edge with the same voice edge falls back to, so
	// edge must appear exactly once; gtts is disabled and must not appear.
	got := r.Resolve("Alice", "default")
	seen := make(map[string]int)
	for _, c := range got {
		seen[c.Provider]++
		if c.Provider == "gtts" {
			t.Error("disabled provider in candidate list")
		}
	}
	if seen["edge"] != 1 {
		t.Errorf("edge appears %d times, want 1", seen["edge"])
	}
	want := []string{"edge", "azure", "elevenlabs"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %d, want %d", len(got), len(want))
	}
	for i, p := range want {
		if got[i].Provider != p {
			t.Errorf("candidate %d = %s, want %s", i, got[i].Provider, p)
		}
	}
}

func TestResolveUnknownTierFallsThrough(t *testing.T) {
	r := NewResolver(resolverConfig())

	got := r.Resolve("Alice", "mystery")
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3 enabled fallbacks", len(got))
	}
	if got[0].Provider != "edge" || got[0].Voice != "en-US-AriaNeural" {
		t.Errorf("primary = %s/%s, want edge default", got[0].Provider, got[0].Voice)
	}
}

func TestResolveMergesOptions(t *testing.T) {
	cfg := resolverConfig()
	pc := cfg.Providers["edge"]
	pc.Options = map[string]string{"rate": "+0%", "pitch": "+0Hz"}
	cfg.Providers["edge"] = pc
	cfg.Tiers["default"] = config.VoiceSelection{
		Provider: "edge",
		Voice:    "en-US-AriaNeural",
		Options:  map[string]string{"rate": "+10%"},
	}
	r := NewResolver(cfg)

	got := r.Resolve("Alice", "default")
	if got[0].Options["rate"] != "+10%" {
		t.Errorf("rate = %q, want tier value to win", got[0].Options["rate"])
	}
	if got[0].Options["pitch"] != "+0Hz" {
		t.Errorf("pitch = %q, want provider default kept", got[0].Options["pitch"])
	}
}
