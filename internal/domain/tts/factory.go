package tts

import (
	"donotts-server-go/internal/platform/config"

	"donotts-server-go/internal/domain/tts/providers/azure"
	"donotts-server-go/internal/domain/tts/providers/coqui"
	"donotts-server-go/internal/domain/tts/providers/edge"
	"donotts-server-go/internal/domain/tts/providers/elevenlabs"
	"donotts-server-go/internal/domain/tts/providers/gtts"
	"donotts-server-go/internal/domain/tts/providers/polly"
	"donotts-server-go/internal/platform/errors"
)

// BuildRegistry constructs an adapter for every enabled provider in the
// configuration. Unknown provider identifiers are a configuration error.
func BuildRegistry(cfg config.TTSConfig) (*Registry, error) {
	registry := NewRegistry()
	for id, pc := range cfg.Providers {
		if !pc.Enabled {
			continue
		}
		switch id {
		case "edge":
			registry.Register(edge.New(pc))
		case "azure":
			registry.Register(azure.New(pc))
		case "elevenlabs":
			registry.Register(elevenlabs.New(pc))
		case "polly":
			registry.Register(polly.New(pc))
		case "coqui":
			registry.Register(coqui.New(pc))
		case "gtts":
			registry.Register(gtts.New(pc))
		default:
			return nil, errors.New(errors.KindConfig, "tts.BuildRegistry", "unknown tts provider: "+id)
		}
	}
	return registry, nil
}
