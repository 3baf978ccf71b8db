// Package tts implements the synthesis pipeline: voice resolution,
// content-addressed caching, and prioritized fallback across provider
// adapters.
package tts

import (
	"context"
	"time"

	"donotts-server-go/internal/contracts/providers"
)

// Artifact is a synthesized, validated audio clip. Data holds the raw
// provider bytes in the stated format; decoding happens again at playback.
type Artifact struct {
	Fingerprint string
	Provider    string
	Voice       string
	Format      providers.Format
	Data        []byte
	Duration    time.Duration
	SampleRate  int
}

// Cache is the content-addressed artifact store. A miss is (nil, nil);
// errors are reserved for backend failures. Artifacts enter the cache only
// after passing validation, so a hit is served without revalidating.
type Cache interface {
	Lookup(ctx context.Context, fingerprint string) (*Artifact, error)
	Store(ctx context.Context, artifact *Artifact) error
}
