package tts

import (
	"context"
	"fmt"
	"sort"

	"donotts-server-go/internal/contracts/providers"
)

// Registry holds the enabled provider adapters keyed by identifier. Every
// registered adapter is wrapped so a panic inside it surfaces as an
// Unavailable failure instead of taking the server down.
type Registry struct {
	byID map[string]providers.Provider
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]providers.Provider)}
}

func (r *Registry) Register(p providers.Provider) {
	r.byID[p.ID()] = &safeProvider{inner: p}
}

func (r *Registry) Get(id string) (providers.Provider, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// IDs returns the registered provider identifiers, sorted for stable logs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// safeProvider converts adapter panics into adapter errors at the registry
// boundary.
type safeProvider struct {
	inner providers.Provider
}

func (s *safeProvider) ID() string           { return s.inner.ID() }
func (s *safeProvider) DefaultVoice() string { return s.inner.DefaultVoice() }

func (s *safeProvider) Synthesize(ctx context.Context, text, voice string, options map[string]string) (data []byte, format providers.Format, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = providers.Unavailable(s.inner.ID(), fmt.Errorf("adapter panic: %v", rec))
		}
	}()
	return s.inner.Synthesize(ctx, text, voice, options)
}
