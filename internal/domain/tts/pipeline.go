package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/domain/audio"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/logging"
)

// Attempt records one synthesis try for diagnostics and the exhaustion
// error.
type Attempt struct {
	Provider string
	Voice    string
	Try      int
	Err      error
}

// ExhaustedError is returned when every candidate has been attempted and
// none produced playable audio.
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "synthesis exhausted: no enabled provider candidates"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s/%s#%d: %v", a.Provider, a.Voice, a.Try, a.Err))
	}
	return "synthesis exhausted after " + strings.Join(parts, "; ")
}

// Request is one synthesis job: the text to speak and the donor identity
// that selects the voice.
type Request struct {
	Text     string
	Username string
	Tier     string
}

// Pipeline runs prioritized fallback synthesis: resolve candidates, consult
// the cache, invoke adapters, validate output. Quality failures retry the
// same candidate; adapter failures move to the next one immediately.
type Pipeline struct {
	registry       *Registry
	resolver       *Resolver
	cache          Cache
	profile        audio.Profile
	log            *logging.Logger
	maxRetries     int
	retryOnStatic  bool
	attemptTimeout time.Duration
}

func NewPipeline(cfg config.TTSConfig, registry *Registry, resolver *Resolver, cache Cache, profile audio.Profile, log *logging.Logger) *Pipeline {
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	timeout := time.Duration(cfg.AttemptTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		registry:       registry,
		resolver:       resolver,
		cache:          cache,
		profile:        profile,
		log:            log,
		maxRetries:     retries,
		retryOnStatic:  cfg.RetryOnStatic,
		attemptTimeout: timeout,
	}
}

// Synthesize produces an artifact for the request or an *ExhaustedError
// carrying the full attempt history. Context cancellation aborts the run and
// is returned as-is.
func (p *Pipeline) Synthesize(ctx context.Context, req Request) (*Artifact, error) {
	text := NormalizeText(req.Text)
	candidates := p.resolver.Resolve(req.Username, req.Tier)
	if len(candidates) == 0 {
		return nil, &ExhaustedError{}
	}

	var attempts []Attempt
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fp := Fingerprint(text, cand, p.profile.ID())
		if art, err := p.cache.Lookup(ctx, fp); err != nil {
			p.log.WarnTag("CACHE", "lookup failed for %s/%s: %v", cand.Provider, cand.Voice, err)
		} else if art != nil {
			p.log.DebugTag("TTS", "cache hit %s for %s/%s", fp[:12], cand.Provider, cand.Voice)
			return art, nil
		}

		art, tried := p.attemptCandidate(ctx, text, cand, fp)
		attempts = append(attempts, tried...)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if art != nil {
			return art, nil
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}

// attemptCandidate runs up to maxRetries tries against one candidate and
// returns the artifact plus the attempt records. A nil artifact means the
// caller should move on to the next candidate.
func (p *Pipeline) attemptCandidate(ctx context.Context, text string, cand Candidate, fp string) (*Artifact, []Attempt) {
	provider, ok := p.registry.Get(cand.Provider)
	if !ok {
		return nil, []Attempt{{Provider: cand.Provider, Voice: cand.Voice, Try: 1,
			Err: providers.Unavailable(cand.Provider, fmt.Errorf("provider not registered"))}}
	}

	var attempts []Attempt
	for try := 1; try <= p.maxRetries; try++ {
		if ctx.Err() != nil {
			return nil, attempts
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		data, format, err := provider.Synthesize(attemptCtx, text, cand.Voice, cand.Options)
		cancel()

		if err != nil {
			attempts = append(attempts, Attempt{Provider: cand.Provider, Voice: cand.Voice, Try: try, Err: err})
			p.log.WarnTag("TTS", "%s/%s attempt %d failed: %v", cand.Provider, cand.Voice, try, err)
			// Provider failures are never retried against the same candidate.
			return nil, attempts
		}

		buf, err := audio.Decode(data, format)
		if err != nil {
			attempts = append(attempts, Attempt{Provider: cand.Provider, Voice: cand.Voice, Try: try, Err: err})
			p.log.WarnTag("TTS", "%s/%s returned undecodable %s payload: %v", cand.Provider, cand.Voice, format, err)
			return nil, attempts
		}
		if p.profile.Normalize {
			buf.Normalize()
		}

		if verr := audio.Validate(buf, p.profile); verr != nil {
			attempts = append(attempts, Attempt{Provider: cand.Provider, Voice: cand.Voice, Try: try, Err: verr})
			p.log.WarnTag("TTS", "%s/%s attempt %d rejected: %v", cand.Provider, cand.Voice, try, verr)
			if !p.retryOnStatic {
				return nil, attempts
			}
			continue
		}

		art := &Artifact{
			Fingerprint: fp,
			Provider:    cand.Provider,
			Voice:       cand.Voice,
			Format:      format,
			Data:        data,
			Duration:    buf.Duration(),
			SampleRate:  buf.SampleRate,
		}
		if err := p.cache.Store(ctx, art); err != nil {
			p.log.WarnTag("CACHE", "store failed for %s: %v", fp[:12], err)
		}
		p.log.InfoTag("TTS", "synthesized %.2fs via %s/%s (try %d)", art.Duration.Seconds(), cand.Provider, cand.Voice, try)
		return art, attempts
	}

	return nil, attempts
}

// NormalizeText trims and collapses whitespace so cosmetic differences in
// donation messages share one cache entry.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
