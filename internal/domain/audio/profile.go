package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"donotts-server-go/internal/platform/config"
)

// Profile is the audio-quality profile: the format the server works in plus
// the validation thresholds. Its ID participates in cache fingerprints so a
// threshold change never serves artifacts validated under older rules.
type Profile struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Normalize  bool

	MinDuration      time.Duration
	MaxSilenceRatio  float64
	SilenceAmplitude int16
	StaticThreshold  float64
}

// ProfileFromConfig builds a Profile from the loaded configuration.
func ProfileFromConfig(cfg config.AudioConfig) Profile {
	return Profile{
		SampleRate:       cfg.SampleRate,
		Channels:         cfg.Channels,
		BitDepth:         cfg.BitDepth,
		Normalize:        cfg.Normalize,
		MinDuration:      time.Duration(cfg.MinDurationMS) * time.Millisecond,
		MaxSilenceRatio:  cfg.MaxSilenceRatio,
		SilenceAmplitude: int16(cfg.SilenceAmplitude),
		StaticThreshold:  cfg.StaticThreshold,
	}
}

// ID returns a stable digest over every field of the profile.
func (p Profile) ID() string {
	canonical := fmt.Sprintf("%d|%d|%d|%t|%d|%g|%d|%g",
		p.SampleRate, p.Channels, p.BitDepth, p.Normalize,
		p.MinDuration.Milliseconds(), p.MaxSilenceRatio,
		p.SilenceAmplitude, p.StaticThreshold)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
