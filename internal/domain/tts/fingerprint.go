package tts

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/bytedance/sonic"
)

// fingerprintInput is the canonical form hashed into a cache key. ConfigStd
// sorts map keys, so equal inputs always serialize to equal bytes.
type fingerprintInput struct {
	Text     string            `json:"text"`
	Provider string            `json:"provider"`
	Voice    string            `json:"voice"`
	Options  map[string]string `json:"options,omitempty"`
	Profile  string            `json:"profile"`
}

// Fingerprint derives the cache key for one (text, candidate, profile)
// combination. Any change to the inputs, including a single audio-profile
// threshold, yields a different key.
func Fingerprint(text string, cand Candidate, profileID string) string {
	payload, err := sonic.ConfigStd.Marshal(fingerprintInput{
		Text:     text,
		Provider: cand.Provider,
		Voice:    cand.Voice,
		Options:  cand.Options,
		Profile:  profileID,
	})
	if err != nil {
		// Marshaling a struct of strings cannot fail; fall back to the raw
		// fields so a key still comes out deterministic.
		payload = []byte(text + "|" + cand.Provider + "|" + cand.Voice + "|" + profileID)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
