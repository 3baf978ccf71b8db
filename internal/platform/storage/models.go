package storage

import "time"

// Donation lifecycle states. Entries only move forward: queued to
// synthesizing, then to exactly one of played or failed.
const (
	StateQueued       = "queued"
	StateSynthesizing = "synthesizing"
	StatePlayed       = "played"
	StateFailed       = "failed"
)

// DonationEntry is one row in the durable donation queue. The autoincrement
// ID doubles as the arrival order.
type DonationEntry struct {
	ID       uint    `gorm:"primaryKey"`
	Username string  `gorm:"size:128;not null"`
	Message  string  `gorm:"not null"`
	Amount   float64 `gorm:"not null"`
	Tier     string  `gorm:"size:64"`

	State     string `gorm:"size:16;not null;index"`
	LastError string

	EnqueuedAt         time.Time
	SynthesisStartedAt *time.Time
	CompletedAt        *time.Time
}

// CacheEntry is one synthesized artifact, keyed by the content fingerprint.
type CacheEntry struct {
	Fingerprint string `gorm:"primaryKey;size:64"`
	Provider    string `gorm:"size:32"`
	Voice       string `gorm:"size:128"`
	Format      string `gorm:"size:8"`
	Audio       []byte
	DurationMS  int64
	SampleRate  int
	CreatedAt   time.Time
}
