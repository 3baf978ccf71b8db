package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"donotts-server-go/internal/contracts/providers"
	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/errors"
)

// CacheRepository is the SQLite-backed synthesis cache. Concurrent writers
// racing on one fingerprint resolve first-writer-wins; the entries are
// interchangeable anyway since the fingerprint covers all inputs.
type CacheRepository struct {
	db *gorm.DB
}

func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

func (r *CacheRepository) Lookup(ctx context.Context, fingerprint string) (*tts.Artifact, error) {
	var entry CacheEntry
	err := r.db.WithContext(ctx).First(&entry, "fingerprint = ?", fingerprint).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cache.lookup", "failed to read cache entry", err)
	}
	return &tts.Artifact{
		Fingerprint: entry.Fingerprint,
		Provider:    entry.Provider,
		Voice:       entry.Voice,
		Format:      providers.Format(entry.Format),
		Data:        entry.Audio,
		Duration:    time.Duration(entry.DurationMS) * time.Millisecond,
		SampleRate:  entry.SampleRate,
	}, nil
}

func (r *CacheRepository) Store(ctx context.Context, art *tts.Artifact) error {
	entry := CacheEntry{
		Fingerprint: art.Fingerprint,
		Provider:    art.Provider,
		Voice:       art.Voice,
		Format:      string(art.Format),
		Audio:       art.Data,
		DurationMS:  art.Duration.Milliseconds(),
		SampleRate:  art.SampleRate,
		CreatedAt:   time.Now(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, "cache.store", "failed to write cache entry", err)
	}
	return nil
}
