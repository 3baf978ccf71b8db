package storage

import (
	"context"
	"time"

	"gorm.io/gorm"

	"donotts-server-go/internal/platform/errors"
)

// QueueStats summarizes the queue for the stats endpoint and the overlay.
type QueueStats struct {
	Queued       int64   `json:"queued"`
	Synthesizing int64   `json:"synthesizing"`
	Played       int64   `json:"played"`
	Failed       int64   `json:"failed"`
	TotalAmount  float64 `json:"total_amount"`
}

// QueueRepository persists donation entries and their lifecycle
// transitions.
type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue appends a donation in the queued state. The entry's ID and
// EnqueuedAt are filled in.
func (r *QueueRepository) Enqueue(ctx context.Context, entry *DonationEntry) error {
	entry.State = StateQueued
	entry.EnqueuedAt = time.Now()
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "queue.enqueue", "failed to enqueue donation", err)
	}
	return nil
}

// OldestQueued returns the next entry to play, or nil when the queue is
// empty.
func (r *QueueRepository) OldestQueued(ctx context.Context) (*DonationEntry, error) {
	var entry DonationEntry
	err := r.db.WithContext(ctx).
		Where("state = ?", StateQueued).
		Order("id asc").
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "queue.oldest_queued", "failed to fetch next entry", err)
	}
	return &entry, nil
}

// MarkSynthesizing transitions a queued entry to synthesizing.
func (r *QueueRepository) MarkSynthesizing(ctx context.Context, id uint) error {
	now := time.Now()
	return r.transition(ctx, id, StateQueued, map[string]interface{}{
		"state":                StateSynthesizing,
		"synthesis_started_at": &now,
	})
}

// MarkPlayed transitions a synthesizing entry to its terminal played state.
func (r *QueueRepository) MarkPlayed(ctx context.Context, id uint) error {
	now := time.Now()
	return r.transition(ctx, id, StateSynthesizing, map[string]interface{}{
		"state":        StatePlayed,
		"completed_at": &now,
	})
}

// MarkFailed transitions a synthesizing entry to its terminal failed state,
// recording the reason.
func (r *QueueRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	now := time.Now()
	return r.transition(ctx, id, StateSynthesizing, map[string]interface{}{
		"state":        StateFailed,
		"last_error":   reason,
		"completed_at": &now,
	})
}

func (r *QueueRepository) transition(ctx context.Context, id uint, fromState string, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&DonationEntry{}).
		Where("id = ? AND state = ?", id, fromState).
		Updates(updates)
	if res.Error != nil {
		return errors.Wrap(errors.KindStorage, "queue.transition", "failed to update entry state", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.KindStorage, "queue.transition", "entry not in expected state")
	}
	return nil
}

// ResetStuck requeues entries left in synthesizing by an unclean shutdown.
// Returns the number of entries recovered.
func (r *QueueRepository) ResetStuck(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&DonationEntry{}).
		Where("state = ?", StateSynthesizing).
		Updates(map[string]interface{}{
			"state":                StateQueued,
			"synthesis_started_at": nil,
		})
	if res.Error != nil {
		return 0, errors.Wrap(errors.KindStorage, "queue.reset_stuck", "failed to requeue stuck entries", res.Error)
	}
	return res.RowsAffected, nil
}

// PendingCount returns how many entries are waiting to play.
func (r *QueueRepository) PendingCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&DonationEntry{}).
		Where("state = ?", StateQueued).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(errors.KindStorage, "queue.pending_count", "failed to count pending entries", err)
	}
	return count, nil
}

// ListPending returns the waiting entries in play order, capped at limit
// when limit is positive.
func (r *QueueRepository) ListPending(ctx context.Context, limit int) ([]DonationEntry, error) {
	q := r.db.WithContext(ctx).
		Where("state = ?", StateQueued).
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []DonationEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "queue.list_pending", "failed to list pending entries", err)
	}
	return entries, nil
}

// Stats aggregates per-state counts and the total amount across played
// donations.
func (r *QueueRepository) Stats(ctx context.Context) (QueueStats, error) {
	var stats QueueStats

	rows := []struct {
		State string
		N     int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&DonationEntry{}).
		Select("state, count(*) as n").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return stats, errors.Wrap(errors.KindStorage, "queue.stats", "failed to count states", err)
	}
	for _, row := range rows {
		switch row.State {
		case StateQueued:
			stats.Queued = row.N
		case StateSynthesizing:
			stats.Synthesizing = row.N
		case StatePlayed:
			stats.Played = row.N
		case StateFailed:
			stats.Failed = row.N
		}
	}

	err = r.db.WithContext(ctx).
		Model(&DonationEntry{}).
		Where("state = ?", StatePlayed).
		Select("coalesce(sum(amount), 0)").
		Scan(&stats.TotalAmount).Error
	if err != nil {
		return stats, errors.Wrap(errors.KindStorage, "queue.stats", "failed to sum amounts", err)
	}

	return stats, nil
}
