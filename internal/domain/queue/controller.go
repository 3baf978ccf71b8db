// Package queue implements the donation queue controller: strictly ordered,
// one entry at a time, advanced only on explicit operator request.
package queue

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/domain/playback"
	"donotts-server-go/internal/domain/tts"
	"donotts-server-go/internal/platform/errors"
	"donotts-server-go/internal/platform/logging"
	"donotts-server-go/internal/platform/storage"
)

// Outcome is the result classification of one Advance call.
type Outcome string

const (
	OutcomePlayed Outcome = "played"
	OutcomeFailed Outcome = "failed"
	OutcomeEmpty  Outcome = "empty"
	OutcomeBusy   Outcome = "busy"
)

// Result reports what one Advance call did.
type Result struct {
	Outcome  Outcome
	Entry    *storage.DonationEntry
	Duration time.Duration
	Reason   string
}

// Synthesizer is the slice of the synthesis pipeline the controller needs.
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (*tts.Artifact, error)
}

// Controller owns the advancing lock. At most one entry is ever in flight;
// a second Advance while one runs reports Busy instead of waiting.
type Controller struct {
	repo      *storage.QueueRepository
	synth     Synthesizer
	player    playback.Executor
	bus       *eventbus.Bus
	log       *logging.Logger
	maxMsgLen int

	advancing sync.Mutex

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func NewController(repo *storage.QueueRepository, synth Synthesizer, player playback.Executor, bus *eventbus.Bus, log *logging.Logger, maxMessageLength int) *Controller {
	return &Controller{
		repo:      repo,
		synth:     synth,
		player:    player,
		bus:       bus,
		log:       log,
		maxMsgLen: maxMessageLength,
	}
}

// Enqueue appends a donation. Messages longer than the configured limit are
// truncated, never rejected; an empty username or message is a domain error.
func (c *Controller) Enqueue(ctx context.Context, username, message string, amount float64, tier string) (*storage.DonationEntry, error) {
	if username == "" {
		return nil, errors.New(errors.KindDomain, "queue.enqueue", "username is required")
	}
	message = tts.NormalizeText(message)
	if message == "" {
		return nil, errors.New(errors.KindDomain, "queue.enqueue", "message is required")
	}
	message = truncateRunes(message, c.maxMsgLen)

	entry := &storage.DonationEntry{
		Username: username,
		Message:  message,
		Amount:   amount,
		Tier:     tier,
	}
	if err := c.repo.Enqueue(ctx, entry); err != nil {
		return nil, err
	}
	c.log.InfoTag("QUEUE", "enqueued #%d from %s (%.2f, tier %s)", entry.ID, entry.Username, entry.Amount, entry.Tier)
	c.publishQueueUpdated(ctx, "")
	return entry, nil
}

// Advance synthesizes and plays the oldest queued entry. The lock is held
// through playback, so a concurrent call reports Busy. An empty queue is an
// Outcome, not an error; errors are reserved for cancellation and storage
// faults.
func (c *Controller) Advance(ctx context.Context) (*Result, error) {
	if !c.advancing.TryLock() {
		return &Result{Outcome: OutcomeBusy}, nil
	}
	defer c.advancing.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.setCancel(cancel)
	defer c.setCancel(nil)

	entry, err := c.repo.OldestQueued(ctx)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &Result{Outcome: OutcomeEmpty}, nil
	}

	if err := c.repo.MarkSynthesizing(ctx, entry.ID); err != nil {
		return nil, err
	}
	c.publishQueueUpdated(ctx, entry.Username)

	phrase := SpokenPhrase(entry.Username, entry.Message)
	artifact, err := c.synth.Synthesize(ctx, tts.Request{
		Text:     phrase,
		Username: entry.Username,
		Tier:     entry.Tier,
	})
	if err != nil {
		reason := failureReason(err)
		c.finishFailed(entry, reason)
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return &Result{Outcome: OutcomeFailed, Entry: entry, Reason: reason}, nil
	}

	// Played is recorded before the audio runs so a crash mid-playback can
	// never replay an entry on restart.
	if err := c.repo.MarkPlayed(context.WithoutCancel(ctx), entry.ID); err != nil {
		return nil, err
	}

	result := &Result{Outcome: OutcomePlayed, Entry: entry, Duration: artifact.Duration}
	if err := c.player.Play(ctx, artifact); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			c.finishPlayed(entry, artifact.Duration)
			return nil, cerr
		}
		c.log.ErrorTag("PLAY", "playback of #%d failed: %v", entry.ID, err)
		result.Reason = err.Error()
	}

	c.finishPlayed(entry, artifact.Duration)
	c.log.InfoTag("QUEUE", "played #%d from %s (%.2fs)", entry.ID, entry.Username, artifact.Duration.Seconds())
	return result, nil
}

// Skip discards the oldest queued entry without synthesizing it.
func (c *Controller) Skip(ctx context.Context) (*Result, error) {
	if !c.advancing.TryLock() {
		return &Result{Outcome: OutcomeBusy}, nil
	}
	defer c.advancing.Unlock()

	entry, err := c.repo.OldestQueued(ctx)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &Result{Outcome: OutcomeEmpty}, nil
	}

	if err := c.repo.MarkSynthesizing(ctx, entry.ID); err != nil {
		return nil, err
	}
	c.finishFailed(entry, "skipped")
	c.log.InfoTag("QUEUE", "skipped #%d from %s", entry.ID, entry.Username)
	return &Result{Outcome: OutcomeFailed, Entry: entry, Reason: "skipped"}, nil
}

// CancelAdvance aborts the in-flight Advance, if any. Reports whether one
// was running.
func (c *Controller) CancelAdvance() bool {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Pending lists waiting entries in play order.
func (c *Controller) Pending(ctx context.Context, limit int) ([]storage.DonationEntry, error) {
	return c.repo.ListPending(ctx, limit)
}

// Stats returns the queue aggregates.
func (c *Controller) Stats(ctx context.Context) (storage.QueueStats, error) {
	return c.repo.Stats(ctx)
}

// RecoverStuck requeues entries stranded in synthesizing by an unclean
// shutdown. Called once at startup.
func (c *Controller) RecoverStuck(ctx context.Context) error {
	recovered, err := c.repo.ResetStuck(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		c.log.WarnTag("QUEUE", "requeued %d entries left synthesizing by a previous run", recovered)
	}
	return nil
}

func (c *Controller) setCancel(cancel context.CancelFunc) {
	c.cancelMu.Lock()
	c.cancel = cancel
	c.cancelMu.Unlock()
}

// finishFailed records the terminal failed state and notifies listeners.
// Runs on a detached context so cancellation cannot lose the transition.
func (c *Controller) finishFailed(entry *storage.DonationEntry, reason string) {
	ctx := context.Background()
	if err := c.repo.MarkFailed(ctx, entry.ID, reason); err != nil {
		c.log.ErrorTag("QUEUE", "failed to mark #%d failed: %v", entry.ID, err)
	}
	c.bus.Publish(eventbus.EventEntryFailed, eventbus.EntryResultData{
		EntryID:  entry.ID,
		Username: entry.Username,
		Message:  entry.Message,
		Amount:   entry.Amount,
		Reason:   reason,
	})
	c.publishQueueUpdated(ctx, "")
}

func (c *Controller) finishPlayed(entry *storage.DonationEntry, duration time.Duration) {
	c.bus.Publish(eventbus.EventEntryPlayed, eventbus.EntryResultData{
		EntryID:  entry.ID,
		Username: entry.Username,
		Message:  entry.Message,
		Amount:   entry.Amount,
		Duration: duration,
	})
	c.publishQueueUpdated(context.Background(), "")
}

func (c *Controller) publishQueueUpdated(ctx context.Context, nowPlaying string) {
	pending, err := c.repo.PendingCount(context.WithoutCancel(ctx))
	if err != nil {
		c.log.WarnTag("QUEUE", "failed to count pending entries: %v", err)
		return
	}
	c.bus.Publish(eventbus.EventQueueUpdated, eventbus.QueueUpdatedData{
		Pending:    pending,
		NowPlaying: nowPlaying,
	})
}

// SpokenPhrase is what actually gets synthesized for an entry.
func SpokenPhrase(username, message string) string {
	return fmt.Sprintf("%s said %s", username, message)
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// failureReason flattens a synthesis error into the persisted reason,
// capped so a long attempt history cannot bloat the row.
func failureReason(err error) string {
	const maxLen = 512
	if stderrors.Is(err, context.Canceled) {
		return "cancelled"
	}
	msg := err.Error()
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
