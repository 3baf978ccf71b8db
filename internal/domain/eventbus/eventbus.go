// Package eventbus carries queue lifecycle events to the passive listeners:
// the stream overlay and the Discord notifier. Publishing is fire-and-forget
// so a slow listener can never stall playback.
package eventbus

import (
	"time"

	evbus "github.com/asaskevich/EventBus"
)

// Topics.
const (
	EventQueueUpdated = "queue:updated"
	EventEntryPlayed  = "entry:played"
	EventEntryFailed  = "entry:failed"
)

// QueueUpdatedData is published whenever the pending count changes.
type QueueUpdatedData struct {
	Pending    int64
	NowPlaying string
}

// EntryResultData is published when an entry reaches a terminal state.
type EntryResultData struct {
	EntryID  uint
	Username string
	Message  string
	Amount   float64
	Duration time.Duration
	Reason   string
}

// Bus wraps the underlying event bus. Handlers subscribed with Subscribe run
// asynchronously and without back-pressure on the publisher.
type Bus struct {
	inner evbus.Bus
}

func New() *Bus {
	return &Bus{inner: evbus.New()}
}

func (b *Bus) Publish(topic string, args ...interface{}) {
	b.inner.Publish(topic, args...)
}

func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.inner.SubscribeAsync(topic, fn, false)
}

// WaitAsync blocks until all in-flight async handlers finish. Used during
// shutdown and in tests.
func (b *Bus) WaitAsync() {
	b.inner.WaitAsync()
}
