// Package notify posts queue outcomes to a Discord webhook. Like the
// overlay, it only listens; a dead webhook never blocks the queue.
package notify

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/logging"
)

type Discord struct {
	cfg    config.DiscordConfig
	client *http.Client
	log    *logging.Logger
}

func NewDiscord(cfg config.DiscordConfig, log *logging.Logger) *Discord {
	return &Discord{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Attach subscribes the notifier to terminal queue events.
func (d *Discord) Attach(bus *eventbus.Bus) error {
	if err := bus.Subscribe(eventbus.EventEntryPlayed, d.onPlayed); err != nil {
		return err
	}
	return bus.Subscribe(eventbus.EventEntryFailed, d.onFailed)
}

func (d *Discord) onPlayed(data eventbus.EntryResultData) {
	d.post(fmt.Sprintf("Played donation from %s (%.2f): %s", data.Username, data.Amount, data.Message))
}

func (d *Discord) onFailed(data eventbus.EntryResultData) {
	d.post(fmt.Sprintf("Dropped donation from %s (%.2f): %s", data.Username, data.Amount, data.Reason))
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (d *Discord) post(content string) {
	body, err := sonic.Marshal(webhookPayload{Content: content})
	if err != nil {
		d.log.WarnTag("NOTIFY", "failed to encode webhook payload: %v", err)
		return
	}

	resp, err := d.client.Post(d.cfg.WebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.log.WarnTag("NOTIFY", "webhook post failed: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.log.WarnTag("NOTIFY", "webhook returned %s", resp.Status)
	}
}
