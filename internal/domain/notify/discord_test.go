package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/platform/config"
)

func TestDiscordPostsOnTerminalEvents(t *testing.T) {
	received := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	bus := eventbus.New()
	d := NewDiscord(config.DiscordConfig{Enabled: true, WebhookURL: srv.URL}, nil)
	if err := d.Attach(bus); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	bus.Publish(eventbus.EventEntryPlayed, eventbus.EntryResultData{
		Username: "Alice", Message: "hello chat", Amount: 5,
	})
	bus.Publish(eventbus.EventEntryFailed, eventbus.EntryResultData{
		Username: "Bob", Reason: "all providers exhausted", Amount: 2,
	})
	bus.WaitAsync()

	for i := 0; i < 2; i++ {
		select {
		case body := <-received:
			if !strings.Contains(body, "Alice") && !strings.Contains(body, "Bob") {
				t.Errorf("unexpected webhook body: %s", body)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("webhook not called")
		}
	}
}
