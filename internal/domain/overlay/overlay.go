// Package overlay pushes queue state into an OBS text source over the
// obs-websocket v5 protocol, so the stream shows the pending count and who
// is being read out. Overlay failures are logged and dropped; they must
// never affect the queue.
package overlay

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/platform/config"
	"donotts-server-go/internal/platform/errors"
	"donotts-server-go/internal/platform/logging"
)

// obs-websocket opcodes used by the client.
const (
	opHello      = 0
	opIdentify   = 1
	opIdentified = 2
	opRequest    = 6
)

type Client struct {
	cfg config.OverlayConfig
	log *logging.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func New(cfg config.OverlayConfig, log *logging.Logger) *Client {
	return &Client{cfg: cfg, log: log}
}

// Attach subscribes the overlay to queue events.
func (c *Client) Attach(bus *eventbus.Bus) error {
	return bus.Subscribe(eventbus.EventQueueUpdated, c.onQueueUpdated)
}

func (c *Client) onQueueUpdated(data eventbus.QueueUpdatedData) {
	text := fmt.Sprintf("TTS queue: %d waiting", data.Pending)
	if data.NowPlaying != "" {
		text = fmt.Sprintf("Now reading %s | %d waiting", data.NowPlaying, data.Pending)
	}
	if err := c.setText(text); err != nil {
		c.log.WarnTag("OVERLAY", "text source update failed: %v", err)
	}
}

// Close drops the websocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func (c *Client) setText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(); err != nil {
		return err
	}

	req := map[string]interface{}{
		"op": opRequest,
		"d": map[string]interface{}{
			"requestType": "SetInputSettings",
			"requestId":   uuid.NewString(),
			"requestData": map[string]interface{}{
				"inputName": c.cfg.TextSource,
				"inputSettings": map[string]interface{}{
					"text": text,
				},
			},
		},
	}
	if err := c.conn.WriteJSON(req); err != nil {
		// stale connection; reconnect on the next event
		c.conn.Close()
		c.conn = nil
		return errors.Wrap(errors.KindTransport, "overlay.setText", "websocket write failed", err)
	}
	return nil
}

// envelope is the generic obs-websocket message frame.
type envelope struct {
	Op int                    `json:"op"`
	D  map[string]interface{} `json:"d"`
}

// ensureConnected dials and performs the Hello/Identify handshake when no
// connection is up. Caller holds the mutex.
func (c *Client) ensureConnected() error {
	if c.conn != nil {
		return nil
	}

	url := fmt.Sprintf("ws://%s:%d", c.cfg.Host, c.cfg.Port)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return errors.Wrap(errors.KindTransport, "overlay.connect", "failed to dial obs", err)
	}

	var hello envelope
	if err := conn.ReadJSON(&hello); err != nil || hello.Op != opHello {
		conn.Close()
		return errors.Wrap(errors.KindTransport, "overlay.connect", "bad hello from obs", err)
	}

	identify := map[string]interface{}{
		"op": opIdentify,
		"d": map[string]interface{}{
			"rpcVersion": 1,
		},
	}
	if auth, ok := hello.D["authentication"].(map[string]interface{}); ok {
		challenge, _ := auth["challenge"].(string)
		salt, _ := auth["salt"].(string)
		identify["d"].(map[string]interface{})["authentication"] = authResponse(c.cfg.Password, salt, challenge)
	}
	if err := conn.WriteJSON(identify); err != nil {
		conn.Close()
		return errors.Wrap(errors.KindTransport, "overlay.connect", "identify failed", err)
	}

	var identified envelope
	if err := conn.ReadJSON(&identified); err != nil || identified.Op != opIdentified {
		conn.Close()
		return errors.Wrap(errors.KindTransport, "overlay.connect", "obs rejected identify", err)
	}

	c.conn = conn
	c.log.InfoTag("OVERLAY", "connected to obs at %s", url)
	return nil
}

// authResponse computes the obs-websocket v5 challenge response:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	response := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(response[:])
}
