package overlay

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"donotts-server-go/internal/domain/eventbus"
	"donotts-server-go/internal/platform/config"
)

func TestAuthResponse(t *testing.T) {
	got := authResponse("supersecret", "salt123", "challenge456")
	if got == "" {
		t.Fatal("empty auth response")
	}
	// deterministic for the same inputs
	if again := authResponse("supersecret", "salt123", "challenge456"); again != got {
		t.Errorf("auth response not deterministic: %s vs %s", got, again)
	}
	// sensitive to the password
	if other := authResponse("wrong", "salt123", "challenge456"); other == got {
		t.Error("auth response ignored the password")
	}
}

// fakeOBS speaks just enough obs-websocket v5 for the client: Hello with an
// auth challenge, Identify verification, Identified, then it forwards every
// request frame it reads.
type fakeOBS struct {
	t        *testing.T
	password string
	requests chan envelope
	srv      *httptest.Server
}

func newFakeOBS(t *testing.T, password string) *fakeOBS {
	f := &fakeOBS{t: t, password: password, requests: make(chan envelope, 8)}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		const salt, challenge = "fake-salt", "fake-challenge"
		hello := map[string]interface{}{
			"op": opHello,
			"d": map[string]interface{}{
				"rpcVersion": 1,
				"authentication": map[string]interface{}{
					"salt":      salt,
					"challenge": challenge,
				},
			},
		}
		if err := conn.WriteJSON(hello); err != nil {
			return
		}

		var identify envelope
		if err := conn.ReadJSON(&identify); err != nil || identify.Op != opIdentify {
			t.Errorf("expected identify, got op %d err %v", identify.Op, err)
			return
		}
		if got := identify.D["authentication"]; got != authResponse(password, salt, challenge) {
			t.Errorf("bad auth response %v", got)
			return
		}
		if err := conn.WriteJSON(map[string]interface{}{
			"op": opIdentified,
			"d":  map[string]interface{}{"negotiatedRpcVersion": 1},
		}); err != nil {
			return
		}

		for {
			var req envelope
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			f.requests <- req
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOBS) clientConfig() config.OverlayConfig {
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(f.srv.URL, "http://"))
	if err != nil {
		f.t.Fatalf("split host: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return config.OverlayConfig{
		Enabled:    true,
		Host:       host,
		Port:       port,
		Password:   f.password,
		TextSource: "donation-text",
	}
}

func (f *fakeOBS) nextRequest() envelope {
	select {
	case req := <-f.requests:
		return req
	case <-time.After(2 * time.Second):
		f.t.Fatal("no request reached the fake obs server")
		return envelope{}
	}
}

func TestQueueUpdateReachesTextSource(t *testing.T) {
	obs := newFakeOBS(t, "hunter2")
	c := New(obs.clientConfig(), nil)
	defer c.Close()

	bus := eventbus.New()
	if err := c.Attach(bus); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	bus.Publish(eventbus.EventQueueUpdated, eventbus.QueueUpdatedData{
		Pending: 2, NowPlaying: "Alice",
	})
	bus.WaitAsync()

	req := obs.nextRequest()
	if req.Op != opRequest {
		t.Fatalf("op = %d, want %d", req.Op, opRequest)
	}
	if got := req.D["requestType"]; got != "SetInputSettings" {
		t.Errorf("requestType = %v", got)
	}
	data, _ := req.D["requestData"].(map[string]interface{})
	if got := data["inputName"]; got != "donation-text" {
		t.Errorf("inputName = %v", got)
	}
	settings, _ := data["inputSettings"].(map[string]interface{})
	text, _ := settings["text"].(string)
	if !strings.Contains(text, "Alice") || !strings.Contains(text, "2 waiting") {
		t.Errorf("text = %q", text)
	}
}

func TestSetTextReconnectsAfterStaleConnection(t *testing.T) {
	obs := newFakeOBS(t, "")
	c := New(obs.clientConfig(), nil)
	defer c.Close()

	if err := c.setText("first"); err != nil {
		t.Fatalf("setText: %v", err)
	}
	obs.nextRequest()

	// kill the socket underneath the client without telling it
	c.mu.Lock()
	c.conn.Close()
	c.mu.Unlock()

	if err := c.setText("lost"); err == nil {
		t.Fatal("expected a write failure on the dead connection")
	}
	if err := c.setText("second"); err != nil {
		t.Fatalf("setText after reconnect: %v", err)
	}
	req := obs.nextRequest()
	data, _ := req.D["requestData"].(map[string]interface{})
	settings, _ := data["inputSettings"].(map[string]interface{})
	if got, _ := settings["text"].(string); got != "second" {
		t.Errorf("text = %q, want %q", got, "second")
	}
}

func TestQueueUpdateFailureDoesNotPropagate(t *testing.T) {
	// a port nothing listens on
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	c := New(config.OverlayConfig{
		Enabled: true, Host: "127.0.0.1", Port: port, TextSource: "donation-text",
	}, nil)
	defer c.Close()

	bus := eventbus.New()
	if err := c.Attach(bus); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	bus.Publish(eventbus.EventQueueUpdated, eventbus.QueueUpdatedData{Pending: 1})
	bus.WaitAsync()

	if err := c.Close(); err != nil {
		t.Errorf("Close after failed update: %v", err)
	}
}
