package webapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donotts-server-go/internal/domain/queue"
	"donotts-server-go/internal/platform/storage"
)

type stubQueue struct {
	entries      []storage.DonationEntry
	advanceRes   *queue.Result
	advanceErr   error
	skipRes      *queue.Result
	cancelActive bool
	stats        storage.QueueStats
	enqueueErr   error
}

func (s *stubQueue) Enqueue(_ context.Context, username, message string, amount float64, tier string) (*storage.DonationEntry, error) {
	if s.enqueueErr != nil {
		return nil, s.enqueueErr
	}
	entry := storage.DonationEntry{
		ID: uint(len(s.entries) + 1), Username: username, Message: message,
		Amount: amount, Tier: tier, State: storage.StateQueued, EnqueuedAt: time.Now(),
	}
	s.entries = append(s.entries, entry)
	return &entry, nil
}

func (s *stubQueue) Advance(context.Context) (*queue.Result, error) {
	return s.advanceRes, s.advanceErr
}
func (s *stubQueue) Skip(context.Context) (*queue.Result, error) { return s.skipRes, nil }
func (s *stubQueue) CancelAdvance() bool                         { return s.cancelActive }
func (s *stubQueue) Pending(context.Context, int) ([]storage.DonationEntry, error) {
	return s.entries, nil
}
func (s *stubQueue) Stats(context.Context) (storage.QueueStats, error) { return s.stats, nil }

func newTestRouter(q QueueService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewService(q, nil).Register(engine.Group("/api"))
	return engine
}

func doRequest(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestDonationCreate(t *testing.T) {
	engine := newTestRouter(&stubQueue{})

	w := doRequest(engine, http.MethodPost, "/api/donations",
		`{"username":"Alice","message":"hello chat","amount":5,"tier":"vip"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"Alice"`)
	assert.Contains(t, w.Body.String(), `"state":"queued"`)
}

func TestDonationCreateRejectsMissingFields(t *testing.T) {
	engine := newTestRouter(&stubQueue{})

	w := doRequest(engine, http.MethodPost, "/api/donations", `{"amount":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/donations", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueAdvanceOutcomes(t *testing.T) {
	entry := &storage.DonationEntry{ID: 7, Username: "Alice", Message: "m", State: storage.StatePlayed}

	tests := []struct {
		name     string
		res      *queue.Result
		wantCode int
		wantBody string
	}{
		{"played", &queue.Result{Outcome: queue.OutcomePlayed, Entry: entry, Duration: 1200 * time.Millisecond},
			http.StatusOK, `"outcome":"played"`},
		{"failed", &queue.Result{Outcome: queue.OutcomeFailed, Entry: entry, Reason: "exhausted"},
			http.StatusOK, `"reason":"exhausted"`},
		{"busy", &queue.Result{Outcome: queue.OutcomeBusy},
			http.StatusConflict, `"success":false`},
		{"empty", &queue.Result{Outcome: queue.OutcomeEmpty},
			http.StatusOK, "queue is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestRouter(&stubQueue{advanceRes: tt.res})
			w := doRequest(engine, http.MethodPost, "/api/queue/advance", "")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestQueueAdvanceCancelled(t *testing.T) {
	engine := newTestRouter(&stubQueue{advanceErr: context.Canceled})
	w := doRequest(engine, http.MethodPost, "/api/queue/advance", "")
	assert.Equal(t, statusClientClosedRequest, w.Code)
}

func TestQueueList(t *testing.T) {
	q := &stubQueue{}
	_, err := q.Enqueue(context.Background(), "Alice", "hello", 5, "default")
	require.NoError(t, err)
	engine := newTestRouter(q)

	w := doRequest(engine, http.MethodGet, "/api/queue", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestQueueStats(t *testing.T) {
	engine := newTestRouter(&stubQueue{stats: storage.QueueStats{Played: 4, TotalAmount: 20.5}})

	w := doRequest(engine, http.MethodGet, "/api/queue/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"played":4`)
	assert.Contains(t, w.Body.String(), `"total_amount":20.5`)
}

func TestQueueCancel(t *testing.T) {
	engine := newTestRouter(&stubQueue{cancelActive: true})
	w := doRequest(engine, http.MethodPost, "/api/queue/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancelled":true`)

	engine = newTestRouter(&stubQueue{cancelActive: false})
	w = doRequest(engine, http.MethodPost, "/api/queue/cancel", "")
	assert.Contains(t, w.Body.String(), `"cancelled":false`)
}

func TestHealth(t *testing.T) {
	engine := newTestRouter(&stubQueue{})
	w := doRequest(engine, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
