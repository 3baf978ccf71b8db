// Package webapi exposes the donation queue over HTTP: accepting donations,
// advancing and skipping the queue, and reporting stats and health.
package webapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"donotts-server-go/internal/domain/queue"
	"donotts-server-go/internal/platform/logging"
	"donotts-server-go/internal/platform/storage"
	httptransport "donotts-server-go/internal/transport/http"
)

// statusClientClosedRequest mirrors nginx's code for a request aborted by
// the caller; used when an advance is cancelled mid-flight.
const statusClientClosedRequest = 499

// QueueService is the slice of the queue controller the API needs.
type QueueService interface {
	Enqueue(ctx context.Context, username, message string, amount float64, tier string) (*storage.DonationEntry, error)
	Advance(ctx context.Context) (*queue.Result, error)
	Skip(ctx context.Context) (*queue.Result, error)
	CancelAdvance() bool
	Pending(ctx context.Context, limit int) ([]storage.DonationEntry, error)
	Stats(ctx context.Context) (storage.QueueStats, error)
}

type Service struct {
	queue QueueService
	log   *logging.Logger
	start time.Time
}

func NewService(queue QueueService, log *logging.Logger) *Service {
	return &Service{queue: queue, log: log, start: time.Now()}
}

func (s *Service) Register(router *gin.RouterGroup) {
	router.POST("/donations", s.handleDonationCreate)
	router.GET("/queue", s.handleQueueList)
	router.GET("/queue/stats", s.handleQueueStats)
	router.POST("/queue/advance", s.handleQueueAdvance)
	router.POST("/queue/skip", s.handleQueueSkip)
	router.POST("/queue/cancel", s.handleQueueCancel)
	router.GET("/health", s.handleHealth)
}

type donationRequest struct {
	Username string  `json:"username" binding:"required"`
	Message  string  `json:"message" binding:"required"`
	Amount   float64 `json:"amount"`
	Tier     string  `json:"tier"`
}

// entryView is the wire shape of a queue entry.
type entryView struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Message    string    `json:"message"`
	Amount     float64   `json:"amount"`
	Tier       string    `json:"tier"`
	State      string    `json:"state"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func toEntryView(e *storage.DonationEntry) entryView {
	return entryView{
		ID:         e.ID,
		Username:   e.Username,
		Message:    e.Message,
		Amount:     e.Amount,
		Tier:       e.Tier,
		State:      e.State,
		LastError:  e.LastError,
		EnqueuedAt: e.EnqueuedAt,
	}
}

func (s *Service) handleDonationCreate(c *gin.Context) {
	var req donationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid donation payload: "+err.Error(), nil)
		return
	}

	entry, err := s.queue.Enqueue(c.Request.Context(), req.Username, req.Message, req.Amount, req.Tier)
	if err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, toEntryView(entry), "donation queued")
}

func (s *Service) handleQueueList(c *gin.Context) {
	entries, err := s.queue.Pending(c.Request.Context(), 100)
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	views := make([]entryView, len(entries))
	for i := range entries {
		views[i] = toEntryView(&entries[i])
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"pending": views, "count": len(views)}, "")
}

func (s *Service) handleQueueStats(c *gin.Context) {
	stats, err := s.queue.Stats(c.Request.Context())
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, stats, "")
}

func (s *Service) handleQueueAdvance(c *gin.Context) {
	res, err := s.queue.Advance(c.Request.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			httptransport.RespondError(c, statusClientClosedRequest, "advance cancelled", nil)
			return
		}
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	s.respondResult(c, res)
}

func (s *Service) handleQueueSkip(c *gin.Context) {
	res, err := s.queue.Skip(c.Request.Context())
	if err != nil {
		httptransport.RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	s.respondResult(c, res)
}

func (s *Service) respondResult(c *gin.Context, res *queue.Result) {
	switch res.Outcome {
	case queue.OutcomeBusy:
		httptransport.RespondError(c, http.StatusConflict, "an entry is already being played", nil)
	case queue.OutcomeEmpty:
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{"outcome": res.Outcome}, "queue is empty")
	default:
		data := gin.H{
			"outcome":     res.Outcome,
			"entry":       toEntryView(res.Entry),
			"duration_ms": res.Duration.Milliseconds(),
		}
		if res.Reason != "" {
			data["reason"] = res.Reason
		}
		httptransport.RespondSuccess(c, http.StatusOK, data, "")
	}
}

func (s *Service) handleQueueCancel(c *gin.Context) {
	if s.queue.CancelAdvance() {
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{"cancelled": true}, "advance cancelled")
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, gin.H{"cancelled": false}, "nothing in flight")
}

func (s *Service) handleHealth(c *gin.Context) {
	health := gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.start).Seconds()),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		health["cpu_percent"] = percents[0]
	}
	httptransport.RespondSuccess(c, http.StatusOK, health, "")
}
