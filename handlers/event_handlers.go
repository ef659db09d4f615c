package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"moodping/api/analytics"
	"moodping/api/metrics"
	"moodping/api/models"
	"moodping/api/store"
)

const maxBatchEvents = 100

type EventHandlers struct {
	Events store.EventStore
	Engine *analytics.Engine
	now    func() time.Time
}

func NewEventHandlers(events store.EventStore, engine *analytics.Engine) *EventHandlers {
	return &EventHandlers{Events: events, Engine: engine, now: time.Now}
}

// LogEvent stores one funnel event. Re-sending an event_id is not an error.
func (h *EventHandlers) LogEvent(c *gin.Context) {
	var req models.EventLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	ev, err := req.ToEvent(h.now())
	if err != nil {
		respondError(c, err, "Failed to record event")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	inserted, err := h.Events.Append(ctx, ev)
	if err != nil {
		respondError(c, err, "Failed to record event")
		return
	}
	metrics.RecordEventIngested(inserted)

	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok", Recorded: inserted})
}

// LogEvents stores a batch of events sent by the client in one request.
// The whole batch is validated before anything is written.
func (h *EventHandlers) LogEvents(c *gin.Context) {
	var reqs []models.EventLogRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(reqs) > maxBatchEvents {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many events in one batch"})
		return
	}

	now := h.now()
	events := make([]models.Event, 0, len(reqs))
	for i, req := range reqs {
		ev, err := req.ToEvent(now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		events = append(events, ev)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	recorded := 0
	for _, ev := range events {
		inserted, err := h.Events.Append(ctx, ev)
		if err != nil {
			respondError(c, err, "Failed to record events")
			return
		}
		metrics.RecordEventIngested(inserted)
		if inserted {
			recorded++
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received": len(events), "recorded": recorded})
}

// DebugMetrics returns funnel and retention figures. threshold and days
// override the configured values for one request.
func (h *EventHandlers) DebugMetrics(c *gin.Context) {
	opts := h.Engine.Options()
	threshold, ok := nonNegativeQuery(c, "threshold", opts.DropThresholdMinutes)
	if !ok {
		return
	}
	days, ok := nonNegativeQuery(c, "days", opts.RetentionDays)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	snap, err := h.Engine.MetricsWith(ctx, threshold, days)
	if err != nil {
		respondError(c, err, "Failed to compute metrics")
		return
	}

	log.WithFields(log.Fields{"threshold": threshold, "days": days}).Debug("Served debug metrics")
	c.JSON(http.StatusOK, snap)
}

func nonNegativeQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'" + key + "' must be a non-negative integer"})
		return 0, false
	}
	return v, true
}
