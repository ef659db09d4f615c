package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"moodping/api/middleware"
	"moodping/api/models"
	"moodping/api/services"
)

type MoodHandlers struct {
	Moods *services.MoodService
}

func NewMoodHandlers(moods *services.MoodService) *MoodHandlers {
	return &MoodHandlers{Moods: moods}
}

// CreateMoodRecord saves a record and returns it with the analysis, if one
// could be produced.
func (h *MoodHandlers) CreateMoodRecord(c *gin.Context) {
	var req models.MoodRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var userID *string
	if id, ok := middleware.UserIDFrom(c); ok {
		s := strconv.FormatInt(id, 10)
		userID = &s
	}

	// Covers the LLM timeout plus both writes.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.Moods.SaveAndAnalyze(ctx, req, userID)
	if err != nil {
		respondError(c, err, "Failed to save mood record")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *MoodHandlers) RecentRecords(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	records, err := h.Moods.RecentRecords(ctx)
	if err != nil {
		respondError(c, err, "Failed to load recent records")
		return
	}
	c.JSON(http.StatusOK, records)
}

// LinkData moves records made before login to the logged-in user. With a
// valid token the user comes from the token, not the body.
func (h *MoodHandlers) LinkData(c *gin.Context) {
	var req models.LinkDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if userID, ok := middleware.UserIDFrom(c); ok {
		req.UserID = strconv.FormatInt(userID, 10)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Moods.LinkAnonToUser(ctx, req)
	if err != nil {
		respondError(c, err, "Failed to link records")
		return
	}
	c.JSON(http.StatusOK, resp)
}
