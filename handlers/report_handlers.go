package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moodping/api/middleware"
	"moodping/api/services"
)

type ReportHandlers struct {
	Reports *services.ReportService
}

func NewReportHandlers(reports *services.ReportService) *ReportHandlers {
	return &ReportHandlers{Reports: reports}
}

func (h *ReportHandlers) LatestWeekly(c *gin.Context) {
	var userID *int64
	if id, ok := middleware.UserIDFrom(c); ok {
		userID = &id
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.Reports.LatestWeekly(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to build weekly report")
		return
	}
	c.JSON(http.StatusOK, resp)
}
