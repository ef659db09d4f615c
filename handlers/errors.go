package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"moodping/api/middleware"
	"moodping/api/models"
	"moodping/api/store"
)

// respondError maps service errors to a status code; msg is what a 500 shows.
func respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		log.WithField("request_id", middleware.RequestIDFrom(c)).Errorf("%s: %v", msg, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
