package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taxbridge/internal/events"
)

// CustomerWritten receives the host platform's customer write notification.
// Sync runs inline; the handler answers once the batch completed best effort.
func (s *Server) CustomerWritten(c *gin.Context) {
	var ev events.CustomerWrittenEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	s.syncer.OnCustomerWritten(c.Request.Context(), ev)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// OrderWritten receives order write notifications for marker propagation.
func (s *Server) OrderWritten(c *gin.Context) {
	var ev events.OrderWrittenEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	s.markers.OnOrderWritten(c.Request.Context(), ev)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
