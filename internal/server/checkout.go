package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/taxbridge/internal/checkout"
)

type calculateRequest struct {
	ChannelID string            `json:"channel_id"`
	Behavior  checkout.Behavior `json:"behavior"`
	Cart      *checkout.Cart    `json:"cart"`
}

// CalculateCart runs one tax reconciliation pass over the submitted cart and
// returns the mutated cart. The original snapshot used for baselines is taken
// here, before the engine touches anything.
func (s *Server) CalculateCart(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.Cart == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	channelID, err := snowflake.ParseString(strings.TrimSpace(req.ChannelID))
	if err != nil || channelID == 0 {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	original := req.Cart.Clone()
	s.engine.Process(c.Request.Context(), req.Cart, original, channelID, req.Behavior)

	c.JSON(http.StatusOK, gin.H{"data": req.Cart})
}
