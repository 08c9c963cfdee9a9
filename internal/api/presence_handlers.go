package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/presence"
)

type presenceHandler struct {
	tracker presence.Tracker
}

type heartbeatRequest struct {
	Typing bool `json:"typing"`
}

func (h *presenceHandler) heartbeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req heartbeatRequest
	// An empty body is a plain "still viewing" heartbeat.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	viewer := models.Viewer{
		TicketID:  id,
		AgentID:   agentID(c),
		AgentName: agentName(c),
		Typing:    req.Typing,
	}
	if err := h.tracker.Heartbeat(c.Request.Context(), viewer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence unavailable"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *presenceHandler) viewers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	viewers, err := h.tracker.Viewers(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "presence unavailable"})
		return
	}
	if viewers == nil {
		viewers = []models.Viewer{}
	}
	c.JSON(http.StatusOK, gin.H{"viewers": viewers})
}
