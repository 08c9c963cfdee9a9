package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/service"
)

// inboundHandler receives email deliveries from the relay. The relay treats
// any non-2xx as a delivery failure and retries, so internal errors are logged
// and acknowledged; only a missing sender is rejected as the relay's fault.
type inboundHandler struct {
	ingestion *service.Ingestion
	metrics   *metrics.Metrics
	logger    *log.Logger
}

func newInboundHandler(ingestion *service.Ingestion, m *metrics.Metrics, logger *log.Logger) *inboundHandler {
	return &inboundHandler{ingestion: ingestion, metrics: m, logger: logger}
}

func (h *inboundHandler) receive(c *gin.Context) {
	in := service.InboundEmail{
		From:    c.PostForm("from"),
		To:      c.PostForm("to"),
		Subject: c.PostForm("subject"),
		Text:    c.PostForm("text"),
		HTML:    c.PostForm("html"),
		Headers: c.PostForm("headers"),
	}
	// Some relays post the full MIME message instead of parsed fields.
	if file, err := c.FormFile("email"); err == nil {
		f, oerr := file.Open()
		if oerr == nil {
			raw, rerr := io.ReadAll(f)
			f.Close()
			if rerr == nil {
				in.RawMessage = raw
			}
		}
	} else if raw := c.PostForm("email"); raw != "" {
		in.RawMessage = []byte(raw)
	}
	if encoded := c.PostForm("attachments"); encoded != "" {
		var attachments []models.Attachment
		if err := json.Unmarshal([]byte(encoded), &attachments); err != nil {
			h.logger.Printf("inbound email: unreadable attachments field: %v", err)
		} else {
			in.Attachments = attachments
		}
	}

	result, err := h.ingestion.Process(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrMissingSender) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "sender address required"})
			return
		}
		h.logger.Printf("inbound email processing failed: %v", err)
		if h.metrics != nil {
			h.metrics.IngestFailures.Inc()
		}
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	if h.metrics != nil {
		h.metrics.IngestTotal.WithLabelValues(result.Action).Inc()
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"action":       result.Action,
		"ticketId":     result.TicketID,
		"ticketNumber": result.TicketNumber,
	})
}

// probe answers the relay's reachability checks.
func (h *inboundHandler) probe(c *gin.Context) {
	c.Status(http.StatusOK)
}
