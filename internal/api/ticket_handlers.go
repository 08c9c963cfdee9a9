package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/service"
)

type ticketHandler struct {
	svc    *service.Tickets
	tags   repository.TagRepository
	logger *log.Logger
}

func (h *ticketHandler) list(c *gin.Context) {
	filter := repository.TicketFilter{
		Status:   models.TicketStatus(c.Query("status")),
		Channel:  models.Channel(c.Query("channel")),
		Priority: models.TicketPriority(c.Query("priority")),
	}
	if v := c.Query("customer_id"); v != "" {
		filter.CustomerID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.Query("assignee_id"); v != "" {
		filter.AssigneeID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := c.Query("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := c.Query("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	tickets, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing tickets failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *ticketHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type createTicketRequest struct {
	Subject       string                `json:"subject" binding:"required"`
	Body          string                `json:"body"`
	CustomerEmail string                `json:"customer_email" binding:"required"`
	CustomerName  string                `json:"customer_name"`
	Priority      models.TicketPriority `json:"priority"`
	AssigneeID    *int64                `json:"assignee_id"`
}

func (h *ticketHandler) create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ticket, err := h.svc.CreateManual(c.Request.Context(), service.CreateManualInput{
		Subject:       req.Subject,
		Body:          req.Body,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
		Priority:      req.Priority,
		AssigneeID:    req.AssigneeID,
		AgentID:       agentID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

type updateTicketRequest struct {
	Subject       *string    `json:"subject"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	AssigneeID    *int64     `json:"assignee_id"`
	ClearAssignee bool       `json:"clear_assignee"`
	SnoozedUntil  *time.Time `json:"snoozed_until"`
}

func (h *ticketHandler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := service.UpdateInput{
		Subject:       req.Subject,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
		SnoozedUntil:  req.SnoozedUntil,
	}
	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		in.Status = &status
	}
	if req.Priority != nil {
		priority := models.TicketPriority(*req.Priority)
		in.Priority = &priority
	}
	if req.SnoozedUntil != nil {
		by := agentID(c)
		in.SnoozedBy = &by
	}
	ticket, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *ticketHandler) messages(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	messages, err := h.svc.Messages(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type replyRequest struct {
	Content  string `json:"content" binding:"required"`
	Internal bool   `json:"internal"`
}

func (h *ticketHandler) reply(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	message, err := h.svc.Reply(c.Request.Context(), id, agentID(c), req.Content, req.Internal)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

type mergeRequest struct {
	TargetID int64 `json:"target_id" binding:"required"`
}

func (h *ticketHandler) merge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := h.svc.Merge(c.Request.Context(), id, req.TargetID, agentID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

// autoTag re-runs tag classification against the latest conversation content.
func (h *ticketHandler) autoTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ticket, subject, body, err := h.classificationInput(c, id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	tagIDs, err := h.svc.Classifier().ApplyTags(c.Request.Context(), ticket.ID, subject, body)
	if err != nil {
		h.logger.Printf("auto-tag on ticket %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "auto-tag failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched_tag_ids": tagIDs})
}

func (h *ticketHandler) autoPriority(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ticket, subject, body, err := h.classificationInput(c, id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	if err := h.svc.Classifier().ApplyPriority(c.Request.Context(), ticket.ID, subject, body, ticket.Priority); err != nil {
		h.logger.Printf("auto-priority on ticket %d failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "auto-priority failed"})
		return
	}
	updated, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"priority": updated.Priority})
}

// classificationInput gathers the text the keyword rules run against: the
// ticket subject plus the first customer message body.
func (h *ticketHandler) classificationInput(c *gin.Context, id int64) (*models.Ticket, string, string, error) {
	ticket, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		return nil, "", "", err
	}
	messages, err := h.svc.Messages(c.Request.Context(), id)
	if err != nil {
		return nil, "", "", err
	}
	var body string
	for _, m := range messages {
		if m.SenderType == models.SenderCustomer {
			body = m.Content
			break
		}
	}
	return ticket, ticket.Subject, body, nil
}

func (h *ticketHandler) attachTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(c, "tagID")
	if !ok {
		return
	}
	if err := h.tags.Attach(c.Request.Context(), id, tagID); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ticketHandler) detachTag(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tagID, ok := pathID(c, "tagID")
	if !ok {
		return
	}
	if err := h.tags.Detach(c.Request.Context(), id, tagID); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondRepoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrInvalidChannel),
		errors.Is(err, service.ErrSelfMerge),
		errors.Is(err, service.ErrMergedTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
