package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

type ruleHandler struct {
	rules repository.RuleRepository
}

type tagRuleRequest struct {
	Name         string   `json:"name" binding:"required"`
	Keywords     []string `json:"keywords" binding:"required,min=1"`
	MatchSubject bool     `json:"match_subject"`
	MatchBody    bool     `json:"match_body"`
	TagID        int64    `json:"tag_id" binding:"required"`
	Active       *bool    `json:"active"`
}

func (r tagRuleRequest) toModel() (*models.AutoTagRule, string) {
	if !r.MatchSubject && !r.MatchBody {
		return nil, "rule must match subject, body, or both"
	}
	rule := &models.AutoTagRule{
		Name:         r.Name,
		Keywords:     r.Keywords,
		MatchSubject: r.MatchSubject,
		MatchBody:    r.MatchBody,
		TagID:        r.TagID,
		Active:       true,
	}
	if r.Active != nil {
		rule.Active = *r.Active
	}
	return rule, ""
}

func (h *ruleHandler) listTagRules(c *gin.Context) {
	rules, err := h.rules.ListTagRules(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *ruleHandler) createTagRule(c *gin.Context) {
	var req tagRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := h.rules.CreateTagRule(c.Request.Context(), rule); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *ruleHandler) updateTagRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req tagRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	rule.ID = id
	if err := h.rules.UpdateTagRule(c.Request.Context(), rule); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *ruleHandler) deleteTagRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rules.DeleteTagRule(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type priorityRuleRequest struct {
	Name      string   `json:"name" binding:"required"`
	Keywords  []string `json:"keywords" binding:"required,min=1"`
	MatchMode string   `json:"match_mode"`
	Priority  string   `json:"priority" binding:"required"`
	Active    *bool    `json:"active"`
}

func (r priorityRuleRequest) toModel() (*models.AutoPriorityRule, string) {
	mode := models.MatchMode(r.MatchMode)
	if mode == "" {
		mode = models.MatchAny
	}
	if mode != models.MatchAny && mode != models.MatchAll {
		return nil, "match_mode must be any or all"
	}
	priority := models.TicketPriority(r.Priority)
	if !priority.Valid() {
		return nil, "invalid priority"
	}
	rule := &models.AutoPriorityRule{
		Name:      r.Name,
		Keywords:  r.Keywords,
		MatchMode: mode,
		Priority:  priority,
		Active:    true,
	}
	if r.Active != nil {
		rule.Active = *r.Active
	}
	return rule, ""
}

func (h *ruleHandler) listPriorityRules(c *gin.Context) {
	rules, err := h.rules.ListPriorityRules(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (h *ruleHandler) createPriorityRule(c *gin.Context) {
	var req priorityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := h.rules.CreatePriorityRule(c.Request.Context(), rule); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *ruleHandler) updatePriorityRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req priorityRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	rule.ID = id
	if err := h.rules.UpdatePriorityRule(c.Request.Context(), rule); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *ruleHandler) deletePriorityRule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rules.DeletePriorityRule(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
