package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

type tagHandler struct {
	tags repository.TagRepository
}

func (h *tagHandler) list(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

type tagRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (h *tagHandler) create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag := &models.Tag{Name: req.Name, Color: req.Color}
	if tag.Color == "" {
		tag.Color = "#888888"
	}
	if err := h.tags.Create(c.Request.Context(), tag); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *tagHandler) update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tag, err := h.tags.GetByID(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	tag.Name = req.Name
	if req.Color != "" {
		tag.Color = req.Color
	}
	if err := h.tags.Update(c.Request.Context(), tag); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *tagHandler) remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tags.Delete(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
