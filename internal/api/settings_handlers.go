package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/mailparse"
	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/service"
)

// settingsHandler serves the workspace catalogs: canned responses, promo
// codes, resources, and brands.
type settingsHandler struct {
	canned    *service.CannedResponses
	promos    repository.PromoCodeRepository
	resources repository.ResourceRepository
	brands    repository.BrandRepository
}

type cannedRequest struct {
	Title    string `json:"title" binding:"required"`
	Shortcut string `json:"shortcut" binding:"required"`
	Body     string `json:"body" binding:"required"`
}

func (h *settingsHandler) listCanned(c *gin.Context) {
	responses, err := h.canned.List(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"canned_responses": responses})
}

func (h *settingsHandler) createCanned(c *gin.Context) {
	var req cannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	response := &models.CannedResponse{Title: req.Title, Shortcut: req.Shortcut, Body: req.Body}
	if err := h.canned.Create(c.Request.Context(), response); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}

func (h *settingsHandler) getCanned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	response, err := h.canned.Get(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *settingsHandler) updateCanned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	response := &models.CannedResponse{ID: id, Title: req.Title, Shortcut: req.Shortcut, Body: req.Body}
	if err := h.canned.Update(c.Request.Context(), response); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *settingsHandler) deleteCanned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.canned.Delete(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *settingsHandler) useCanned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	response, err := h.canned.Use(c.Request.Context(), id)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

type promoCodeRequest struct {
	Code        string     `json:"code" binding:"required"`
	Description string     `json:"description"`
	Kind        string     `json:"kind"`
	Value       int64      `json:"value"`
	ExpiresAt   *time.Time `json:"expires_at"`
	Active      *bool      `json:"active"`
}

func (r promoCodeRequest) toModel() (*models.PromoCode, string) {
	kind := r.Kind
	if kind == "" {
		kind = "percent"
	}
	if kind != "percent" && kind != "fixed" {
		return nil, "kind must be percent or fixed"
	}
	if r.Value < 0 {
		return nil, "value must not be negative"
	}
	code := &models.PromoCode{
		Code:        strings.ToUpper(strings.TrimSpace(r.Code)),
		Description: r.Description,
		Kind:        kind,
		Value:       r.Value,
		ExpiresAt:   r.ExpiresAt,
		Active:      true,
	}
	if r.Active != nil {
		code.Active = *r.Active
	}
	return code, ""
}

func (h *settingsHandler) listPromoCodes(c *gin.Context) {
	codes, err := h.promos.List(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promo_codes": codes})
}

func (h *settingsHandler) createPromoCode(c *gin.Context) {
	var req promoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := h.promos.Create(c.Request.Context(), code); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (h *settingsHandler) updatePromoCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req promoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	code, msg := req.toModel()
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	code.ID = id
	if err := h.promos.Update(c.Request.Context(), code); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

func (h *settingsHandler) deletePromoCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.promos.Delete(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resourceRequest struct {
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

func (h *settingsHandler) listResources(c *gin.Context) {
	resources, err := h.resources.List(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

func (h *settingsHandler) createResource(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resource := &models.Resource{Title: req.Title, URL: req.URL, Category: req.Category, Notes: req.Notes}
	if err := h.resources.Create(c.Request.Context(), resource); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

func (h *settingsHandler) updateResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resource := &models.Resource{ID: id, Title: req.Title, URL: req.URL, Category: req.Category, Notes: req.Notes}
	if err := h.resources.Update(c.Request.Context(), resource); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, resource)
}

func (h *settingsHandler) deleteResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.resources.Delete(c.Request.Context(), id); err != nil {
		respondRepoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type brandRequest struct {
	Name           string `json:"name" binding:"required"`
	InboundAddress string `json:"inbound_address" binding:"required,email"`
	FromAddress    string `json:"from_address" binding:"required,email"`
	Active         *bool  `json:"active"`
}

func (h *settingsHandler) listBrands(c *gin.Context) {
	brands, err := h.brands.List(c.Request.Context())
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

func (h *settingsHandler) createBrand(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	brand := &models.Brand{
		Name:           req.Name,
		InboundAddress: mailparse.NormalizeEmail(req.InboundAddress),
		FromAddress:    mailparse.NormalizeEmail(req.FromAddress),
		Active:         true,
	}
	if req.Active != nil {
		brand.Active = *req.Active
	}
	if err := h.brands.Create(c.Request.Context(), brand); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, brand)
}
