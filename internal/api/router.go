// Package api wires the HTTP surface: the inbound email webhook, the agent
// REST API, and the operational endpoints.
package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskhive/deskhive/internal/metrics"
	"github.com/deskhive/deskhive/internal/presence"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/service"
)

// Deps carries everything the handlers need. All dependencies are injected;
// nothing here reaches for globals.
type Deps struct {
	Ingestion  *service.Ingestion
	Tickets    *service.Tickets
	Canned     *service.CannedResponses
	Tags       repository.TagRepository
	Rules      repository.RuleRepository
	Brands     repository.BrandRepository
	PromoCodes repository.PromoCodeRepository
	Resources  repository.ResourceRepository
	Presence   presence.Tracker
	Metrics    *metrics.Metrics
	JWTSecret  string
	Logger     *log.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The relay probes the webhook path with GET/HEAD before delivering.
	inbound := newInboundHandler(deps.Ingestion, deps.Metrics, deps.Logger)
	r.POST("/webhooks/inbound-email", inbound.receive)
	r.GET("/webhooks/inbound-email", inbound.probe)
	r.HEAD("/webhooks/inbound-email", inbound.probe)

	tickets := &ticketHandler{svc: deps.Tickets, tags: deps.Tags, logger: deps.Logger}
	tagsH := &tagHandler{tags: deps.Tags}
	rulesH := &ruleHandler{rules: deps.Rules}
	settings := &settingsHandler{canned: deps.Canned, promos: deps.PromoCodes, resources: deps.Resources, brands: deps.Brands}
	presenceH := &presenceHandler{tracker: deps.Presence}

	v1 := r.Group("/api/v1")
	v1.Use(requireAgent(deps.JWTSecret))
	{
		v1.GET("/tickets", tickets.list)
		v1.POST("/tickets", tickets.create)
		v1.GET("/tickets/:id", tickets.get)
		v1.PATCH("/tickets/:id", tickets.update)
		v1.GET("/tickets/:id/messages", tickets.messages)
		v1.POST("/tickets/:id/messages", tickets.reply)
		v1.POST("/tickets/:id/merge", tickets.merge)
		v1.POST("/tickets/:id/auto-tag", tickets.autoTag)
		v1.POST("/tickets/:id/auto-priority", tickets.autoPriority)
		v1.POST("/tickets/:id/tags/:tagID", tickets.attachTag)
		v1.DELETE("/tickets/:id/tags/:tagID", tickets.detachTag)

		v1.GET("/tickets/:id/presence", presenceH.viewers)
		v1.POST("/tickets/:id/presence", presenceH.heartbeat)

		v1.GET("/tags", tagsH.list)
		v1.POST("/tags", tagsH.create)
		v1.PATCH("/tags/:id", tagsH.update)
		v1.DELETE("/tags/:id", tagsH.remove)

		v1.GET("/rules/tags", rulesH.listTagRules)
		v1.POST("/rules/tags", rulesH.createTagRule)
		v1.PATCH("/rules/tags/:id", rulesH.updateTagRule)
		v1.DELETE("/rules/tags/:id", rulesH.deleteTagRule)
		v1.GET("/rules/priorities", rulesH.listPriorityRules)
		v1.POST("/rules/priorities", rulesH.createPriorityRule)
		v1.PATCH("/rules/priorities/:id", rulesH.updatePriorityRule)
		v1.DELETE("/rules/priorities/:id", rulesH.deletePriorityRule)

		v1.GET("/canned-responses", settings.listCanned)
		v1.POST("/canned-responses", settings.createCanned)
		v1.GET("/canned-responses/:id", settings.getCanned)
		v1.PATCH("/canned-responses/:id", settings.updateCanned)
		v1.DELETE("/canned-responses/:id", settings.deleteCanned)
		v1.POST("/canned-responses/:id/use", settings.useCanned)

		v1.GET("/promo-codes", settings.listPromoCodes)
		v1.POST("/promo-codes", settings.createPromoCode)
		v1.PATCH("/promo-codes/:id", settings.updatePromoCode)
		v1.DELETE("/promo-codes/:id", settings.deletePromoCode)

		v1.GET("/resources", settings.listResources)
		v1.POST("/resources", settings.createResource)
		v1.PATCH("/resources/:id", settings.updateResource)
		v1.DELETE("/resources/:id", settings.deleteResource)

		v1.GET("/brands", settings.listBrands)
		v1.POST("/brands", settings.createBrand)
	}
	return r
}
