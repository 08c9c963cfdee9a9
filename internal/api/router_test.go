package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/presence"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/repository/memory"
	"github.com/deskhive/deskhive/internal/service"
)

const testSecret = "test-secret"

type apiFixture struct {
	router    *gin.Engine
	customers *memory.CustomerRepository
	tickets   repository.TicketRepository
	messages  *memory.MessageRepository
	tags      *memory.TagRepository
	rules     *memory.RuleRepository
	token     string
}

func newAPIFixture(t *testing.T) *apiFixture {
	return newAPIFixtureWithTickets(t, memory.NewTicketRepository())
}

func newAPIFixtureWithTickets(t *testing.T, tickets repository.TicketRepository) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		customers: memory.NewCustomerRepository(),
		tickets:   tickets,
		messages:  memory.NewMessageRepository(),
		tags:      memory.NewTagRepository(),
		rules:     memory.NewRuleRepository(),
	}
	brands := memory.NewBrandRepository()
	canned := memory.NewCannedResponseRepository()
	promos := memory.NewPromoCodeRepository()
	resources := memory.NewResourceRepository()

	logger := log.New(io.Discard, "", 0)
	classifier := service.NewClassifier(f.rules, f.tags, f.tickets, logger)
	ingestion := service.NewIngestion(f.customers, f.tickets, f.messages, brands, classifier, logger)
	ticketSvc := service.NewTickets(f.tickets, f.messages, f.customers, f.tags, classifier, logger)

	f.router = NewRouter(Deps{
		Ingestion:  ingestion,
		Tickets:    ticketSvc,
		Canned:     service.NewCannedResponses(canned),
		Tags:       f.tags,
		Rules:      f.rules,
		Brands:     brands,
		PromoCodes: promos,
		Resources:  resources,
		Presence:   presence.NewMemoryTracker(time.Minute),
		JWTSecret:  testSecret,
		Logger:     logger,
	})
	f.token = mintToken(t, testSecret, "7", "Ann Agent")
	return f
}

func mintToken(t *testing.T, secret, subject, name string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"name": name,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (f *apiFixture) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+f.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthRequired(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tickets", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrongKey := mintToken(t, "other-secret", "7", "Mallory")
	req.Header.Set("Authorization", "Bearer "+wrongKey)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthzIsPublic(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTicketLifecycleOverAPI(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/tickets", gin.H{
		"subject":        "Manual ticket",
		"body":           "Created from a phone call",
		"customer_email": "caller@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	id := int64(created["id"].(float64))
	require.Positive(t, id)

	w = f.request(t, http.MethodGet, "/api/v1/tickets", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Len(t, list["tickets"], 1)

	w = f.request(t, http.MethodPatch, "/api/v1/tickets/1", gin.H{"priority": "high"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "high", decode(t, w)["priority"])

	w = f.request(t, http.MethodPost, "/api/v1/tickets/1/messages", gin.H{
		"content":  "Internal context",
		"internal": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/tickets/1/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := decode(t, w)["messages"].([]any)
	assert.Len(t, messages, 2)
}

func TestTicketUpdateRejectsBadStatus(t *testing.T) {
	f := newAPIFixture(t)
	f.seedTicket(t)

	w := f.request(t, http.MethodPatch, "/api/v1/tickets/1", gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTicketNotFound(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodGet, "/api/v1/tickets/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagAttachDetach(t *testing.T) {
	f := newAPIFixture(t)
	f.seedTicket(t)

	w := f.request(t, http.MethodPost, "/api/v1/tags", gin.H{"name": "vip"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodPost, "/api/v1/tickets/1/tags/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/tickets/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["tags"], 1)

	w = f.request(t, http.MethodDelete, "/api/v1/tickets/1/tags/1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRuleValidation(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/rules/tags", gin.H{
		"name":     "invalid",
		"keywords": []string{"x"},
		"tag_id":   1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.request(t, http.MethodPost, "/api/v1/rules/priorities", gin.H{
		"name":     "invalid",
		"keywords": []string{"x"},
		"priority": "extreme",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPresenceHeartbeatAndViewers(t *testing.T) {
	f := newAPIFixture(t)
	f.seedTicket(t)

	w := f.request(t, http.MethodPost, "/api/v1/tickets/1/presence", gin.H{"typing": true})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/tickets/1/presence", nil)
	require.Equal(t, http.StatusOK, w.Code)
	viewers := decode(t, w)["viewers"].([]any)
	require.Len(t, viewers, 1)
	viewer := viewers[0].(map[string]any)
	assert.Equal(t, "Ann Agent", viewer["agent_name"])
	assert.Equal(t, true, viewer["typing"])
}

func TestCannedResponseRendering(t *testing.T) {
	f := newAPIFixture(t)

	w := f.request(t, http.MethodPost, "/api/v1/canned-responses", gin.H{
		"title":    "Greeting",
		"shortcut": "/hi",
		"body":     "Hello **there**",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.request(t, http.MethodGet, "/api/v1/canned-responses/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rendered := decode(t, w)
	assert.Contains(t, rendered["html"], "<strong>there</strong>")

	w = f.request(t, http.MethodPost, "/api/v1/canned-responses/1/use", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["usage_count"])
}

func (f *apiFixture) seedTicket(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	customer := &models.Customer{Email: "jane@example.com"}
	require.NoError(t, f.customers.Create(ctx, customer))
	ticket := &models.Ticket{
		Subject:    "seeded",
		Status:     models.TicketStatusOpen,
		Priority:   models.PriorityMedium,
		Channel:    models.ChannelEmail,
		CustomerID: customer.ID,
	}
	require.NoError(t, f.tickets.Create(ctx, ticket))
}
