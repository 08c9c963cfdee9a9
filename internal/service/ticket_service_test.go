package service

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository/memory"
)

type ticketsFixture struct {
	tickets   *memory.TicketRepository
	messages  *memory.MessageRepository
	customers *memory.CustomerRepository
	tags      *memory.TagRepository
	rules     *memory.RuleRepository
	svc       *Tickets
}

func newTicketsFixture() *ticketsFixture {
	f := &ticketsFixture{
		tickets:   memory.NewTicketRepository(),
		messages:  memory.NewMessageRepository(),
		customers: memory.NewCustomerRepository(),
		tags:      memory.NewTagRepository(),
		rules:     memory.NewRuleRepository(),
	}
	logger := log.New(io.Discard, "", 0)
	classifier := NewClassifier(f.rules, f.tags, f.tickets, logger)
	f.svc = NewTickets(f.tickets, f.messages, f.customers, f.tags, classifier, logger)
	return f
}

func (f *ticketsFixture) seedTicket(t *testing.T, email string) *models.Ticket {
	t.Helper()
	ctx := context.Background()
	customer, err := f.customers.GetByEmail(ctx, email)
	if err != nil {
		customer = &models.Customer{Email: email}
		require.NoError(t, f.customers.Create(ctx, customer))
	}
	ticket := &models.Ticket{
		Subject:    "seeded",
		Status:     models.TicketStatusOpen,
		Priority:   models.PriorityMedium,
		Channel:    models.ChannelEmail,
		CustomerID: customer.ID,
	}
	require.NoError(t, f.tickets.Create(ctx, ticket))
	return ticket
}

func TestCreateManual(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()

	ticket, err := f.svc.CreateManual(ctx, CreateManualInput{
		Subject:       "Phone call follow-up",
		Body:          "Customer called about a double charge.",
		CustomerEmail: "Caller@Example.com",
		CustomerName:  "Caller",
		AgentID:       7,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelManual, ticket.Channel)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)
	assert.Nil(t, ticket.ReferenceID)

	customer, err := f.customers.GetByEmail(ctx, "caller@example.com")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, ticket.CustomerID)

	messages, err := f.messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.SenderAgent, messages[0].SenderType)
}

func TestCreateManualExplicitPriorityNotOverridden(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()

	require.NoError(t, f.rules.CreatePriorityRule(ctx, &models.AutoPriorityRule{
		Name:      "escalate",
		Keywords:  []string{"charge"},
		MatchMode: models.MatchAny,
		Priority:  models.PriorityUrgent,
		Active:    true,
	}))

	ticket, err := f.svc.CreateManual(ctx, CreateManualInput{
		Subject:       "Double charge",
		CustomerEmail: "a@b.com",
		Priority:      models.PriorityLow,
		AgentID:       1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, ticket.Priority)
}

func TestCreateManualValidation(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()

	_, err := f.svc.CreateManual(ctx, CreateManualInput{Subject: "x"})
	assert.Error(t, err)

	_, err = f.svc.CreateManual(ctx, CreateManualInput{CustomerEmail: "a@b.com"})
	assert.Error(t, err)

	_, err = f.svc.CreateManual(ctx, CreateManualInput{
		Subject:       "x",
		CustomerEmail: "a@b.com",
		Priority:      models.TicketPriority("extreme"),
	})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestReply(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, "jane@example.com")

	message, err := f.svc.Reply(ctx, ticket.ID, 7, "We are on it.", false)
	require.NoError(t, err)
	assert.Equal(t, models.SourceReply, message.Source)
	assert.False(t, message.IsInternal)

	note, err := f.svc.Reply(ctx, ticket.ID, 7, "Customer is a VIP.", true)
	require.NoError(t, err)
	assert.Equal(t, models.SourceNote, note.Source)
	assert.True(t, note.IsInternal)

	_, err = f.svc.Reply(ctx, ticket.ID, 7, "   ", false)
	assert.Error(t, err)

	_, err = f.svc.Reply(ctx, 999, 7, "hello", false)
	assert.Error(t, err)
}

func TestUpdateSnooze(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, "jane@example.com")

	until := time.Now().Add(2 * time.Hour)
	agent := int64(7)
	updated, err := f.svc.Update(ctx, ticket.ID, UpdateInput{
		SnoozedUntil: &until,
		SnoozedBy:    &agent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusPending, updated.Status)
	require.NotNil(t, updated.SnoozedUntil)

	// Reopening clears the snooze.
	open := models.TicketStatusOpen
	updated, err = f.svc.Update(ctx, ticket.ID, UpdateInput{Status: &open})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, updated.Status)
	assert.Nil(t, updated.SnoozedUntil)
}

func TestUpdateValidation(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, "jane@example.com")

	bad := models.TicketStatus("archived")
	_, err := f.svc.Update(ctx, ticket.ID, UpdateInput{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	worse := models.TicketPriority("extreme")
	_, err = f.svc.Update(ctx, ticket.ID, UpdateInput{Priority: &worse})
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestMerge(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	source := f.seedTicket(t, "jane@example.com")
	target := f.seedTicket(t, "jane@example.com")

	_, err := f.svc.Reply(ctx, source.ID, 7, "message on source", false)
	require.NoError(t, err)

	merged, err := f.svc.Merge(ctx, source.ID, target.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, target.ID, merged.ID)

	// Source is a closed tombstone pointing at the target.
	tombstone, err := f.tickets.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.True(t, tombstone.Merged())
	assert.Equal(t, models.TicketStatusClosed, tombstone.Status)
	require.NotNil(t, tombstone.MergedIntoTicketID)
	assert.Equal(t, target.ID, *tombstone.MergedIntoTicketID)

	// Target holds the moved message plus the merge marker.
	messages, err := f.messages.ListByTicket(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.SourceMerge, messages[1].Source)
	assert.True(t, messages[1].IsInternal)

	moved, err := f.messages.ListByTicket(ctx, source.ID)
	require.NoError(t, err)
	assert.Empty(t, moved)
}

func TestMergeRejectsSelfAndTombstones(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	a := f.seedTicket(t, "jane@example.com")
	b := f.seedTicket(t, "jane@example.com")
	c := f.seedTicket(t, "jane@example.com")

	_, err := f.svc.Merge(ctx, a.ID, a.ID, 7)
	assert.ErrorIs(t, err, ErrSelfMerge)

	_, err = f.svc.Merge(ctx, a.ID, b.ID, 7)
	require.NoError(t, err)

	// a is now a tombstone and cannot be a merge target.
	_, err = f.svc.Merge(ctx, c.ID, a.ID, 7)
	assert.ErrorIs(t, err, ErrMergedTarget)
}

func TestGetPopulatesTagsAndCustomer(t *testing.T) {
	f := newTicketsFixture()
	ctx := context.Background()
	ticket := f.seedTicket(t, "jane@example.com")

	tag := &models.Tag{Name: "vip"}
	require.NoError(t, f.tags.Create(ctx, tag))
	require.NoError(t, f.tags.Attach(ctx, ticket.ID, tag.ID))

	got, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "vip", got.Tags[0].Name)
	require.NotNil(t, got.Customer)
	assert.Equal(t, "jane@example.com", got.Customer.Email)
}
