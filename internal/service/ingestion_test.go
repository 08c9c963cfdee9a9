package service

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository/memory"
)

type ingestionFixture struct {
	customers *memory.CustomerRepository
	tickets   *memory.TicketRepository
	messages  *memory.MessageRepository
	brands    *memory.BrandRepository
	tags      *memory.TagRepository
	rules     *memory.RuleRepository
	svc       *Ingestion
}

func newIngestionFixture() *ingestionFixture {
	f := &ingestionFixture{
		customers: memory.NewCustomerRepository(),
		tickets:   memory.NewTicketRepository(),
		messages:  memory.NewMessageRepository(),
		brands:    memory.NewBrandRepository(),
		tags:      memory.NewTagRepository(),
		rules:     memory.NewRuleRepository(),
	}
	logger := log.New(io.Discard, "", 0)
	classifier := NewClassifier(f.rules, f.tags, f.tickets, logger)
	f.svc = NewIngestion(f.customers, f.tickets, f.messages, f.brands, classifier, logger)
	return f
}

func TestProcessCreatesTicketForNewConversation(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "Jane Doe <jane@example.com>",
		To:      "support@acme.com",
		Subject: "Where is my order?",
		Text:    "It has been two weeks.",
		Headers: "Message-ID: <msg-1@mail.example.com>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionTicketCreated, result.Action)

	ticket, err := f.tickets.GetByID(ctx, result.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Where is my order?", ticket.Subject)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)
	assert.Equal(t, models.ChannelEmail, ticket.Channel)
	require.NotNil(t, ticket.ReferenceID)
	assert.Equal(t, "<msg-1@mail.example.com>", *ticket.ReferenceID)

	customer, err := f.customers.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, customer.FullName)
	assert.Equal(t, "Jane Doe", *customer.FullName)

	messages, err := f.messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.SenderCustomer, messages[0].SenderType)
	assert.Equal(t, models.SourceNewEmail, messages[0].Source)
	assert.Equal(t, "It has been two weeks.", messages[0].Content)
}

func TestProcessRejectsMissingSender(t *testing.T) {
	f := newIngestionFixture()

	_, err := f.svc.Process(context.Background(), InboundEmail{
		Subject: "no sender",
		Text:    "body",
	})
	assert.ErrorIs(t, err, ErrMissingSender)
}

func TestProcessThreadsReplyByInReplyTo(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	first, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Order question",
		Text:    "Original message.",
		Headers: "Message-ID: <msg-1@x>",
	})
	require.NoError(t, err)

	// Agent closes the ticket; the customer's reply must reopen it.
	ticket, err := f.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	ticket.Status = models.TicketStatusClosed
	require.NoError(t, f.tickets.Update(ctx, ticket))

	second, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Order question",
		Text:    "Any update?",
		Headers: "Message-ID: <msg-2@x>\nIn-Reply-To: <msg-1@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionMessageAdded, second.Action)
	assert.Equal(t, first.TicketID, second.TicketID)

	reopened, err := f.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, reopened.Status)

	messages, err := f.messages.ListByTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestProcessThreadsReplyByReferencesToken(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	first, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Question",
		Text:    "Hello",
		Headers: "Message-ID: <root@x>",
	})
	require.NoError(t, err)

	// No In-Reply-To; the anchor appears mid-References.
	second, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Question",
		Text:    "Following up",
		Headers: "Message-ID: <leaf@x>\nReferences: <unknown@x> <root@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionMessageAdded, second.Action)
	assert.Equal(t, first.TicketID, second.TicketID)
}

func TestProcessFallsBackToLatestActiveTicket(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	first, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Original",
		Text:    "Hello",
		Headers: "Message-ID: <orig@x>",
	})
	require.NoError(t, err)

	// Mail client stripped all threading headers.
	second, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Original",
		Text:    "Me again",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionMessageAdded, second.Action)
	assert.Equal(t, first.TicketID, second.TicketID)
}

func TestProcessNoFallbackToClosedTicket(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	first, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Original",
		Text:    "Hello",
		Headers: "Message-ID: <orig@x>",
	})
	require.NoError(t, err)

	ticket, err := f.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	ticket.Status = models.TicketStatusClosed
	require.NoError(t, f.tickets.Update(ctx, ticket))

	second, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "New problem",
		Text:    "Something else entirely",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionTicketCreated, second.Action)
	assert.NotEqual(t, first.TicketID, second.TicketID)
}

func TestProcessIgnoresMergedTicketsWhenThreading(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	source, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "First",
		Text:    "Hello",
		Headers: "Message-ID: <src@x>",
	})
	require.NoError(t, err)
	target, err := f.svc.Process(ctx, InboundEmail{
		From:    "bob@example.com",
		Subject: "Second",
		Text:    "Hi",
		Headers: "Message-ID: <tgt@x>",
	})
	require.NoError(t, err)
	require.NoError(t, f.tickets.MarkMerged(ctx, source.TicketID, target.TicketID))

	// A reply referencing the merged source must not land on the tombstone.
	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: First",
		Text:    "Still broken",
		Headers: "Message-ID: <reply@x>\nIn-Reply-To: <src@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionTicketCreated, result.Action)
	assert.NotEqual(t, source.TicketID, result.TicketID)
}

func TestProcessGeneratesReferenceWhenMessageIDMissing(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "No headers at all",
		Text:    "Hello",
	})
	require.NoError(t, err)

	ticket, err := f.tickets.GetByID(ctx, result.TicketID)
	require.NoError(t, err)
	require.NotNil(t, ticket.ReferenceID)
	assert.NotEmpty(t, *ticket.ReferenceID)
}

func TestProcessBackfillsReferenceOnRecencyMatch(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	// A ticket created before reference tracking existed has no anchor.
	customer := &models.Customer{Email: "jane@example.com"}
	require.NoError(t, f.customers.Create(ctx, customer))
	ticket := &models.Ticket{
		Subject:    "Original",
		Status:     models.TicketStatusOpen,
		Priority:   models.PriorityMedium,
		Channel:    models.ChannelEmail,
		CustomerID: customer.ID,
	}
	require.NoError(t, f.tickets.Create(ctx, ticket))

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Original",
		Text:    "Reply",
		Headers: "Message-ID: <late@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionMessageAdded, result.Action)
	assert.Equal(t, ticket.ID, result.TicketID)

	updated, err := f.tickets.GetByReferenceID(ctx, "<late@x>")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, updated.ID)
}

func TestProcessDoesNotOverwriteCustomerName(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	_, err := f.svc.Process(ctx, InboundEmail{
		From:    "Jane Doe <jane@example.com>",
		Subject: "First contact",
		Text:    "Hello",
		Headers: "Message-ID: <a@x>",
	})
	require.NoError(t, err)

	_, err = f.svc.Process(ctx, InboundEmail{
		From:    "Janet <jane@example.com>",
		Subject: "Second contact",
		Text:    "Hello again",
		Headers: "Message-ID: <b@x>",
	})
	require.NoError(t, err)

	customer, err := f.customers.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, customer.FullName)
	assert.Equal(t, "Jane Doe", *customer.FullName)
}

func TestProcessClassifiesNewTickets(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	tag := &models.Tag{Name: "billing"}
	require.NoError(t, f.tags.Create(ctx, tag))
	require.NoError(t, f.rules.CreateTagRule(ctx, &models.AutoTagRule{
		Name:         "billing keywords",
		Keywords:     []string{"refund"},
		MatchSubject: true,
		TagID:        tag.ID,
		Active:       true,
	}))
	require.NoError(t, f.rules.CreatePriorityRule(ctx, &models.AutoPriorityRule{
		Name:      "angry customers",
		Keywords:  []string{"refund"},
		MatchMode: models.MatchAny,
		Priority:  models.PriorityHigh,
		Active:    true,
	}))

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "I demand a refund",
		Text:    "Now.",
		Headers: "Message-ID: <r@x>",
	})
	require.NoError(t, err)

	ticket, err := f.tickets.GetByID(ctx, result.TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, ticket.Priority)

	attached, err := f.tags.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Equal(t, "billing", attached[0].Name)
}

func TestProcessDoesNotReclassifyOnAppend(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	first, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Calm question",
		Text:    "Hello",
		Headers: "Message-ID: <q@x>",
	})
	require.NoError(t, err)

	require.NoError(t, f.rules.CreatePriorityRule(ctx, &models.AutoPriorityRule{
		Name:      "escalations",
		Keywords:  []string{"urgent"},
		MatchMode: models.MatchAny,
		Priority:  models.PriorityUrgent,
		Active:    true,
	}))

	second, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Calm question",
		Text:    "This is urgent now!",
		Headers: "Message-ID: <q2@x>\nIn-Reply-To: <q@x>",
	})
	require.NoError(t, err)
	assert.Equal(t, ActionMessageAdded, second.Action)

	ticket, err := f.tickets.GetByID(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, ticket.Priority)
}

func TestProcessResolvesBrandFromRecipient(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	brand := &models.Brand{Name: "Acme", InboundAddress: "support@acme.com", FromAddress: "support@acme.com", Active: true}
	require.NoError(t, f.brands.Create(ctx, brand))

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		To:      "Acme Support <Support@Acme.com>",
		Subject: "Hello",
		Text:    "Hi",
		Headers: "Message-ID: <brand@x>",
	})
	require.NoError(t, err)

	ticket, err := f.tickets.GetByID(ctx, result.TicketID)
	require.NoError(t, err)
	require.NotNil(t, ticket.BrandID)
	assert.Equal(t, brand.ID, *ticket.BrandID)
}

func TestProcessQuotedReplyIsTrimmed(t *testing.T) {
	f := newIngestionFixture()
	ctx := context.Background()

	result, err := f.svc.Process(ctx, InboundEmail{
		From:    "jane@example.com",
		Subject: "Re: Order",
		Text:    "Works now, thanks!\n\nOn Mon, Jan 5, 2026 Support wrote:\n> try restarting",
		Headers: "Message-ID: <trim@x>",
	})
	require.NoError(t, err)

	messages, err := f.messages.ListByTicket(ctx, result.TicketID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Works now, thanks!", messages[0].Content)
	require.NotNil(t, messages[0].RawContent)
	assert.Contains(t, *messages[0].RawContent, "try restarting")
}
