package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/deskhive/deskhive/internal/mailparse"
	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/textclean"
)

// ErrMissingSender marks the only inbound-email failure surfaced to the relay
// as a client error; everything else is logged and acknowledged so the relay
// never retry-storms.
var ErrMissingSender = errors.New("ingestion: sender address required")

// Inbound ingestion results, reported back to the email relay.
const (
	ActionMessageAdded  = "message_added"
	ActionTicketCreated = "ticket_created"
)

// InboundEmail is the payload of one inbound email webhook call. Either the
// individual form fields or RawMessage (a complete MIME message) is set; raw
// takes precedence.
type InboundEmail struct {
	From       string
	To         string
	Subject    string
	Text       string
	HTML       string
	Headers    string
	RawMessage []byte
	// Attachments is file metadata the relay already uploaded to object
	// storage; bodies never travel through the webhook.
	Attachments []models.Attachment
}

// IngestResult describes what the pipeline did with an inbound email.
type IngestResult struct {
	Action       string
	TicketID     int64
	TicketNumber int64
}

// Ingestion threads inbound emails into tickets: parse sender and headers,
// find the conversation the message belongs to (or open a new one), persist
// the message, and classify freshly created tickets. Classification runs
// once, at ticket creation; appends never re-run it.
type Ingestion struct {
	customers  repository.CustomerRepository
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	brands     repository.BrandRepository
	classifier *Classifier
	logger     *log.Logger
}

// NewIngestion wires the ingestion pipeline.
func NewIngestion(
	customers repository.CustomerRepository,
	tickets repository.TicketRepository,
	messages repository.MessageRepository,
	brands repository.BrandRepository,
	classifier *Classifier,
	logger *log.Logger,
) *Ingestion {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestion{
		customers:  customers,
		tickets:    tickets,
		messages:   messages,
		brands:     brands,
		classifier: classifier,
		logger:     logger,
	}
}

// Process runs the full pipeline for one inbound email.
func (s *Ingestion) Process(ctx context.Context, in InboundEmail) (IngestResult, error) {
	if len(in.RawMessage) > 0 {
		env, err := mailparse.ParseRaw(in.RawMessage)
		if err != nil {
			s.logger.Printf("ingestion: raw message parse failed, using form fields: %v", err)
		} else {
			in = mergeEnvelope(in, env)
		}
	}

	sender := mailparse.ParseSender(in.From)
	if sender.Email == "" {
		return IngestResult{}, ErrMissingSender
	}

	headers := mailparse.ParseHeaders(in.Headers)
	messageID := headers.MessageID
	if messageID == "" {
		// Anchor the thread anyway so later replies can still match.
		messageID = fmt.Sprintf("<%s@deskhive.generated>", uuid.NewString())
	}

	content := textclean.Clean(in.Text, in.HTML)
	raw := in.Text
	if strings.TrimSpace(raw) == "" {
		raw = in.HTML
	}

	ticket := s.resolveThread(ctx, sender.Email, headers)
	if ticket != nil {
		return s.appendToThread(ctx, ticket, sender, content, raw, messageID, in.Attachments)
	}
	return s.openTicket(ctx, in, sender, content, raw, messageID)
}

// resolveThread finds the existing conversation an email belongs to. Exact
// Message-ID matching is the strong signal; the recency fallback covers mail
// clients that drop threading headers. Lookup failures are treated as misses
// so a flaky read never drops a message.
func (s *Ingestion) resolveThread(ctx context.Context, customerEmail string, headers mailparse.Headers) *models.Ticket {
	for _, candidate := range headers.ReferenceCandidates() {
		ticket, err := s.tickets.GetByReferenceID(ctx, candidate)
		if err == nil {
			return ticket
		}
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Printf("ingestion: reference lookup %q failed: %v", candidate, err)
		}
	}
	customer, err := s.customers.GetByEmail(ctx, customerEmail)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Printf("ingestion: customer lookup %q failed: %v", customerEmail, err)
		}
		return nil
	}
	ticket, err := s.tickets.LatestActiveForCustomer(ctx, customer.ID, models.ChannelEmail)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Printf("ingestion: recency fallback for customer %d failed: %v", customer.ID, err)
		}
		return nil
	}
	return ticket
}

func (s *Ingestion) appendToThread(ctx context.Context, ticket *models.Ticket, sender mailparse.Sender, content, raw, messageID string, attachments []models.Attachment) (IngestResult, error) {
	customer, err := s.resolveCustomer(ctx, sender)
	if err != nil {
		return IngestResult{}, err
	}
	message := &models.Message{
		TicketID:       ticket.ID,
		SenderType:     models.SenderCustomer,
		SenderID:       &customer.ID,
		Content:        content,
		Source:         models.SourceNewEmail,
		EmailMessageID: &messageID,
		Attachments:    attachments,
	}
	if raw != "" && raw != content {
		message.RawContent = &raw
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return IngestResult{}, fmt.Errorf("ingestion: append message to ticket %d: %w", ticket.ID, err)
	}
	// A customer reply always reopens the thread, snoozed or pending alike.
	if err := s.tickets.Reopen(ctx, ticket.ID); err != nil {
		return IngestResult{}, fmt.Errorf("ingestion: reopen ticket %d: %w", ticket.ID, err)
	}
	if ticket.ReferenceID == nil || *ticket.ReferenceID == "" {
		if err := s.tickets.BackfillReferenceID(ctx, ticket.ID, messageID); err != nil {
			s.logger.Printf("ingestion: reference backfill on ticket %d failed: %v", ticket.ID, err)
		}
	}
	return IngestResult{
		Action:       ActionMessageAdded,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
	}, nil
}

func (s *Ingestion) openTicket(ctx context.Context, in InboundEmail, sender mailparse.Sender, content, raw, messageID string) (IngestResult, error) {
	customer, err := s.resolveCustomer(ctx, sender)
	if err != nil {
		return IngestResult{}, err
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = "(no subject)"
	}
	ticket := &models.Ticket{
		Subject:     subject,
		Status:      models.TicketStatusOpen,
		Priority:    models.DefaultPriority,
		Channel:     models.ChannelEmail,
		CustomerID:  customer.ID,
		ReferenceID: &messageID,
		BrandID:     s.resolveBrand(ctx, in.To),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return IngestResult{}, fmt.Errorf("ingestion: create ticket: %w", err)
	}
	message := &models.Message{
		TicketID:       ticket.ID,
		SenderType:     models.SenderCustomer,
		SenderID:       &customer.ID,
		Content:        content,
		Source:         models.SourceNewEmail,
		EmailMessageID: &messageID,
		Attachments:    in.Attachments,
	}
	if raw != "" && raw != content {
		message.RawContent = &raw
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return IngestResult{}, fmt.Errorf("ingestion: create initial message for ticket %d: %w", ticket.ID, err)
	}

	// Classification is best-effort enrichment; failures never block the
	// already-persisted ticket.
	if s.classifier != nil {
		if _, err := s.classifier.ApplyTags(ctx, ticket.ID, subject, content); err != nil {
			s.logger.Printf("ingestion: auto-tag on ticket %d failed: %v", ticket.ID, err)
		}
		if err := s.classifier.ApplyPriority(ctx, ticket.ID, subject, content, ticket.Priority); err != nil {
			s.logger.Printf("ingestion: auto-priority on ticket %d failed: %v", ticket.ID, err)
		}
	}
	return IngestResult{
		Action:       ActionTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
	}, nil
}

// resolveCustomer finds or creates the customer for a sender. A repeat
// contact never overwrites an existing customer's name.
func (s *Ingestion) resolveCustomer(ctx context.Context, sender mailparse.Sender) (*models.Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, sender.Email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("ingestion: customer lookup: %w", err)
	}
	customer = &models.Customer{Email: sender.Email, Metadata: models.Metadata{}}
	if sender.Name != "" {
		name := sender.Name
		customer.FullName = &name
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a create race; the row exists now.
			return s.customers.GetByEmail(ctx, sender.Email)
		}
		return nil, fmt.Errorf("ingestion: create customer: %w", err)
	}
	return customer, nil
}

func (s *Ingestion) resolveBrand(ctx context.Context, to string) *int64 {
	recipient := mailparse.ParseRecipient(to)
	if recipient == "" {
		return nil
	}
	brand, err := s.brands.GetByInboundAddress(ctx, recipient)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Printf("ingestion: brand lookup %q failed: %v", recipient, err)
		}
		return nil
	}
	return &brand.ID
}

func mergeEnvelope(in InboundEmail, env mailparse.Envelope) InboundEmail {
	in.From = env.From
	in.To = env.To
	in.Subject = env.Subject
	in.Text = env.Text
	in.HTML = env.HTML
	var b strings.Builder
	if env.Headers.MessageID != "" {
		fmt.Fprintf(&b, "Message-ID: %s\n", env.Headers.MessageID)
	}
	if env.Headers.References != "" {
		fmt.Fprintf(&b, "References: %s\n", env.Headers.References)
	}
	if env.Headers.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\n", env.Headers.InReplyTo)
	}
	in.Headers = b.String()
	return in
}
