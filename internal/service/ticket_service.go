package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/deskhive/deskhive/internal/mailparse"
	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

// Validation errors reported back to the UI layer as typed responses.
var (
	ErrInvalidStatus   = errors.New("tickets: invalid status")
	ErrInvalidPriority = errors.New("tickets: invalid priority")
	ErrInvalidChannel  = errors.New("tickets: invalid channel")
	ErrSelfMerge       = errors.New("tickets: cannot merge a ticket into itself")
	ErrMergedTarget    = errors.New("tickets: merge target is itself merged")
)

// Tickets provides the agent-facing ticket operations: listing, manual
// creation, replies, updates, snooze, and merge.
type Tickets struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	customers  repository.CustomerRepository
	tags       repository.TagRepository
	classifier *Classifier
	logger     *log.Logger
}

// NewTickets wires the ticket service.
func NewTickets(
	tickets repository.TicketRepository,
	messages repository.MessageRepository,
	customers repository.CustomerRepository,
	tags repository.TagRepository,
	classifier *Classifier,
	logger *log.Logger,
) *Tickets {
	if logger == nil {
		logger = log.Default()
	}
	return &Tickets{
		tickets:    tickets,
		messages:   messages,
		customers:  customers,
		tags:       tags,
		classifier: classifier,
		logger:     logger,
	}
}

// Classifier exposes the keyword automation for on-demand re-runs.
func (s *Tickets) Classifier() *Classifier {
	return s.classifier
}

// List returns tickets matching the filter, most recently updated first.
func (s *Tickets) List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	return s.tickets.List(ctx, filter)
}

// Get returns one ticket with its tags and customer populated.
func (s *Tickets) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tags, terr := s.tags.ListForTicket(ctx, id); terr == nil {
		ticket.Tags = tags
	}
	if customer, cerr := s.customers.GetByID(ctx, ticket.CustomerID); cerr == nil {
		ticket.Customer = customer
	}
	return ticket, nil
}

// Messages returns a ticket's conversation in chronological order.
func (s *Tickets) Messages(ctx context.Context, ticketID int64) ([]models.Message, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.messages.ListByTicket(ctx, ticketID)
}

// CreateManualInput describes an agent-created ticket.
type CreateManualInput struct {
	Subject       string
	Body          string
	CustomerEmail string
	CustomerName  string
	Priority      models.TicketPriority
	AssigneeID    *int64
	AgentID       int64
}

// CreateManual opens a ticket on the manual channel on behalf of a customer.
// Classification runs the same way it does for inbound email, and automation
// only touches the priority when the agent left it at the default.
func (s *Tickets) CreateManual(ctx context.Context, in CreateManualInput) (*models.Ticket, error) {
	email := mailparse.NormalizeEmail(in.CustomerEmail)
	if email == "" {
		return nil, errors.New("tickets: customer email required")
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, errors.New("tickets: subject required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.DefaultPriority
	}
	if !priority.Valid() {
		return nil, ErrInvalidPriority
	}

	customer, err := s.findOrCreateCustomer(ctx, email, in.CustomerName)
	if err != nil {
		return nil, err
	}
	ticket := &models.Ticket{
		Subject:    subject,
		Status:     models.TicketStatusOpen,
		Priority:   priority,
		Channel:    models.ChannelManual,
		CustomerID: customer.ID,
		AssigneeID: in.AssigneeID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("tickets: create: %w", err)
	}
	if strings.TrimSpace(in.Body) != "" {
		message := &models.Message{
			TicketID:   ticket.ID,
			SenderType: models.SenderAgent,
			SenderID:   &in.AgentID,
			Content:    strings.TrimSpace(in.Body),
			Source:     models.SourceReply,
		}
		if err := s.messages.Create(ctx, message); err != nil {
			return nil, fmt.Errorf("tickets: initial message: %w", err)
		}
	}
	if s.classifier != nil {
		if _, err := s.classifier.ApplyTags(ctx, ticket.ID, subject, in.Body); err != nil {
			s.logger.Printf("tickets: auto-tag on ticket %d failed: %v", ticket.ID, err)
		}
		if err := s.classifier.ApplyPriority(ctx, ticket.ID, subject, in.Body, ticket.Priority); err != nil {
			s.logger.Printf("tickets: auto-priority on ticket %d failed: %v", ticket.ID, err)
		}
	}
	return s.tickets.GetByID(ctx, ticket.ID)
}

// Reply appends an agent message. Internal notes are never shown to the
// customer and use the note source.
func (s *Tickets) Reply(ctx context.Context, ticketID, agentID int64, content string, internal bool) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("tickets: reply content required")
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	source := models.SourceReply
	if internal {
		source = models.SourceNote
	}
	message := &models.Message{
		TicketID:   ticketID,
		SenderType: models.SenderAgent,
		SenderID:   &agentID,
		Content:    content,
		IsInternal: internal,
		Source:     source,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("tickets: reply: %w", err)
	}
	return message, nil
}

// UpdateInput carries the mutable ticket fields; nil means unchanged.
type UpdateInput struct {
	Subject       *string
	Status        *models.TicketStatus
	Priority      *models.TicketPriority
	AssigneeID    *int64
	ClearAssignee bool
	SnoozedUntil  *time.Time
	SnoozedBy     *int64
}

// Update applies field changes to a ticket. Setting SnoozedUntil also moves
// the ticket to pending; the snooze sweep or a customer reply reopens it.
func (s *Tickets) Update(ctx context.Context, id int64, in UpdateInput) (*models.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Subject != nil {
		if strings.TrimSpace(*in.Subject) == "" {
			return nil, errors.New("tickets: subject required")
		}
		ticket.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		ticket.Status = *in.Status
		if ticket.Status != models.TicketStatusPending {
			ticket.SnoozedUntil = nil
			ticket.SnoozedBy = nil
		}
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		ticket.Priority = *in.Priority
	}
	if in.ClearAssignee {
		ticket.AssigneeID = nil
	} else if in.AssigneeID != nil {
		ticket.AssigneeID = in.AssigneeID
	}
	if in.SnoozedUntil != nil {
		ticket.SnoozedUntil = in.SnoozedUntil
		ticket.SnoozedBy = in.SnoozedBy
		ticket.Status = models.TicketStatusPending
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Merge consolidates the source ticket into the target: messages move over, a
// merge marker is appended to the target, and the source becomes a closed
// tombstone pointing at the target. Tombstoned tickets are excluded from
// thread matching from then on.
func (s *Tickets) Merge(ctx context.Context, sourceID, targetID, agentID int64) (*models.Ticket, error) {
	if sourceID == targetID {
		return nil, ErrSelfMerge
	}
	source, err := s.tickets.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := s.tickets.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Merged() {
		return nil, ErrMergedTarget
	}
	moved, err := s.messages.ReassignTicket(ctx, source.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("tickets: move messages: %w", err)
	}
	marker := &models.Message{
		TicketID:   target.ID,
		SenderType: models.SenderAgent,
		SenderID:   &agentID,
		Content:    fmt.Sprintf("Merged ticket #%d into this conversation (%d messages).", source.Number, moved),
		IsInternal: true,
		Source:     models.SourceMerge,
	}
	if err := s.messages.Create(ctx, marker); err != nil {
		return nil, fmt.Errorf("tickets: merge marker: %w", err)
	}
	if err := s.tickets.MarkMerged(ctx, source.ID, target.ID); err != nil {
		return nil, fmt.Errorf("tickets: tombstone source: %w", err)
	}
	s.logger.Printf("tickets: merged ticket %d into %d (%d messages)", source.ID, target.ID, moved)
	return s.tickets.GetByID(ctx, target.ID)
}

func (s *Tickets) findOrCreateCustomer(ctx context.Context, email, name string) (*models.Customer, error) {
	customer, err := s.customers.GetByEmail(ctx, email)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	customer = &models.Customer{Email: email, Metadata: models.Metadata{}}
	if strings.TrimSpace(name) != "" {
		trimmed := strings.TrimSpace(name)
		customer.FullName = &trimmed
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.customers.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return customer, nil
}
