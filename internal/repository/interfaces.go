// Package repository defines the persistence contracts of the helpdesk and
// their PostgreSQL implementations. An in-memory implementation of every
// interface lives in the memory subpackage for tests.
package repository

import (
	"context"
	"time"

	"github.com/deskhive/deskhive/internal/models"
)

// TicketFilter narrows ticket listings.
type TicketFilter struct {
	Status     models.TicketStatus
	Channel    models.Channel
	Priority   models.TicketPriority
	CustomerID int64
	AssigneeID int64
	Limit      int
	Offset     int
}

// CustomerRepository persists customers, unique by normalized email.
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
}

// TicketRepository persists tickets. Lookup methods used for thread matching
// never return merged tickets.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	// GetByReferenceID returns the non-merged ticket anchored on the given
	// email Message-ID. When several rows share a reference id the most
	// recently updated one wins.
	GetByReferenceID(ctx context.Context, referenceID string) (*models.Ticket, error)
	// LatestActiveForCustomer returns the customer's most recently updated
	// open or pending ticket on the given channel, excluding merged tickets.
	LatestActiveForCustomer(ctx context.Context, customerID int64, channel models.Channel) (*models.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error)
	Update(ctx context.Context, ticket *models.Ticket) error
	// Reopen forces status open, clears any snooze, and bumps updated_at.
	Reopen(ctx context.Context, id int64) error
	// BackfillReferenceID sets reference_id only when it is still empty.
	BackfillReferenceID(ctx context.Context, id int64, referenceID string) error
	SetPriority(ctx context.Context, id int64, priority models.TicketPriority) error
	// MarkMerged tombstones the source ticket and closes it.
	MarkMerged(ctx context.Context, sourceID, targetID int64) error
	// ReopenExpiredSnoozes reopens every snoozed ticket whose snoozed_until
	// has passed and returns how many were affected.
	ReopenExpiredSnoozes(ctx context.Context, now time.Time) (int64, error)
}

// MessageRepository persists conversation messages.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByTicket(ctx context.Context, ticketID int64) ([]models.Message, error)
	// ReassignTicket moves all messages from one ticket to another during a
	// merge and returns the number moved.
	ReassignTicket(ctx context.Context, fromTicketID, toTicketID int64) (int64, error)
}

// TagRepository persists the tag catalog and ticket-tag attachments.
type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id int64) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id int64) error
	// Attach is idempotent: attaching an already-attached tag is a no-op.
	Attach(ctx context.Context, ticketID, tagID int64) error
	Detach(ctx context.Context, ticketID, tagID int64) error
	ListForTicket(ctx context.Context, ticketID int64) ([]models.Tag, error)
}

// RuleRepository persists the keyword automation rules.
type RuleRepository interface {
	ActiveTagRules(ctx context.Context) ([]models.AutoTagRule, error)
	// ActivePriorityRules returns active rules ordered by target severity
	// descending (urgent first).
	ActivePriorityRules(ctx context.Context) ([]models.AutoPriorityRule, error)
	CreateTagRule(ctx context.Context, rule *models.AutoTagRule) error
	ListTagRules(ctx context.Context) ([]models.AutoTagRule, error)
	UpdateTagRule(ctx context.Context, rule *models.AutoTagRule) error
	DeleteTagRule(ctx context.Context, id int64) error
	CreatePriorityRule(ctx context.Context, rule *models.AutoPriorityRule) error
	ListPriorityRules(ctx context.Context) ([]models.AutoPriorityRule, error)
	UpdatePriorityRule(ctx context.Context, rule *models.AutoPriorityRule) error
	DeletePriorityRule(ctx context.Context, id int64) error
}

// BrandRepository persists brands and resolves inbound addresses.
type BrandRepository interface {
	Create(ctx context.Context, brand *models.Brand) error
	List(ctx context.Context) ([]models.Brand, error)
	// GetByInboundAddress matches a normalized recipient address to an
	// active brand; ErrNotFound when no brand claims the address.
	GetByInboundAddress(ctx context.Context, address string) (*models.Brand, error)
}

// CannedResponseRepository persists reply templates.
type CannedResponseRepository interface {
	Create(ctx context.Context, response *models.CannedResponse) error
	GetByID(ctx context.Context, id int64) (*models.CannedResponse, error)
	List(ctx context.Context) ([]models.CannedResponse, error)
	Update(ctx context.Context, response *models.CannedResponse) error
	Delete(ctx context.Context, id int64) error
	IncrementUsage(ctx context.Context, id int64) error
}

// PromoCodeRepository persists promo codes.
type PromoCodeRepository interface {
	Create(ctx context.Context, code *models.PromoCode) error
	GetByID(ctx context.Context, id int64) (*models.PromoCode, error)
	List(ctx context.Context) ([]models.PromoCode, error)
	Update(ctx context.Context, code *models.PromoCode) error
	Delete(ctx context.Context, id int64) error
}

// ResourceRepository persists shared reference links.
type ResourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	GetByID(ctx context.Context, id int64) (*models.Resource, error)
	List(ctx context.Context) ([]models.Resource, error)
	Update(ctx context.Context, resource *models.Resource) error
	Delete(ctx context.Context, id int64) error
}
