// Package memory provides in-memory implementations of the repository
// interfaces. They mirror the SQL implementations' semantics (ordering,
// merged-ticket exclusion, idempotent tag attachment) and back the unit and
// handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

// CustomerRepository is the in-memory repository.CustomerRepository.
type CustomerRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Customer
}

// NewCustomerRepository creates an empty in-memory customer repository.
func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{items: make(map[int64]models.Customer)}
}

func (r *CustomerRepository) Create(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Email == customer.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	customer.ID = r.nextID
	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	if customer.Metadata == nil {
		customer.Metadata = models.Metadata{}
	}
	r.items[customer.ID] = *customer
	return nil
}

func (r *CustomerRepository) GetByID(_ context.Context, id int64) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if customer, ok := r.items[id]; ok {
		c := customer
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *CustomerRepository) GetByEmail(_ context.Context, email string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, customer := range r.items {
		if customer.Email == email {
			c := customer
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

// TicketRepository is the in-memory repository.TicketRepository.
type TicketRepository struct {
	mu         sync.RWMutex
	nextID     int64
	nextNumber int64
	items      map[int64]models.Ticket
}

// NewTicketRepository creates an empty in-memory ticket repository.
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{items: make(map[int64]models.Ticket)}
}

func (r *TicketRepository) Create(_ context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.nextNumber++
	ticket.ID = r.nextID
	ticket.Number = r.nextNumber
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.items[ticket.ID] = *ticket
	return nil
}

func (r *TicketRepository) GetByID(_ context.Context, id int64) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ticket, ok := r.items[id]; ok {
		t := ticket
		return &t, nil
	}
	return nil, repository.ErrNotFound
}

func (r *TicketRepository) GetByReferenceID(_ context.Context, referenceID string) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.Ticket
	for _, ticket := range r.items {
		if ticket.Merged() || ticket.ReferenceID == nil || *ticket.ReferenceID != referenceID {
			continue
		}
		t := ticket
		if best == nil || t.UpdatedAt.After(best.UpdatedAt) {
			best = &t
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *TicketRepository) LatestActiveForCustomer(_ context.Context, customerID int64, channel models.Channel) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.Ticket
	for _, ticket := range r.items {
		if ticket.CustomerID != customerID || ticket.Channel != channel || ticket.Merged() {
			continue
		}
		if ticket.Status != models.TicketStatusOpen && ticket.Status != models.TicketStatusPending {
			continue
		}
		t := ticket
		if best == nil || t.UpdatedAt.After(best.UpdatedAt) {
			best = &t
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *TicketRepository) List(_ context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tickets []models.Ticket
	for _, ticket := range r.items {
		if ticket.Merged() {
			continue
		}
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.Channel != "" && ticket.Channel != filter.Channel {
			continue
		}
		if filter.Priority != "" && ticket.Priority != filter.Priority {
			continue
		}
		if filter.CustomerID > 0 && ticket.CustomerID != filter.CustomerID {
			continue
		}
		if filter.AssigneeID > 0 && (ticket.AssigneeID == nil || *ticket.AssigneeID != filter.AssigneeID) {
			continue
		}
		tickets = append(tickets, ticket)
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].UpdatedAt.After(tickets[j].UpdatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(tickets) {
			return nil, nil
		}
		tickets = tickets[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets, nil
}

func (r *TicketRepository) Update(_ context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Subject = ticket.Subject
	stored.Status = ticket.Status
	stored.Priority = ticket.Priority
	stored.AssigneeID = ticket.AssigneeID
	stored.TeamID = ticket.TeamID
	stored.BrandID = ticket.BrandID
	stored.SnoozedUntil = ticket.SnoozedUntil
	stored.SnoozedBy = ticket.SnoozedBy
	stored.UpdatedAt = time.Now()
	r.items[ticket.ID] = stored
	*ticket = stored
	return nil
}

func (r *TicketRepository) Reopen(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Status = models.TicketStatusOpen
	stored.SnoozedUntil = nil
	stored.SnoozedBy = nil
	stored.UpdatedAt = time.Now()
	r.items[id] = stored
	return nil
}

func (r *TicketRepository) BackfillReferenceID(_ context.Context, id int64, referenceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.ReferenceID == nil || *stored.ReferenceID == "" {
		stored.ReferenceID = &referenceID
		r.items[id] = stored
	}
	return nil
}

func (r *TicketRepository) SetPriority(_ context.Context, id int64, priority models.TicketPriority) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Priority = priority
	stored.UpdatedAt = time.Now()
	r.items[id] = stored
	return nil
}

func (r *TicketRepository) MarkMerged(_ context.Context, sourceID, targetID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[sourceID]
	if !ok || stored.Merged() {
		return repository.ErrNotFound
	}
	stored.MergedIntoTicketID = &targetID
	stored.Status = models.TicketStatusClosed
	stored.UpdatedAt = time.Now()
	r.items[sourceID] = stored
	return nil
}

func (r *TicketRepository) ReopenExpiredSnoozes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, ticket := range r.items {
		if ticket.SnoozedUntil == nil || ticket.SnoozedUntil.After(now) {
			continue
		}
		if ticket.Status == models.TicketStatusClosed || ticket.Merged() {
			continue
		}
		ticket.Status = models.TicketStatusOpen
		ticket.SnoozedUntil = nil
		ticket.SnoozedBy = nil
		ticket.UpdatedAt = now
		r.items[id] = ticket
		affected++
	}
	return affected, nil
}

// MessageRepository is the in-memory repository.MessageRepository.
type MessageRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  []models.Message
}

// NewMessageRepository creates an empty in-memory message repository.
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	message.ID = r.nextID
	message.CreatedAt = time.Now()
	for i := range message.Attachments {
		message.Attachments[i].MessageID = message.ID
		message.Attachments[i].ID = int64(i) + 1
	}
	r.items = append(r.items, *message)
	return nil
}

func (r *MessageRepository) ListByTicket(_ context.Context, ticketID int64) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var messages []models.Message
	for _, message := range r.items {
		if message.TicketID == ticketID {
			messages = append(messages, message)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

func (r *MessageRepository) ReassignTicket(_ context.Context, fromTicketID, toTicketID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var moved int64
	for i := range r.items {
		if r.items[i].TicketID == fromTicketID {
			r.items[i].TicketID = toTicketID
			moved++
		}
	}
	return moved, nil
}
