package models

import (
	"time"
)

// TicketStatus is the lifecycle state of a conversation.
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// Valid reports whether the status is one of the known states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority is the urgency level of a ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// DefaultPriority is assigned to every ticket on creation. Automation only
// overrides a ticket that is still at this default.
const DefaultPriority = PriorityMedium

// Rank orders priorities by severity; higher means more urgent. Unknown
// priorities rank below low so they never shadow real rules.
func (p TicketPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Valid reports whether the priority is one of the known levels.
func (p TicketPriority) Valid() bool {
	return p.Rank() > 0
}

// Channel identifies where a conversation originated.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelFacebook  Channel = "facebook"
	ChannelInstagram Channel = "instagram"
	ChannelManual    Channel = "manual"
)

// Valid reports whether the channel is one of the known sources.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelFacebook, ChannelInstagram, ChannelManual:
		return true
	}
	return false
}

// Ticket is a customer support conversation.
//
// ReferenceID holds the email Message-ID that anchors thread matching: replies
// carrying that id in In-Reply-To/References land on this ticket. A ticket with
// MergedIntoTicketID set is a tombstone and never a valid thread-match target.
type Ticket struct {
	ID                 int64          `json:"id" db:"id"`
	Number             int64          `json:"number" db:"number"`
	Subject            string         `json:"subject" db:"subject"`
	Status             TicketStatus   `json:"status" db:"status"`
	Priority           TicketPriority `json:"priority" db:"priority"`
	Channel            Channel        `json:"channel" db:"channel"`
	CustomerID         int64          `json:"customer_id" db:"customer_id"`
	AssigneeID         *int64         `json:"assignee_id,omitempty" db:"assignee_id"`
	TeamID             *int64         `json:"team_id,omitempty" db:"team_id"`
	BrandID            *int64         `json:"brand_id,omitempty" db:"brand_id"`
	ReferenceID        *string        `json:"reference_id,omitempty" db:"reference_id"`
	MergedIntoTicketID *int64         `json:"merged_into_ticket_id,omitempty" db:"merged_into_ticket_id"`
	SnoozedUntil       *time.Time     `json:"snoozed_until,omitempty" db:"snoozed_until"`
	SnoozedBy          *int64         `json:"snoozed_by,omitempty" db:"snoozed_by"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`

	// Joined fields (populated when needed)
	Customer *Customer `json:"customer,omitempty"`
	Tags     []Tag     `json:"tags,omitempty"`
}

// Merged reports whether this ticket has been consolidated into another one.
func (t *Ticket) Merged() bool {
	return t != nil && t.MergedIntoTicketID != nil
}
