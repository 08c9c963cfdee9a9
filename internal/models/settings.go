package models

import "time"

// CannedResponse is a reusable reply template. Body is markdown; the rendered
// HTML is produced on demand, never stored.
type CannedResponse struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Shortcut   string    `json:"shortcut" db:"shortcut"`
	Body       string    `json:"body" db:"body"`
	UsageCount int64     `json:"usage_count" db:"usage_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PromoCode is a discount code agents can hand out in replies.
type PromoCode struct {
	ID          int64      `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	Description string     `json:"description" db:"description"`
	Kind        string     `json:"kind" db:"kind"` // percent or fixed
	Value       int64      `json:"value" db:"value"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Active      bool       `json:"active" db:"active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Resource is a reference link agents share with customers.
type Resource struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	URL       string    `json:"url" db:"url"`
	Category  string    `json:"category" db:"category"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Viewer is an advisory presence entry: an agent currently looking at (or
// typing on) a ticket. Entries expire on a TTL; this is UI state, not a lock.
type Viewer struct {
	TicketID  int64     `json:"ticket_id"`
	AgentID   int64     `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	Typing    bool      `json:"typing"`
	LastSeen  time.Time `json:"last_seen"`
}
