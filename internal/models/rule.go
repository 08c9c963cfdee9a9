package models

import (
	"time"

	"github.com/lib/pq"
)

// Tag is a label attachable to tickets.
type Tag struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Color     string    `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AutoTagRule attaches a tag when any of its keywords occurs in the fields it
// is configured to match. At least one of MatchSubject/MatchBody must be set.
type AutoTagRule struct {
	ID           int64          `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Keywords     pq.StringArray `json:"keywords" db:"keywords"`
	MatchSubject bool           `json:"match_subject" db:"match_subject"`
	MatchBody    bool           `json:"match_body" db:"match_body"`
	TagID        int64          `json:"tag_id" db:"tag_id"`
	Active       bool           `json:"active" db:"active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// MatchMode controls how an auto-priority rule combines its keywords.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// AutoPriorityRule sets a ticket's priority when its keywords match subject or
// body. Rules are evaluated in descending order of target severity and the
// first match wins, so an urgent rule is never shadowed by a low one.
type AutoPriorityRule struct {
	ID        int64          `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Keywords  pq.StringArray `json:"keywords" db:"keywords"`
	MatchMode MatchMode      `json:"match_mode" db:"match_mode"`
	Priority  TicketPriority `json:"priority" db:"priority"`
	Active    bool           `json:"active" db:"active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
