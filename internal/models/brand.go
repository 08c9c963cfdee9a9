package models

import "time"

// Brand is a distinct support identity with its own inbound mailbox address.
// Inbound mail is attributed to the brand whose inbound address matches the
// recipient; unmatched mail stays unbranded.
type Brand struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	InboundAddress string    `json:"inbound_address" db:"inbound_address"`
	FromAddress    string    `json:"from_address" db:"from_address"`
	Active         bool      `json:"active" db:"active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
