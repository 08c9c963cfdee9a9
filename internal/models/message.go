package models

import "time"

// SenderType distinguishes who authored a message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAgent    SenderType = "agent"
)

// MessageSource records how a message entered the system.
type MessageSource string

const (
	SourceReply    MessageSource = "reply"
	SourceNewEmail MessageSource = "new_email"
	SourceMerge    MessageSource = "merge"
	SourceNote     MessageSource = "note"
)

// Message is a single entry in a ticket's conversation. Messages are immutable
// once created except for relocation to another ticket during a merge.
type Message struct {
	ID             int64         `json:"id" db:"id"`
	TicketID       int64         `json:"ticket_id" db:"ticket_id"`
	SenderType     SenderType    `json:"sender_type" db:"sender_type"`
	SenderID       *int64        `json:"sender_id,omitempty" db:"sender_id"`
	Content        string        `json:"content" db:"content"`
	RawContent     *string       `json:"raw_content,omitempty" db:"raw_content"`
	IsInternal     bool          `json:"is_internal" db:"is_internal"`
	Source         MessageSource `json:"source" db:"source"`
	EmailMessageID *string       `json:"email_message_id,omitempty" db:"email_message_id"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is file metadata attached to a message. Content lives in object
// storage; only the reference is kept here.
type Attachment struct {
	ID        int64  `json:"id" db:"id"`
	MessageID int64  `json:"message_id" db:"message_id"`
	Filename  string `json:"filename" db:"filename"`
	URL       string `json:"url" db:"url"`
	MimeType  string `json:"mime_type" db:"mime_type"`
	Size      int64  `json:"size" db:"size"`
}
