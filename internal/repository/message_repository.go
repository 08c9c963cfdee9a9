package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLMessageRepository is the PostgreSQL-backed MessageRepository.
type SQLMessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a message repository on the given database.
func NewMessageRepository(db *sqlx.DB) *SQLMessageRepository {
	return &SQLMessageRepository{db: db}
}

func (r *SQLMessageRepository) Create(ctx context.Context, message *models.Message) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO messages (ticket_id, sender_type, sender_id, content,
			raw_content, is_internal, source, email_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		message.TicketID, message.SenderType, message.SenderID, message.Content,
		message.RawContent, message.IsInternal, message.Source, message.EmailMessageID,
	).Scan(&message.ID, &message.CreatedAt)
	if err != nil {
		return err
	}
	for i := range message.Attachments {
		att := &message.Attachments[i]
		att.MessageID = message.ID
		if att.MimeType == "" {
			att.MimeType = "application/octet-stream"
		}
		if err := r.db.QueryRowxContext(ctx, `
			INSERT INTO attachments (message_id, filename, url, mime_type, size)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			att.MessageID, att.Filename, att.URL, att.MimeType, att.Size,
		).Scan(&att.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLMessageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT id, ticket_id, sender_type, sender_id, content, raw_content,
		       is_internal, source, email_message_id, created_at
		FROM messages
		WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC`, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		var attachments []models.Attachment
		if err := r.db.SelectContext(ctx, &attachments, `
			SELECT id, message_id, filename, url, mime_type, size
			FROM attachments WHERE message_id = $1 ORDER BY id`, messages[i].ID); err != nil {
			return nil, err
		}
		messages[i].Attachments = attachments
	}
	return messages, nil
}

func (r *SQLMessageRepository) ReassignTicket(ctx context.Context, fromTicketID, toTicketID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET ticket_id = $1 WHERE ticket_id = $2`,
		toTicketID, fromTicketID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
