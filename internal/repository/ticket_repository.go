package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

const ticketColumns = `id, number, subject, status, priority, channel, customer_id,
	assignee_id, team_id, brand_id, reference_id, merged_into_ticket_id,
	snoozed_until, snoozed_by, created_at, updated_at`

// SQLTicketRepository is the PostgreSQL-backed TicketRepository. The
// human-readable ticket number comes from the tickets_number_seq sequence.
type SQLTicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a ticket repository on the given database.
func NewTicketRepository(db *sqlx.DB) *SQLTicketRepository {
	return &SQLTicketRepository{db: db}
}

func (r *SQLTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO tickets (subject, status, priority, channel, customer_id,
			assignee_id, team_id, brand_id, reference_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, number, created_at, updated_at`,
		ticket.Subject, ticket.Status, ticket.Priority, ticket.Channel,
		ticket.CustomerID, ticket.AssigneeID, ticket.TeamID, ticket.BrandID,
		ticket.ReferenceID,
	).Scan(&ticket.ID, &ticket.Number, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *SQLTicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.GetContext(ctx, &ticket,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *SQLTicketRepository) GetByReferenceID(ctx context.Context, referenceID string) (*models.Ticket, error) {
	var ticket models.Ticket
	// reference_id is not schema-enforced unique; take the most recently
	// updated row when duplicates exist.
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE reference_id = $1 AND merged_into_ticket_id IS NULL
		ORDER BY updated_at DESC
		LIMIT 1`, referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *SQLTicketRepository) LatestActiveForCustomer(ctx context.Context, customerID int64, channel models.Channel) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.GetContext(ctx, &ticket, `
		SELECT `+ticketColumns+` FROM tickets
		WHERE customer_id = $1 AND channel = $2
		  AND status IN ('open', 'pending')
		  AND merged_into_ticket_id IS NULL
		ORDER BY updated_at DESC
		LIMIT 1`, customerID, channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *SQLTicketRepository) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	where := []string{"merged_into_ticket_id IS NULL"}
	args := []any{}
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Channel != "" {
		add("channel = $%d", filter.Channel)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority)
	}
	if filter.CustomerID > 0 {
		add("customer_id = $%d", filter.CustomerID)
	}
	if filter.AssigneeID > 0 {
		add("assignee_id = $%d", filter.AssigneeID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` +
		strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY updated_at DESC LIMIT %d OFFSET %d", limit, max(filter.Offset, 0))
	var tickets []models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *SQLTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET subject = $1, status = $2, priority = $3, assignee_id = $4,
		    team_id = $5, brand_id = $6, snoozed_until = $7, snoozed_by = $8,
		    updated_at = now()
		WHERE id = $9`,
		ticket.Subject, ticket.Status, ticket.Priority, ticket.AssigneeID,
		ticket.TeamID, ticket.BrandID, ticket.SnoozedUntil, ticket.SnoozedBy,
		ticket.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTicketRepository) Reopen(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'open', snoozed_until = NULL, snoozed_by = NULL, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTicketRepository) BackfillReferenceID(ctx context.Context, id int64, referenceID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET reference_id = $1
		WHERE id = $2 AND reference_id IS NULL`, referenceID, id)
	return err
}

func (r *SQLTicketRepository) SetPriority(ctx context.Context, id int64, priority models.TicketPriority) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets SET priority = $1, updated_at = now() WHERE id = $2`,
		priority, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTicketRepository) MarkMerged(ctx context.Context, sourceID, targetID int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET merged_into_ticket_id = $1, status = 'closed', updated_at = now()
		WHERE id = $2 AND merged_into_ticket_id IS NULL`, targetID, sourceID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTicketRepository) ReopenExpiredSnoozes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tickets
		SET status = 'open', snoozed_until = NULL, snoozed_by = NULL, updated_at = now()
		WHERE snoozed_until IS NOT NULL AND snoozed_until <= $1
		  AND status <> 'closed' AND merged_into_ticket_id IS NULL`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
