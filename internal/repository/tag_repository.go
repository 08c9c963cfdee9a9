package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLTagRepository is the PostgreSQL-backed TagRepository.
type SQLTagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a tag repository on the given database.
func NewTagRepository(db *sqlx.DB) *SQLTagRepository {
	return &SQLTagRepository{db: db}
}

func (r *SQLTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO tags (name, color) VALUES ($1, $2)
		RETURNING id, created_at`,
		tag.Name, tag.Color,
	).Scan(&tag.ID, &tag.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLTagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.GetContext(ctx, &tag,
		`SELECT id, name, color, created_at FROM tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *SQLTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.SelectContext(ctx, &tags,
		`SELECT id, name, color, created_at FROM tags ORDER BY name`)
	return tags, err
}

func (r *SQLTagRepository) Update(ctx context.Context, tag *models.Tag) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tags SET name = $1, color = $2 WHERE id = $3`,
		tag.Name, tag.Color, tag.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTagRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLTagRepository) Attach(ctx context.Context, ticketID, tagID int64) error {
	// ON CONFLICT keeps repeat classification runs idempotent.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ticket_tags (ticket_id, tag_id) VALUES ($1, $2)
		ON CONFLICT (ticket_id, tag_id) DO NOTHING`, ticketID, tagID)
	return err
}

func (r *SQLTagRepository) Detach(ctx context.Context, ticketID, tagID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM ticket_tags WHERE ticket_id = $1 AND tag_id = $2`,
		ticketID, tagID)
	return err
}

func (r *SQLTagRepository) ListForTicket(ctx context.Context, ticketID int64) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM tags t
		JOIN ticket_tags tt ON tt.tag_id = t.id
		WHERE tt.ticket_id = $1
		ORDER BY t.name`, ticketID)
	return tags, err
}
