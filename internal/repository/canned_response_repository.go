package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLCannedResponseRepository is the PostgreSQL-backed CannedResponseRepository.
type SQLCannedResponseRepository struct {
	db *sqlx.DB
}

// NewCannedResponseRepository creates a canned response repository.
func NewCannedResponseRepository(db *sqlx.DB) *SQLCannedResponseRepository {
	return &SQLCannedResponseRepository{db: db}
}

func (r *SQLCannedResponseRepository) Create(ctx context.Context, response *models.CannedResponse) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO canned_responses (title, shortcut, body)
		VALUES ($1, $2, $3)
		RETURNING id, usage_count, created_at, updated_at`,
		response.Title, response.Shortcut, response.Body,
	).Scan(&response.ID, &response.UsageCount, &response.CreatedAt, &response.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLCannedResponseRepository) GetByID(ctx context.Context, id int64) (*models.CannedResponse, error) {
	var response models.CannedResponse
	err := r.db.GetContext(ctx, &response, `
		SELECT id, title, shortcut, body, usage_count, created_at, updated_at
		FROM canned_responses WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *SQLCannedResponseRepository) List(ctx context.Context) ([]models.CannedResponse, error) {
	var responses []models.CannedResponse
	err := r.db.SelectContext(ctx, &responses, `
		SELECT id, title, shortcut, body, usage_count, created_at, updated_at
		FROM canned_responses ORDER BY title`)
	return responses, err
}

func (r *SQLCannedResponseRepository) Update(ctx context.Context, response *models.CannedResponse) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE canned_responses
		SET title = $1, shortcut = $2, body = $3, updated_at = now()
		WHERE id = $4`,
		response.Title, response.Shortcut, response.Body, response.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLCannedResponseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM canned_responses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLCannedResponseRepository) IncrementUsage(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE canned_responses SET usage_count = usage_count + 1 WHERE id = $1`, id)
	return err
}
