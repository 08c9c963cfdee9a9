package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLResourceRepository is the PostgreSQL-backed ResourceRepository.
type SQLResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a resource repository.
func NewResourceRepository(db *sqlx.DB) *SQLResourceRepository {
	return &SQLResourceRepository{db: db}
}

func (r *SQLResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO resources (title, url, category, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		resource.Title, resource.URL, resource.Category, resource.Notes,
	).Scan(&resource.ID, &resource.CreatedAt)
}

func (r *SQLResourceRepository) GetByID(ctx context.Context, id int64) (*models.Resource, error) {
	var resource models.Resource
	err := r.db.GetContext(ctx, &resource, `
		SELECT id, title, url, category, notes, created_at
		FROM resources WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *SQLResourceRepository) List(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	err := r.db.SelectContext(ctx, &resources, `
		SELECT id, title, url, category, notes, created_at
		FROM resources ORDER BY category, title`)
	return resources, err
}

func (r *SQLResourceRepository) Update(ctx context.Context, resource *models.Resource) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE resources SET title = $1, url = $2, category = $3, notes = $4
		WHERE id = $5`,
		resource.Title, resource.URL, resource.Category, resource.Notes, resource.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLResourceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
