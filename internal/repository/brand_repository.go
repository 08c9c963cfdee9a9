package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLBrandRepository is the PostgreSQL-backed BrandRepository.
type SQLBrandRepository struct {
	db *sqlx.DB
}

// NewBrandRepository creates a brand repository on the given database.
func NewBrandRepository(db *sqlx.DB) *SQLBrandRepository {
	return &SQLBrandRepository{db: db}
}

func (r *SQLBrandRepository) Create(ctx context.Context, brand *models.Brand) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO brands (name, inbound_address, from_address, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		brand.Name, brand.InboundAddress, brand.FromAddress, brand.Active,
	).Scan(&brand.ID, &brand.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLBrandRepository) List(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := r.db.SelectContext(ctx, &brands, `
		SELECT id, name, inbound_address, from_address, active, created_at
		FROM brands ORDER BY name`)
	return brands, err
}

func (r *SQLBrandRepository) GetByInboundAddress(ctx context.Context, address string) (*models.Brand, error) {
	var brand models.Brand
	err := r.db.GetContext(ctx, &brand, `
		SELECT id, name, inbound_address, from_address, active, created_at
		FROM brands
		WHERE inbound_address = $1 AND active`, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &brand, nil
}
