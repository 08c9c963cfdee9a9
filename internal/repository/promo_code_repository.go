package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLPromoCodeRepository is the PostgreSQL-backed PromoCodeRepository.
type SQLPromoCodeRepository struct {
	db *sqlx.DB
}

// NewPromoCodeRepository creates a promo code repository.
func NewPromoCodeRepository(db *sqlx.DB) *SQLPromoCodeRepository {
	return &SQLPromoCodeRepository{db: db}
}

func (r *SQLPromoCodeRepository) Create(ctx context.Context, code *models.PromoCode) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO promo_codes (code, description, kind, value, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		code.Code, code.Description, code.Kind, code.Value, code.ExpiresAt, code.Active,
	).Scan(&code.ID, &code.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLPromoCodeRepository) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	var code models.PromoCode
	err := r.db.GetContext(ctx, &code, `
		SELECT id, code, description, kind, value, expires_at, active, created_at
		FROM promo_codes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *SQLPromoCodeRepository) List(ctx context.Context) ([]models.PromoCode, error) {
	var codes []models.PromoCode
	err := r.db.SelectContext(ctx, &codes, `
		SELECT id, code, description, kind, value, expires_at, active, created_at
		FROM promo_codes ORDER BY code`)
	return codes, err
}

func (r *SQLPromoCodeRepository) Update(ctx context.Context, code *models.PromoCode) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE promo_codes
		SET code = $1, description = $2, kind = $3, value = $4, expires_at = $5, active = $6
		WHERE id = $7`,
		code.Code, code.Description, code.Kind, code.Value, code.ExpiresAt,
		code.Active, code.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

func (r *SQLPromoCodeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}
