package repository

import (
	"database/sql"
	"errors"

	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/deskhive/deskhive/internal/models"
)

// SQLCustomerRepository is the PostgreSQL-backed CustomerRepository.
type SQLCustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a customer repository on the given database.
func NewCustomerRepository(db *sqlx.DB) *SQLCustomerRepository {
	return &SQLCustomerRepository{db: db}
}

func (r *SQLCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO customers (email, full_name, phone, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		customer.Email, customer.FullName, customer.Phone, customer.Metadata,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLCustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT id, email, full_name, phone, metadata, created_at, updated_at
		FROM customers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *SQLCustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT id, email, full_name, phone, metadata, created_at, updated_at
		FROM customers WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
