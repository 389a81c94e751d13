package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/courierwatch/courier-tracker/internal/database"
)

// StoreRepository operates on the courier store as a whole.
type StoreRepository interface {
	// Truncate wipes couriers and their sessions and resets the id sequences.
	Truncate(ctx context.Context) error
}

type storeRepo struct {
	db database.DBTX
}

func NewStoreRepository(db *sqlx.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Truncate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE TABLE orders, couriers RESTART IDENTITY CASCADE`)
	return err
}
