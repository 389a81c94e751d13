package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courierwatch/courier-tracker/internal/database"
	"github.com/courierwatch/courier-tracker/internal/model"
)

type CourierRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Courier, error)
	FindByName(ctx context.Context, name string) (*model.Courier, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Courier, error)
	// FindOrCreate returns the courier with the given name, inserting it with zero aggregates when unseen.
	FindOrCreate(ctx context.Context, name string, now time.Time) (*model.Courier, error)
	UpdateStats(ctx context.Context, id int64, stats model.CourierStats, now time.Time) error
	Count(ctx context.Context) (int, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) CourierRepository
}

type courierRepo struct {
	db database.DBTX
}

func NewCourierRepository(db *sqlx.DB) CourierRepository {
	return &courierRepo{db: db}
}

func (r *courierRepo) WithTx(tx *sqlx.Tx) CourierRepository {
	return &courierRepo{db: tx}
}

func (r *courierRepo) FindByID(ctx context.Context, id int64) (*model.Courier, error) {
	var courier model.Courier
	err := r.db.GetContext(ctx, &courier, `
		SELECT * FROM couriers WHERE courier_id = $1
	`, id)
	return HandleNotFound(&courier, err)
}

func (r *courierRepo) FindByName(ctx context.Context, name string) (*model.Courier, error) {
	var courier model.Courier
	err := r.db.GetContext(ctx, &courier, `
		SELECT * FROM couriers WHERE courier_name = $1
	`, name)
	return HandleNotFound(&courier, err)
}

func (r *courierRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Courier, error) {
	var couriers []model.Courier
	err := r.db.SelectContext(ctx, &couriers, `
		SELECT * FROM couriers
		ORDER BY courier_name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return couriers, nil
}

func (r *courierRepo) FindOrCreate(ctx context.Context, name string, now time.Time) (*model.Courier, error) {
	var courier model.Courier
	// The no-op update makes RETURNING yield the existing row on conflict.
	err := r.db.GetContext(ctx, &courier, `
		INSERT INTO couriers (courier_name, deliveries, del_sum, avg_time, last_update)
		VALUES ($1, 0, 0, 0, $2)
		ON CONFLICT (courier_name) DO UPDATE SET courier_name = EXCLUDED.courier_name
		RETURNING *
	`, name, now)
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func (r *courierRepo) UpdateStats(ctx context.Context, id int64, stats model.CourierStats, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE couriers SET
			deliveries = $2,
			del_sum = $3,
			avg_time = $4,
			last_update = $5
		WHERE courier_id = $1
	`, id, stats.Count, stats.Total, stats.Average, now)
	return err
}

func (r *courierRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM couriers`)
	return count, err
}
