package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courierwatch/courier-tracker/internal/database"
	"github.com/courierwatch/courier-tracker/internal/model"
)

type SessionRepository interface {
	// FindLatestByCourierID returns the courier's open session, or nil when it has none.
	FindLatestByCourierID(ctx context.Context, courierID int64) (*model.Session, error)
	FindByCourierID(ctx context.Context, courierID int64) ([]model.Session, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Session, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)
	// Touch updates a session in place. A nil value keeps the stored countdown.
	Touch(ctx context.Context, id int64, value *float64, at time.Time) error
	Totals(ctx context.Context, courierID int64) (count int, total float64, err error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

type sessionRepo struct {
	db database.DBTX
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindLatestByCourierID(ctx context.Context, courierID int64) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM orders
		WHERE courier_id = $1
		ORDER BY cur_time DESC, order_id DESC
		LIMIT 1
	`, courierID)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) FindByCourierID(ctx context.Context, courierID int64) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM orders
		WHERE courier_id = $1
		ORDER BY cur_time, order_id
	`, courierID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) FindAll(ctx context.Context, limit, offset int) ([]model.Session, error) {
	var sessions []model.Session
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT * FROM orders
		ORDER BY cur_time DESC, order_id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var session model.Session
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO orders (courier_id, time_taken, cur_time)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.CourierID, params.RemainingMinutes, params.ObservedAt)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Touch(ctx context.Context, id int64, value *float64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			time_taken = COALESCE($2, time_taken),
			cur_time = $3
		WHERE order_id = $1
	`, id, value, at)
	return err
}

func (r *sessionRepo) Totals(ctx context.Context, courierID int64) (int, float64, error) {
	var totals struct {
		Count int     `db:"count"`
		Total float64 `db:"total"`
	}
	err := r.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS count, COALESCE(SUM(COALESCE(time_taken, 0)), 0) AS total
		FROM orders
		WHERE courier_id = $1
	`, courierID)
	if err != nil {
		return 0, 0, err
	}
	return totals.Count, totals.Total, nil
}
