package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/repository"
)

// Aggregator recomputes courier statistics from the stored sessions.
// It always starts from scratch, so running it twice yields the same result.
type Aggregator struct {
	courierRepo repository.CourierRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

func NewAggregator(
	courierRepo repository.CourierRepository,
	sessionRepo repository.SessionRepository,
	now func() time.Time,
) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		courierRepo: courierRepo,
		sessionRepo: sessionRepo,
		now:         now,
	}
}

// WithTx returns an aggregator bound to the given transaction.
func (a *Aggregator) WithTx(tx *sqlx.Tx) *Aggregator {
	return &Aggregator{
		courierRepo: a.courierRepo.WithTx(tx),
		sessionRepo: a.sessionRepo.WithTx(tx),
		now:         a.now,
	}
}

func (a *Aggregator) Recompute(ctx context.Context, courierID int64) (model.CourierStats, error) {
	count, total, err := a.sessionRepo.Totals(ctx, courierID)
	if err != nil {
		return model.CourierStats{}, fmt.Errorf("sum sessions: %w", err)
	}

	stats := model.NewCourierStats(count, total)
	if err := a.courierRepo.UpdateStats(ctx, courierID, stats, a.now()); err != nil {
		return model.CourierStats{}, fmt.Errorf("update courier stats: %w", err)
	}

	return stats, nil
}
