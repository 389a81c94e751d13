package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/audit"
	"github.com/courierwatch/courier-tracker/internal/database"
	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/events"
	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/repository"
)

type courierCounter interface {
	Count(ctx context.Context) (int, error)
}

type purgedEventData struct {
	Couriers int       `json:"couriers"`
	At       time.Time `json:"at"`
}

// RetentionJob wipes the whole store during the nightly maintenance window.
type RetentionJob struct {
	courierRepo courierCounter
	storeRepo   repository.StoreRepository
	publisher   events.Publisher
	window      Window
	location    *time.Location
}

func NewRetentionJob(
	courierRepo courierCounter,
	storeRepo repository.StoreRepository,
	publisher events.Publisher,
	window Window,
	location *time.Location,
) *RetentionJob {
	if location == nil {
		location = time.UTC
	}
	return &RetentionJob{
		courierRepo: courierRepo,
		storeRepo:   storeRepo,
		publisher:   publisher,
		window:      window,
		location:    location,
	}
}

// MaybePurge truncates couriers and sessions when now falls inside the window
// and at least one courier exists. It reports whether a purge happened.
func (j *RetentionJob) MaybePurge(ctx context.Context, now time.Time) (bool, error) {
	local := now.In(j.location)
	if !j.window.Contains(local) {
		return false, nil
	}

	count, err := j.courierRepo.Count(ctx)
	if err != nil {
		return false, storeError("count couriers", err)
	}
	if count == 0 {
		log.Debug().Time("at", local).Msg("maintenance window open, store already empty")
		return false, nil
	}

	if err := j.storeRepo.Truncate(ctx); err != nil {
		return false, storeError("truncate store", err)
	}

	log.Info().
		Int("couriers", count).
		Time("at", local).
		Str("window", j.window.String()).
		Msg("store purged")

	audit.Log(ctx, audit.Event{
		Type:   audit.EventStorePurged,
		Source: "retention",
		Details: map[string]interface{}{
			"couriers": count,
			"at":       local,
		},
	})

	j.publish(ctx, purgedEventData{Couriers: count, At: local})
	return true, nil
}

func (j *RetentionJob) publish(ctx context.Context, data purgedEventData) {
	if j.publisher == nil {
		return
	}
	event, err := events.NewEvent(model.EventPurged, data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode purge event")
		return
	}
	if err := j.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish purge event")
	}
}

func storeError(op string, err error) error {
	if database.IsConnectionError(err) {
		return apperrors.StoreConnection(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
