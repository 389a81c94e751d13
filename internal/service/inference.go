package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/database"
	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/events"
	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/repository"
)

type RecordResult struct {
	Decision model.Decision     `json:"decision"`
	Courier  model.Courier      `json:"courier"`
	Session  model.Session      `json:"session"`
	Stats    model.CourierStats `json:"stats"`
}

type sessionEventData struct {
	CourierID        int64              `json:"courierId"`
	CourierName      string             `json:"courierName"`
	SessionID        int64              `json:"sessionId"`
	Decision         model.Decision     `json:"decision"`
	RemainingMinutes *float64           `json:"remainingMinutes"`
	ObservedAt       time.Time          `json:"observedAt"`
	Stats            model.CourierStats `json:"stats"`
}

// InferenceService turns observations into session rows, one observation at a time.
// It assumes a single caller: the latest-session read and the following write are
// not locked against concurrent producers.
type InferenceService struct {
	tx          database.Transactor
	courierRepo repository.CourierRepository
	sessionRepo repository.SessionRepository
	aggregator  *Aggregator
	publisher   events.Publisher
	now         func() time.Time
}

// ZoneClock reports the current wall clock in loc. Session timestamps are stored
// without a zone, so they are written in the configured business timezone.
func ZoneClock(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

func NewInferenceService(
	tx database.Transactor,
	courierRepo repository.CourierRepository,
	sessionRepo repository.SessionRepository,
	publisher events.Publisher,
	now func() time.Time,
) *InferenceService {
	if now == nil {
		now = time.Now
	}
	return &InferenceService{
		tx:          tx,
		courierRepo: courierRepo,
		sessionRepo: sessionRepo,
		aggregator:  NewAggregator(courierRepo, sessionRepo, now),
		publisher:   publisher,
		now:         now,
	}
}

// RecordObservation stores one observation and refreshes the courier's aggregates
// in a single transaction.
//
// Only store connectivity failures are returned. Unreadable observations and
// failed statements are logged and reported as a nil result, so one bad reading
// never stops the poll loop.
func (s *InferenceService) RecordObservation(ctx context.Context, obs model.Observation) (*RecordResult, error) {
	name := strings.TrimSpace(obs.CourierName)
	if name == "" {
		log.Warn().Err(apperrors.TransientObservation("empty courier name")).Msg("observation skipped")
		return nil, nil
	}

	now := s.now()
	var (
		result     *RecordResult
		priorValue *float64
	)

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		couriers := s.courierRepo.WithTx(tx)
		sessions := s.sessionRepo.WithTx(tx)

		courier, err := couriers.FindOrCreate(ctx, name, now)
		if err != nil {
			return fmt.Errorf("resolve courier: %w", err)
		}

		latest, err := sessions.FindLatestByCourierID(ctx, courier.ID)
		if err != nil {
			return fmt.Errorf("find latest session: %w", err)
		}

		if latest != nil {
			v := latest.Value()
			priorValue = &v
		}

		decision := Classify(priorValue, obs.RemainingMinutes)
		session, err := s.apply(ctx, sessions, decision, courier.ID, latest, obs.RemainingMinutes, now)
		if err != nil {
			return err
		}

		stats, err := s.aggregator.WithTx(tx).Recompute(ctx, courier.ID)
		if err != nil {
			return fmt.Errorf("recompute aggregates: %w", err)
		}

		courier.Deliveries = stats.Count
		courier.DelSum = stats.Total
		courier.AvgTime = stats.Average
		courier.LastUpdate = now

		result = &RecordResult{
			Decision: decision,
			Courier:  *courier,
			Session:  *session,
			Stats:    stats,
		}
		return nil
	})
	if err != nil {
		if database.IsConnectionError(err) {
			return nil, apperrors.StoreConnection(err)
		}
		log.Error().Err(err).Str("courier", name).Msg("failed to record observation")
		return nil, nil
	}

	logDecision(result, priorValue, obs.RemainingMinutes)
	s.publish(ctx, result)

	return result, nil
}

func (s *InferenceService) apply(
	ctx context.Context,
	sessions repository.SessionRepository,
	decision model.Decision,
	courierID int64,
	latest *model.Session,
	observed *int,
	now time.Time,
) (*model.Session, error) {
	switch decision {
	case model.DecisionBaseline:
		session, err := sessions.Create(ctx, model.CreateSessionParams{
			CourierID:        courierID,
			RemainingMinutes: 0,
			ObservedAt:       now,
		})
		if err != nil {
			return nil, fmt.Errorf("insert baseline session: %w", err)
		}
		return session, nil

	case model.DecisionNewSession:
		session, err := sessions.Create(ctx, model.CreateSessionParams{
			CourierID:        courierID,
			RemainingMinutes: float64(*observed),
			ObservedAt:       now,
		})
		if err != nil {
			return nil, fmt.Errorf("insert session: %w", err)
		}
		return session, nil

	default:
		var value *float64
		if observed != nil {
			v := float64(*observed)
			value = &v
		}
		if err := sessions.Touch(ctx, latest.ID, value, now); err != nil {
			return nil, fmt.Errorf("update session %d: %w", latest.ID, err)
		}
		updated := *latest
		if value != nil {
			updated.RemainingMinutes = value
		}
		updated.ObservedAt = now
		return &updated, nil
	}
}

func (s *InferenceService) publish(ctx context.Context, result *RecordResult) {
	if s.publisher == nil {
		return
	}

	eventType := model.EventSessionUpdated
	if result.Decision != model.DecisionContinue {
		eventType = model.EventSessionStarted
	}

	event, err := events.NewEvent(eventType, sessionEventData{
		CourierID:        result.Courier.ID,
		CourierName:      result.Courier.Name,
		SessionID:        result.Session.ID,
		Decision:         result.Decision,
		RemainingMinutes: result.Session.RemainingMinutes,
		ObservedAt:       result.Session.ObservedAt,
		Stats:            result.Stats,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		log.Warn().Err(err).Str("courier", result.Courier.Name).Msg("failed to publish session event")
	}
}

func logDecision(result *RecordResult, prior *float64, observed *int) {
	event := log.Info()
	msg := "new delivery session started"
	switch result.Decision {
	case model.DecisionBaseline:
		msg = "first session recorded"
	case model.DecisionContinue:
		event = log.Debug()
		msg = "session updated"
	}

	event = event.
		Str("courier", result.Courier.Name).
		Str("decision", string(result.Decision)).
		Int64("sessionId", result.Session.ID)
	if prior != nil {
		event = event.Float64("prior", *prior)
	}
	if observed != nil {
		event = event.Int("observed", *observed)
	} else {
		event = event.Bool("countdownVisible", false)
	}

	event.
		Int("deliveries", result.Stats.Count).
		Float64("avgTime", result.Stats.Average).
		Msg(msg)
}
