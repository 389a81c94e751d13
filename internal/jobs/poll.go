package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
	"github.com/courierwatch/courier-tracker/internal/service"
)

// ObservationSource yields the observations gathered since the previous call.
type ObservationSource interface {
	Poll(ctx context.Context) ([]model.Observation, error)
}

type ObservationRecorder interface {
	RecordObservation(ctx context.Context, obs model.Observation) (*service.RecordResult, error)
}

type Purger interface {
	MaybePurge(ctx context.Context, now time.Time) (bool, error)
}

// SummaryFetcher pings the upstream dashboard summary endpoint.
type SummaryFetcher interface {
	FetchSummary(ctx context.Context) (int, error)
}

type TickResult struct {
	Observed int
	Recorded int
	Skipped  int
	Failed   int
	Purged   bool
}

// PollJob is the single producer feeding the session store. Each tick drains
// the source, records observations in order, then gives retention a chance to run.
type PollJob struct {
	source   ObservationSource
	recorder ObservationRecorder
	purger   Purger
	summary  SummaryFetcher
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewPollJob(
	source ObservationSource,
	recorder ObservationRecorder,
	purger Purger,
	summary SummaryFetcher,
	interval time.Duration,
) *PollJob {
	return &PollJob{
		source:   source,
		recorder: recorder,
		purger:   purger,
		summary:  summary,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (j *PollJob) Start() {
	j.wg.Add(1)
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("poll job started")
}

// Stop waits for an in-flight tick to finish, so no observation is left half written.
func (j *PollJob) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		j.wg.Wait()
		log.Info().Msg("poll job stopped")
	})
}

// Drain stops the loop and runs one last tick under its own deadline. Batches
// accepted before shutdown are recorded even when the caller's context is spent.
func (j *PollJob) Drain(timeout time.Duration) TickResult {
	j.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return j.Tick(ctx)
}

func (j *PollJob) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Tick(context.Background())

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.Tick(context.Background())
		}
	}
}

// Tick runs one poll iteration. Failures are logged; the loop keeps going.
func (j *PollJob) Tick(ctx context.Context) TickResult {
	var result TickResult

	if j.summary != nil {
		if status, err := j.summary.FetchSummary(ctx); err != nil {
			log.Warn().Err(err).Msg("dashboard summary request failed")
		} else {
			log.Debug().Int("status", status).Msg("dashboard summary fetched")
		}
	}

	observations, err := j.source.Poll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to poll observations")
	}
	result.Observed = len(observations)

	for _, obs := range observations {
		recorded, err := j.recorder.RecordObservation(ctx, obs)
		switch {
		case err != nil:
			result.Failed++
			msg := "failed to record observation"
			if apperrors.HasCode(err, apperrors.ErrCodeStoreConnection) {
				msg = "store unreachable, observation dropped"
			}
			log.Error().
				Err(err).
				Str("courier", obs.CourierName).
				Str("code", string(apperrors.GetCode(err))).
				Msg(msg)
		case recorded == nil:
			result.Skipped++
		default:
			result.Recorded++
		}
	}

	purged, err := j.purger.MaybePurge(ctx, j.now())
	if err != nil {
		log.Error().Err(err).Msg("retention check failed")
	}
	result.Purged = purged

	if result.Observed > 0 || result.Purged {
		log.Info().
			Int("observed", result.Observed).
			Int("recorded", result.Recorded).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Bool("purged", result.Purged).
			Msg("poll tick complete")
	}
	return result
}
