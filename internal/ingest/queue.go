package ingest

import (
	"context"

	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
	"github.com/courierwatch/courier-tracker/internal/model"
)

// Queue buffers observation batches between the ingest endpoint and the poll loop.
// Any number of handlers may enqueue; only the poll loop drains.
type Queue struct {
	batches chan []model.Observation
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{batches: make(chan []model.Observation, size)}
}

// Enqueue adds a batch without blocking. A full queue returns a QUEUE_FULL error.
func (q *Queue) Enqueue(batch []model.Observation) error {
	if len(batch) == 0 {
		return nil
	}
	select {
	case q.batches <- batch:
		return nil
	default:
		return apperrors.QueueFull()
	}
}

// Poll drains every batch queued so far, preserving arrival order.
func (q *Queue) Poll(ctx context.Context) ([]model.Observation, error) {
	var observations []model.Observation
	for {
		if err := ctx.Err(); err != nil {
			return observations, err
		}
		select {
		case batch := <-q.batches:
			observations = append(observations, batch...)
		default:
			return observations, nil
		}
	}
}

// Len returns the number of batches waiting.
func (q *Queue) Len() int {
	return len(q.batches)
}

func (q *Queue) Cap() int {
	return cap(q.batches)
}
