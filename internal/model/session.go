package model

import (
	"time"
)

// Session is one inferred delivery cycle, stored in the orders table.
type Session struct {
	ID               int64     `db:"order_id" json:"orderId"`
	CourierID        int64     `db:"courier_id" json:"courierId"`
	RemainingMinutes *float64  `db:"time_taken" json:"timeTaken"`
	ObservedAt       time.Time `db:"cur_time" json:"curTime"`
}

// Value returns the stored countdown, reading a stored null as zero.
func (s *Session) Value() float64 {
	if s.RemainingMinutes == nil {
		return 0
	}
	return *s.RemainingMinutes
}

type CreateSessionParams struct {
	CourierID        int64
	RemainingMinutes float64
	ObservedAt       time.Time
}
