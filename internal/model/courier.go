package model

import (
	"time"
)

type Courier struct {
	ID         int64     `db:"courier_id" json:"courierId"`
	Name       string    `db:"courier_name" json:"courierName"`
	Deliveries int       `db:"deliveries" json:"deliveries"`
	DelSum     float64   `db:"del_sum" json:"delSum"`
	AvgTime    float64   `db:"avg_time" json:"avgTime"`
	LastUpdate time.Time `db:"last_update" json:"lastUpdate"`
}

// CourierStats are the aggregates recomputed from a courier's sessions.
type CourierStats struct {
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

// NewCourierStats derives the average, which is zero when there are no sessions.
func NewCourierStats(count int, total float64) CourierStats {
	stats := CourierStats{Count: count, Total: total}
	if count > 0 {
		stats.Average = total / float64(count)
	}
	return stats
}
