package model

// Observation is one reading of a courier's order card.
// A nil RemainingMinutes means no countdown was visible.
type Observation struct {
	CourierName      string `json:"courierName"`
	RemainingMinutes *int   `json:"remainingMinutes"`
}

func NewObservation(name string, minutes int) Observation {
	return Observation{CourierName: name, RemainingMinutes: &minutes}
}
