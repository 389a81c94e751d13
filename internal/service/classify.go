package service

import "github.com/courierwatch/courier-tracker/internal/model"

// Classify decides what an observation means for a courier's open session.
// prior is the stored value of the latest session, nil when there is none.
//
// A countdown that drops below the stored value belongs to a newer drop-off,
// so it opens a new session. Equal, larger and missing readings continue the
// current one. Ties continue to avoid splitting sessions on duplicate polls.
func Classify(prior *float64, observed *int) model.Decision {
	if prior == nil {
		return model.DecisionBaseline
	}
	if observed != nil && float64(*observed) < *prior {
		return model.DecisionNewSession
	}
	return model.DecisionContinue
}
