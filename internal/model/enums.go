package model

type Decision string

const (
	DecisionBaseline   Decision = "baseline"
	DecisionContinue   Decision = "continue"
	DecisionNewSession Decision = "new_session"
)

type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionUpdated EventType = "session_updated"
	EventPurged         EventType = "purged"
)
