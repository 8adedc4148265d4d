package logging

import "time"

// Outcome classifies a logged decision.
type Outcome string

const (
	OutcomeDecided    Outcome = "decided"
	OutcomeAggregated Outcome = "aggregated"
	OutcomeRejected   Outcome = "rejected"
)

// #region decision-entry
// DecisionEntry is a single row in the decision_log table.
type DecisionEntry struct {
	DecisionID  string
	AgentID     string
	VersionID   string
	ContextJSON string
	OutputJSON  string
	Outcome     Outcome
	Reason      string
	CreatedAt   time.Time
}

// #endregion decision-entry
