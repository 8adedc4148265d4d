package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/treedecide/internal/engine"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region new-entry
// NewDecisionEntry records the outcome of one decision. When err is non-nil the entry
// is a rejection carrying the error message and the caller's raw state.
func NewDecisionEntry(agentID, versionID string, state map[string]any, res *engine.Result, err error) (DecisionEntry, error) {
	entry := DecisionEntry{
		DecisionID: uuid.New().String(),
		AgentID:    agentID,
		VersionID:  versionID,
		CreatedAt:  time.Now().UTC(),
	}

	if err != nil {
		ctx, merr := json.Marshal(state)
		if merr != nil {
			return DecisionEntry{}, fmt.Errorf("marshal state: %w", merr)
		}
		entry.ContextJSON = string(ctx)
		entry.Outcome = OutcomeRejected
		entry.Reason = err.Error()
		return entry, nil
	}

	ctx, merr := json.Marshal(res.Context)
	if merr != nil {
		return DecisionEntry{}, fmt.Errorf("marshal context: %w", merr)
	}
	out, merr := json.Marshal(res.Output)
	if merr != nil {
		return DecisionEntry{}, fmt.Errorf("marshal output: %w", merr)
	}
	entry.ContextJSON = string(ctx)
	entry.OutputJSON = string(out)
	entry.Outcome = OutcomeDecided
	if res.Aggregated() {
		entry.Outcome = OutcomeAggregated
	}
	return entry, nil
}

// #endregion new-entry

// #region log-decision
// LogDecision writes an entry to the decision_log table.
func LogDecision(db *sql.DB, entry DecisionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (decision_id, agent_id, version_id, context_json, output_json, outcome, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.DecisionID,
		entry.AgentID,
		nullIfEmpty(entry.VersionID),
		entry.ContextJSON,
		nullIfEmpty(entry.OutputJSON),
		string(entry.Outcome),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent
// RecentDecisions returns the latest entries, newest first. An empty agentID matches
// every agent.
func RecentDecisions(db *sql.DB, agentID string, limit int) ([]DecisionEntry, error) {
	rows, err := db.Query(
		`SELECT decision_id, agent_id, version_id, context_json, output_json, outcome, reason, created_at
		 FROM decision_log
		 WHERE ? = '' OR agent_id = ?
		 ORDER BY id DESC LIMIT ?`, agentID, agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent decisions: %w", err)
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var e DecisionEntry
		var versionID, outputJSON, reason sql.NullString
		var outcome, createdStr string
		if err := rows.Scan(&e.DecisionID, &e.AgentID, &versionID, &e.ContextJSON, &outputJSON, &outcome, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.VersionID = versionID.String
		e.OutputJSON = outputJSON.String
		e.Reason = reason.String
		e.Outcome = Outcome(outcome)
		e.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
