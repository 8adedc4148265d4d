package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an agent has no active tree or a version does not exist.
var ErrNotFound = errors.New("not found")

// #region tree-version
// TreeVersion is one stored decision tree envelope of an agent.
type TreeVersion struct {
	VersionID string
	AgentID   string
	ParentID  string
	// ModelVersion is the envelope's "_version" field.
	ModelVersion string
	Outputs      []string
	Envelope     []byte
	CreatedAt    time.Time
}

// #endregion tree-version

// #region version-summary
// VersionSummary is a listing row; Envelope bytes are not loaded.
type VersionSummary struct {
	VersionID    string
	AgentID      string
	ParentID     string
	ModelVersion string
	Outputs      []string
	CreatedAt    time.Time
	Active       bool
}

// #endregion version-summary
