// Package store keeps versioned decision tree envelopes per agent in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region schema
// timeLayout keeps fractional seconds at a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS tree_versions (
	version_id    TEXT PRIMARY KEY,
	agent_id      TEXT NOT NULL,
	parent_id     TEXT,
	model_version TEXT NOT NULL,
	outputs       TEXT NOT NULL,
	envelope      BLOB NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES tree_versions(version_id)
);

CREATE INDEX IF NOT EXISTS tree_versions_agent ON tree_versions(agent_id, created_at);

CREATE TABLE IF NOT EXISTS active_trees (
	agent_id      TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES tree_versions(version_id)
);

CREATE TABLE IF NOT EXISTS decision_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	decision_id    TEXT NOT NULL,
	agent_id       TEXT NOT NULL,
	version_id     TEXT,
	context_json   TEXT NOT NULL,
	output_json    TEXT,
	outcome        TEXT NOT NULL,
	reason         TEXT,
	created_at     TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store manages versioned tree envelopes in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, shared with the decision log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region put
// Put validates an envelope and stores it as the agent's new active version. The
// previously active version, if any, becomes its parent.
func (s *Store) Put(agentID string, envelope []byte) (TreeVersion, error) {
	env, err := tree.Parse(envelope)
	if err != nil {
		return TreeVersion{}, fmt.Errorf("validate envelope: %w", err)
	}
	outputsJSON, err := json.Marshal(env.Configuration.Output)
	if err != nil {
		return TreeVersion{}, fmt.Errorf("marshal outputs: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return TreeVersion{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var parent sql.NullString
	err = tx.QueryRow(`SELECT version_id FROM active_trees WHERE agent_id = ?`, agentID).Scan(&parent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return TreeVersion{}, fmt.Errorf("get active: %w", err)
	}

	rec := TreeVersion{
		VersionID:    uuid.New().String(),
		AgentID:      agentID,
		ParentID:     parent.String,
		ModelVersion: env.Version,
		Outputs:      env.Configuration.Output,
		Envelope:     envelope,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = tx.Exec(
		`INSERT INTO tree_versions (version_id, agent_id, parent_id, model_version, outputs, envelope, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, agentID, nullIfEmpty(rec.ParentID), rec.ModelVersion, string(outputsJSON),
		envelope, rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return TreeVersion{}, fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_trees (agent_id, version_id) VALUES (?, ?)
		 ON CONFLICT(agent_id) DO UPDATE SET version_id = excluded.version_id`,
		agentID, rec.VersionID,
	)
	if err != nil {
		return TreeVersion{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TreeVersion{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion put

// #region get
// Active reads the agent's active version.
func (s *Store) Active(agentID string) (TreeVersion, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_trees WHERE agent_id = ?`, agentID).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return TreeVersion{}, fmt.Errorf("agent %s has no active tree: %w", agentID, ErrNotFound)
	}
	if err != nil {
		return TreeVersion{}, fmt.Errorf("get active: %w", err)
	}
	return s.Version(versionID)
}

// Version retrieves a stored version by ID.
func (s *Store) Version(id string) (TreeVersion, error) {
	var rec TreeVersion
	var parentID sql.NullString
	var outputsJSON, createdStr string

	err := s.db.QueryRow(
		`SELECT version_id, agent_id, parent_id, model_version, outputs, envelope, created_at
		 FROM tree_versions WHERE version_id = ?`, id,
	).Scan(&rec.VersionID, &rec.AgentID, &parentID, &rec.ModelVersion, &outputsJSON, &rec.Envelope, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return TreeVersion{}, fmt.Errorf("version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return TreeVersion{}, fmt.Errorf("get version %s: %w", id, err)
	}

	rec.ParentID = parentID.String
	if err := json.Unmarshal([]byte(outputsJSON), &rec.Outputs); err != nil {
		return TreeVersion{}, fmt.Errorf("unmarshal outputs: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	return rec, nil
}

// VersionAt returns the agent's newest version created at or before at.
func (s *Store) VersionAt(agentID string, at time.Time) (TreeVersion, error) {
	var versionID string
	err := s.db.QueryRow(
		`SELECT version_id FROM tree_versions
		 WHERE agent_id = ? AND created_at <= ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		agentID, at.UTC().Format(timeLayout),
	).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return TreeVersion{}, fmt.Errorf("agent %s has no tree at %s: %w", agentID, at.UTC().Format(time.RFC3339), ErrNotFound)
	}
	if err != nil {
		return TreeVersion{}, fmt.Errorf("version at: %w", err)
	}
	return s.Version(versionID)
}

// Load returns the agent's active envelope, parsed.
func (s *Store) Load(agentID string) (*tree.Envelope, TreeVersion, error) {
	rec, err := s.Active(agentID)
	if err != nil {
		return nil, TreeVersion{}, err
	}
	env, err := tree.Parse(rec.Envelope)
	if err != nil {
		return nil, TreeVersion{}, fmt.Errorf("parse version %s: %w", rec.VersionID, err)
	}
	return env, rec, nil
}

// #endregion get

// #region rollback
// Rollback makes a previous version of the agent active again.
func (s *Store) Rollback(agentID, targetVersionID string) error {
	var owner string
	err := s.db.QueryRow(
		`SELECT agent_id FROM tree_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("version %s: %w", targetVersionID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if owner != agentID {
		return fmt.Errorf("version %s belongs to agent %s, not %s", targetVersionID, owner, agentID)
	}

	_, err = s.db.Exec(`UPDATE active_trees SET version_id = ? WHERE agent_id = ?`, targetVersionID, agentID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the most recent versions, newest first. An empty agentID lists
// every agent.
func (s *Store) ListVersions(agentID string, limit int) ([]VersionSummary, error) {
	rows, err := s.db.Query(
		`SELECT v.version_id, v.agent_id, v.parent_id, v.model_version, v.outputs, v.created_at,
		        a.version_id IS NOT NULL
		 FROM tree_versions v
		 LEFT JOIN active_trees a ON a.version_id = v.version_id
		 WHERE ? = '' OR v.agent_id = ?
		 ORDER BY v.created_at DESC, v.rowid DESC LIMIT ?`, agentID, agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []VersionSummary
	for rows.Next() {
		var v VersionSummary
		var parentID sql.NullString
		var outputsJSON, createdStr string
		if err := rows.Scan(&v.VersionID, &v.AgentID, &parentID, &v.ModelVersion, &outputsJSON, &createdStr, &v.Active); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		v.ParentID = parentID.String
		if err := json.Unmarshal([]byte(outputsJSON), &v.Outputs); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
		v.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		out = append(out, v)
	}
	return out, rows.Err()
}

// #endregion list-versions

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
