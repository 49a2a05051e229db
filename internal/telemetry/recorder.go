// Package telemetry records what a control session put on the wire, so a
// run can be inspected after the fact. Sessions and their commands land in
// a local sqlite database; History accumulates in-memory statistics.
package telemetry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gait-works/gaitctl/internal/robot"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id   TEXT PRIMARY KEY,
		policy       TEXT,
		started_at   TIMESTAMP,
		ended_at     TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS commands (
		session_id   TEXT,
		sequence_key BIGINT,
		positions    TEXT,
		end_time     TIMESTAMP,
		recorded_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(session_id) REFERENCES sessions(session_id)
	);
`

// Recorder appends one session's commands to a sqlite database. It is
// called from the command-stream goroutine only, so it needs no locking of
// its own.
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// OpenRecorder opens (creating if needed) the database at path and starts a
// new session row tagged with the policy being driven.
func OpenRecorder(path, policy string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create telemetry schema: %w", err)
	}

	id := uuid.NewString()
	if _, err := db.Exec(
		`INSERT INTO sessions (session_id, policy, started_at) VALUES (?, ?, ?)`,
		id, policy, time.Now().UTC(),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert session row: %w", err)
	}
	return &Recorder{db: db, sessionID: id}, nil
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// RecordCommand appends one command.
func (r *Recorder) RecordCommand(cmd *robot.Command) error {
	positions, err := json.Marshal(cmd.Position)
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT INTO commands (session_id, sequence_key, positions, end_time) VALUES (?, ?, ?, ?)`,
		r.sessionID, cmd.SequenceKey, string(positions), cmd.EndTime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Close stamps the session end time and closes the database.
func (r *Recorder) Close() error {
	if _, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
		time.Now().UTC(), r.sessionID,
	); err != nil {
		r.db.Close()
		return fmt.Errorf("failed to close session row: %w", err)
	}
	return r.db.Close()
}

// SessionCommands loads the recorded position targets for a session in
// sequence order, for offline reporting.
func SessionCommands(db *sql.DB, sessionID string) ([][]float64, error) {
	rows, err := db.Query(
		`SELECT positions FROM commands WHERE session_id = ? ORDER BY sequence_key`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var out [][]float64
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, err
		}
		var positions []float64
		if err := json.Unmarshal([]byte(encoded), &positions); err != nil {
			return nil, fmt.Errorf("corrupt positions row: %w", err)
		}
		out = append(out, positions)
	}
	return out, rows.Err()
}

// LatestSession returns the most recently started session id in the
// database.
func LatestSession(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow(
		`SELECT session_id FROM sessions ORDER BY started_at DESC LIMIT 1`,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("no sessions recorded: %w", err)
	}
	return id, nil
}
