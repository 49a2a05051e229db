package telemetry

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/gait-works/gaitctl/internal/robot"
)

func TestRecorderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	rec, err := OpenRecorder(path, "walk-policy")
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	if rec.SessionID() == "" {
		t.Fatal("recorder has no session id")
	}

	want := make([][]float64, 3)
	for i := range want {
		row := make([]float64, robot.NumJoints)
		for j := range row {
			row[j] = float64(i) + float64(j)*0.1
		}
		want[i] = row
		cmd := &robot.Command{
			Position:    row,
			SequenceKey: uint64(i + 1),
			EndTime:     time.Unix(int64(100+i), 0),
		}
		if err := rec.RecordCommand(cmd); err != nil {
			t.Fatalf("RecordCommand %d: %v", i, err)
		}
	}
	sessionID := rec.SessionID()
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopening db: %v", err)
	}
	defer db.Close()

	got, err := SessionCommands(db, sessionID)
	if err != nil {
		t.Fatalf("SessionCommands: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded positions mismatch (-want +got):\n%s", diff)
	}

	var ended sql.NullTime
	if err := db.QueryRow(
		`SELECT ended_at FROM sessions WHERE session_id = ?`, sessionID,
	).Scan(&ended); err != nil {
		t.Fatalf("reading session row: %v", err)
	}
	if !ended.Valid {
		t.Error("Close did not stamp the session end time")
	}
}

func TestLatestSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	first, err := OpenRecorder(path, "a")
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Session start times have wall-clock resolution; keep them distinct.
	time.Sleep(5 * time.Millisecond)

	second, err := OpenRecorder(path, "b")
	if err != nil {
		t.Fatalf("OpenRecorder: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopening db: %v", err)
	}
	defer db.Close()

	latest, err := LatestSession(db)
	if err != nil {
		t.Fatalf("LatestSession: %v", err)
	}
	if latest != second.SessionID() {
		t.Errorf("LatestSession = %s, want %s", latest, second.SessionID())
	}
}

func TestLatestSessionEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	if _, err := LatestSession(db); err == nil {
		t.Fatal("LatestSession succeeded on an empty database")
	}
}
