package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSink is an optional, additive Sink that mirrors every decision
// and the final summary into a queryable SQLite database. It never
// replaces the mandated line-delimited file output — callers wire both
// into a single Writer's sink list when queryable audit history is
// wanted.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if absent) a SQLite database at path and
// ensures its schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit sqlite database %q: %w", path, err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS decisions (
	year INTEGER NOT NULL,
	agent_id TEXT NOT NULL,
	agent_type TEXT NOT NULL,
	approved_skill TEXT NOT NULL,
	retry_count INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	execution_ok INTEGER NOT NULL,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_summary (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit sqlite schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) WriteDecision(rec DecisionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO decisions (year, agent_id, agent_type, approved_skill, retry_count, outcome, execution_ok, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Year, rec.AgentID, rec.AgentType, rec.ApprovedSkill, rec.RetryCount, rec.Outcome, rec.ExecutionOK, string(payload),
	)
	return err
}

func (s *SQLiteSink) WriteSummary(summary Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO run_summary (id, payload) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		string(payload),
	)
	return err
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
