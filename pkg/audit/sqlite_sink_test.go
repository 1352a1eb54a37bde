package audit

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func TestSQLiteSink_WriteDecisionPersistsRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.WriteDecision(DecisionRecord{
		Year: 2031, AgentID: "farmer-1", AgentType: "farmer",
		ApprovedSkill: "irrigate", RetryCount: 1, Outcome: "APPROVED", ExecutionOK: true,
	}))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM decisions WHERE agent_id = ?`, "farmer-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteSink_WriteSummaryUpsertsSingleRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.WriteSummary(Summary{TotalDecisions: 1, Approved: 1}))
	require.NoError(t, sink.WriteSummary(Summary{TotalDecisions: 5, Approved: 3, Rejected: 2}))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM run_summary`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteSink_ViaWriterAlongsideFileSink(t *testing.T) {
	dir := t.TempDir()
	fileSink, err := NewFileSink(filepath.Join(dir, "trace.jsonl"), filepath.Join(dir, "summary.json"))
	require.NoError(t, err)
	sqliteSink, err := NewSQLiteSink(filepath.Join(dir, "audit.db"))
	require.NoError(t, err)

	w := NewWriter(fileSink, sqliteSink)
	require.NoError(t, w.Record(DecisionRecord{Year: 1, AgentID: "a1", Outcome: "APPROVED"}))
	require.NoError(t, w.Finalize())
}
