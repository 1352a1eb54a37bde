package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/config"
)

func TestValidateCmd_Run_AcceptsWellFormedConfig(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	require.NoError(t, writeFile(path, "log_level: debug\nbroker:\n  max_retries: 5\n"))

	cmd := &ValidateCmd{}
	err := cmd.Run(&CLI{Config: path})
	assert.NoError(t, err)
}

func TestValidateCmd_Run_PropagatesLoadError(t *testing.T) {
	cmd := &ValidateCmd{}
	err := cmd.Run(&CLI{Config: "/nonexistent/config.yaml"})
	assert.Error(t, err)
}

func TestSeedAgents_ProducesRequestedCountWithValidAttributes(t *testing.T) {
	agents := seedAgents(3)
	require.Len(t, agents, 3)
	for _, a := range agents {
		assert.Equal(t, "farmer", a.AgentType)
		assert.NotEmpty(t, a.ID)
		water, ok := a.Attributes["water_level"].(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, water, 0.0)
		assert.LessOrEqual(t, water, 1.0)
	}
}

func TestSeedAgents_ZeroOrNegativeDefaultsToOne(t *testing.T) {
	assert.Len(t, seedAgents(0), 1)
	assert.Len(t, seedAgents(-3), 1)
}

func TestBuildAuditSinks_FileSinkOnlyWithoutSQLitePath(t *testing.T) {
	dir := t.TempDir()
	sinks, err := buildAuditSinks(config.AuditConfig{
		TracePath:   dir + "/trace.jsonl",
		SummaryPath: dir + "/summary.json",
	})
	require.NoError(t, err)
	assert.Len(t, sinks, 1)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
