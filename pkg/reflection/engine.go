// Package reflection implements the Reflection Engine (C6): periodic
// batch consolidation of episodic memories into semantic insights.
package reflection

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/skillbroker/skillbroker/pkg/llm"
	"github.com/skillbroker/skillbroker/pkg/memory"
)

// Insight is one agent's consolidated takeaway from a reflection batch.
type Insight struct {
	AgentID     string
	Summary     string
	SourceCount int
	Importance  float64
	Year        int
	Tags        map[string]bool
}

// Invoker is the narrow LLM contract the reflection engine depends on.
// Satisfied directly by pkg/llm.Invoker.
type Invoker = llm.Invoker

// Config controls cadence and batch sizing.
type Config struct {
	CadenceYears           int     // default 1
	MemoriesPerAgent       int     // k, default 10
	InsightImportanceBoost float64 // default 0.9
}

// DefaultConfig returns the default reflection cadence and batch size.
func DefaultConfig() Config {
	return Config{CadenceYears: 1, MemoriesPerAgent: 10, InsightImportanceBoost: 0.9}
}

// Engine ties memory retrieval, prompt construction, LLM invocation, and
// response parsing into one periodic consolidation pass.
type Engine struct {
	Memory  *memory.Store
	Invoker Invoker
	Config  Config
	Logger  *slog.Logger
}

// ShouldRun reports whether year falls on the configured cadence.
func (e *Engine) ShouldRun(year int) bool {
	cadence := e.Config.CadenceYears
	if cadence <= 0 {
		cadence = 1
	}
	return year%cadence == 0
}

// Run executes one reflection pass over agentIDs for the given year. Each
// agent is its own batch entry; an agent whose line is missing or
// unparseable is silently omitted without affecting the others. An
// invocation error is logged and the whole batch is skipped, not retried.
func (e *Engine) Run(agentIDs []string, year int) map[string]Insight {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	memoriesByAgent := make(map[string][]string, len(agentIDs))
	for _, id := range agentIDs {
		k := e.Config.MemoriesPerAgent
		if k <= 0 {
			k = 10
		}
		memoriesByAgent[id] = e.Memory.Retrieve(id, year, "", k, nil, nil)
	}

	prompt := BuildPrompt(memoriesByAgent, year)
	response, _, err := e.Invoker.Invoke(prompt)
	if err != nil {
		logger.Warn("reflection batch invocation failed", "year", year, "error", err)
		return nil
	}

	insights := ParseBatchResponse(response, agentIDs, year, e.boost())
	for id, insight := range insights {
		insight.SourceCount = len(memoriesByAgent[id])
		insights[id] = insight
		e.Memory.Add(id, insight.Summary, insight.Importance, "reflection", "reflection", year, insight.Tags)
	}
	return insights
}

func (e *Engine) boost() float64 {
	if e.Config.InsightImportanceBoost > 0 {
		return e.Config.InsightImportanceBoost
	}
	return 0.9
}

// BuildPrompt is the pure prompt-construction half of the reflection
// loop: it labels each agent's retrieved memories so the LLM can return
// one summary per agent in a single batch round trip.
func BuildPrompt(memoriesByAgent map[string][]string, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reflection batch for year %d.\n", year)
	b.WriteString("For each agent below, respond with one line formatted exactly as:\n")
	b.WriteString("AGENT <agent_id>: <summary>\n\n")
	for agentID, lines := range memoriesByAgent {
		fmt.Fprintf(&b, "Agent %s memories:\n", agentID)
		for _, line := range lines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ParseBatchResponse is the pure response-parsing half: it splits the raw
// LLM text back into one Insight per recognized "AGENT <id>: <summary>"
// line. Agent ids present in agentIDs but absent from the response are
// simply omitted from the result, not treated as an error.
func ParseBatchResponse(response string, agentIDs []string, year int, importanceBoost float64) map[string]Insight {
	known := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		known[id] = true
	}

	out := make(map[string]Insight)
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "AGENT ") {
			continue
		}
		rest := strings.TrimPrefix(line, "AGENT ")
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			continue
		}
		agentID := strings.TrimSpace(parts[0])
		summary := strings.TrimSpace(parts[1])
		if !known[agentID] || summary == "" {
			continue
		}
		out[agentID] = Insight{
			AgentID:     agentID,
			Summary:     summary,
			SourceCount: 1,
			Importance:  importanceBoost,
			Year:        year,
		}
	}
	return out
}
