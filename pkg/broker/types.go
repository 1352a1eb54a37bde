// Package broker implements the Skill Broker Engine (C7): the
// per-agent-step orchestrator tying context assembly, LLM invocation,
// proposal parsing, validation, retry, execution, memory ingestion, and
// audit recording into one algorithm.
package broker

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/validate"
)

// AgentProfile is the external collaborator record: an agent id, its
// registered type, and the attribute map the Context Builder verbalizes.
type AgentProfile struct {
	ID         string
	AgentType  string
	Attributes map[string]any
}

// ExecutionResult is produced by the external simulation engine.
// Invariant: if Success is false, StateChanges is empty.
type ExecutionResult struct {
	Success      bool
	StateChanges map[string]any
	Err          error
}

// Outcome classifies how a decision concluded.
type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

// ApprovedSkill is the broker's immutable record of the skill that will
// be executed for this decision, however it was reached.
type ApprovedSkill struct {
	Proposal   *proposal.SkillProposal
	SkillName  string
	RetryCount int
	Results    []validate.ValidationResult
	Outcome    Outcome
}

// SimulationEngine is the external collaborator that executes an
// approved skill and exposes a per-step environment snapshot. It must
// not mutate agent state directly — the broker folds
// ExecutionResult.StateChanges into the agent's Attributes itself once
// Execute returns.
type SimulationEngine interface {
	Execute(agent AgentProfile, approved ApprovedSkill) ExecutionResult
	Environment(agent AgentProfile, year int) map[string]any
}

// LifecycleHooks are optional caller-provided callbacks. Engine.RunStep
// calls PostStep after each execution; the Engine has no year loop and
// does not call PreYear or PostYear. Any hook left nil is simply skipped.
type LifecycleHooks struct {
	PreYear  func(year int, env map[string]any, agents []AgentProfile)
	PostStep func(agent AgentProfile, result ExecutionResult)
	PostYear func(year int, agents []AgentProfile)
}
