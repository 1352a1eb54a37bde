// Package validate implements the Validator Council (C3): an ordered,
// short-circuit-on-ERROR pipeline of checks run against a SkillProposal.
package validate

import (
	"fmt"
	"sync"

	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// Severity classifies an InterventionReport's effect on control flow.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// SuggestionTier classifies the style of retry feedback a blocked
// proposal receives. Tier A carries no suggestion; Tier B enumerates
// still-feasible skills neutrally; Tier C is reserved for agent-autonomy
// cases that also carry no suggestion (distinguished from A only by
// intent, never by content).
type SuggestionTier string

const (
	TierNone SuggestionTier = "A"
	TierB    SuggestionTier = "B"
	TierC    SuggestionTier = "C"
)

// InterventionReport records one blocking or observational validation
// outcome.
type InterventionReport struct {
	RuleID         string
	BlockedSkill   string
	Severity       Severity
	Summary        string
	Tier           SuggestionTier
	StillFeasible  []string // populated for Tier B reports
	Source         string   // validator name that produced this report
	Deterministic  bool     // true if the blocking condition depends only on static agent state
}

// ValidationResult is the outcome of running one validator (or the
// aggregate outcome of a council pass).
type ValidationResult struct {
	Valid    bool
	Errors   []InterventionReport
	Warnings []InterventionReport
	Infos    []InterventionReport
}

// merge folds other into r by appending, preserving first-seen (pipeline)
// order across validators; reports are not re-sorted by rule id.
func (r *ValidationResult) merge(other ValidationResult) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Infos = append(r.Infos, other.Infos...)
	if !other.Valid {
		r.Valid = false
	}
}

// AllPass reports whether no ERROR-level report was produced.
func (r ValidationResult) AllPass() bool {
	return r.Valid && len(r.Errors) == 0
}

// BlockingRuleIDs returns the set of rule ids responsible for ERROR
// reports, used by EarlyExit to detect a repeated deterministic block.
func (r ValidationResult) BlockingRuleIDs() map[string]bool {
	ids := make(map[string]bool, len(r.Errors))
	for _, e := range r.Errors {
		ids[e.RuleID] = true
	}
	return ids
}

// AllBlockingDeterministic reports whether every ERROR report in this
// result came from a deterministic validator, the precondition for
// EarlyExit.
func (r ValidationResult) AllBlockingDeterministic() bool {
	if len(r.Errors) == 0 {
		return false
	}
	for _, e := range r.Errors {
		if !e.Deterministic {
			return false
		}
	}
	return true
}

// ValidatorStateKey identifies per-agent, per-rule mutable state (e.g. a
// consecutive-increase counter), keyed by (agent id, rule id) rather than
// a package-level global.
type ValidatorStateKey struct {
	AgentID string
	RuleID  string
}

// ValidatorState is a small, thread-safe store for per-(agent,rule)
// counters or other mutable validator bookkeeping. Owned by whichever
// component constructs the ValidationContext (broker.Engine keeps one per
// agent id) and passed through by reference.
type ValidatorState struct {
	mu     sync.Mutex
	values map[ValidatorStateKey]int
}

// NewValidatorState constructs an empty state store.
func NewValidatorState() *ValidatorState {
	return &ValidatorState{values: make(map[ValidatorStateKey]int)}
}

// Get returns the current counter value for key (0 if unset).
func (s *ValidatorState) Get(key ValidatorStateKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set overwrites the counter value for key.
func (s *ValidatorState) Set(key ValidatorStateKey, v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v
}

// Incr increments and returns the new counter value for key.
func (s *ValidatorState) Incr(key ValidatorStateKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key]++
	return s.values[key]
}

// ValidationContext is the merged view a validator evaluates a proposal
// against: agent state, environment snapshot, recent decisions, and the
// skill being evaluated.
type ValidationContext struct {
	AgentID         string
	AgentType       string
	State           skill.AgentState
	Environment     map[string]any
	RecentDecisions []string // skill names approved for this agent in prior years, most recent last
	ApprovedThisYear map[string]bool
	SkillUnderEval  *skill.SkillDefinition
	ValidatorState  *ValidatorState
}

// NewValidationContext merges agent state and environment, enforcing the
// key-collision rule: domain environment fields must not shadow
// agent-state fields. A collision is a fatal configuration error.
func NewValidationContext(agentID, agentType string, state skill.AgentState, env map[string]any, recent []string, approvedThisYear map[string]bool, vs *ValidatorState) (*ValidationContext, error) {
	for k := range env {
		if _, collides := state[k]; collides {
			return nil, fmt.Errorf("validation context configuration error: environment field %q shadows an agent-state field", k)
		}
	}
	return &ValidationContext{
		AgentID:          agentID,
		AgentType:        agentType,
		State:            state,
		Environment:      env,
		RecentDecisions:  recent,
		ApprovedThisYear: approvedThisYear,
		ValidatorState:   vs,
	}, nil
}

// Validator is the single capability every council stage implements.
type Validator interface {
	Name() string
	// Deterministic reports whether this validator's blocking condition
	// depends only on static agent state (true) or on LLM-generated
	// reasoning constructs (false). Supports EarlyExit classification.
	Deterministic() bool
	Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult
}
