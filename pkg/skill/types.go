// Package skill implements the authoritative action catalog (the Skill
// Registry) that the broker, validators, and context builder resolve
// proposals against.
package skill

import "strings"

// OrdinalValue is a point on the fixed appraisal scale used throughout the
// reasoning payload and thinking rules: VL < L < M < H < VH.
type OrdinalValue string

const (
	OrdinalVeryLow  OrdinalValue = "VL"
	OrdinalLow      OrdinalValue = "L"
	OrdinalMedium   OrdinalValue = "M"
	OrdinalHigh     OrdinalValue = "H"
	OrdinalVeryHigh OrdinalValue = "VH"
)

var ordinalRank = map[OrdinalValue]int{
	OrdinalVeryLow:  0,
	OrdinalLow:      1,
	OrdinalMedium:   2,
	OrdinalHigh:     3,
	OrdinalVeryHigh: 4,
}

// Valid reports whether v is one of the five recognized ordinal values.
func (v OrdinalValue) Valid() bool {
	_, ok := ordinalRank[v]
	return ok
}

// In reports whether v is a member of set, treating an invalid value as
// never a member.
func (v OrdinalValue) In(set ...OrdinalValue) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// AgentState is the caller-supplied snapshot of a single agent's
// attributes. Keys are attribute names (e.g. "trust", "elevated",
// "income"); values are domain-typed (bool, float64, string, ...).
type AgentState map[string]any

// Precondition is a boolean predicate over an agent's state. Predicates are
// pure and side-effect free; they must not mutate state.
type Precondition func(state AgentState) bool

// InstitutionalConstraint names a structural constraint on repeated use of
// a skill, evaluated by the Feasibility validator against recent-decision
// history rather than raw state.
type InstitutionalConstraint string

const (
	// ConstraintOnceOnly blocks a skill once it has ever been approved for
	// the agent.
	ConstraintOnceOnly InstitutionalConstraint = "once_only"
	// ConstraintAnnual blocks a skill if it was already approved for the
	// agent in the current simulation year.
	ConstraintAnnual InstitutionalConstraint = "annual"
)

// SkillDefinition is the immutable, registry-owned description of one
// action an agent may propose.
type SkillDefinition struct {
	Name                  string
	AgentTypes            map[string]bool
	Preconditions         []Precondition
	InstitutionalRules    []InstitutionalConstraint
	CompositeIncompatible map[string]bool
	// WritesAttributes names the agent-state attributes this skill's
	// state-change template may mutate, used by the effect-safety
	// validator to enforce ownership rules.
	WritesAttributes []string
	// Fallback marks a domain-declared safe action, exempt from
	// construct-conditioned thinking rules, that the broker may always
	// execute when retries are exhausted.
	Fallback bool
}

// EligibleFor reports whether this skill may be proposed by the given
// agent type.
func (d SkillDefinition) EligibleFor(agentType string) bool {
	return d.AgentTypes[agentType]
}

// CheckPreconditions evaluates every registered precondition against
// state; all must hold.
func (d SkillDefinition) CheckPreconditions(state AgentState) bool {
	for _, p := range d.Preconditions {
		if !p(state) {
			return false
		}
	}
	return true
}

// Normalize performs the whitespace-strip/lower-case normalization the
// registry applies before alias lookup.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
