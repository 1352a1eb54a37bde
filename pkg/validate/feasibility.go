package validate

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// FeasibilityValidator checks preconditions and institutional constraints
// (once_only, annual) against current agent state and recent decisions.
// Requires AdmissibilityValidator to have run first so ctx.SkillUnderEval
// is populated.
type FeasibilityValidator struct {
	Registry *skill.Registry
}

func (v *FeasibilityValidator) Name() string       { return "feasibility" }
func (v *FeasibilityValidator) Deterministic() bool { return true }

func (v *FeasibilityValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	def := ctx.SkillUnderEval
	if def == nil {
		// Admissibility didn't run or already failed; nothing to check.
		return ValidationResult{Valid: true}
	}

	if !def.CheckPreconditions(ctx.State) {
		return v.blocked(def, ctx, "one or more preconditions are not satisfied in the current state")
	}

	for _, constraint := range def.InstitutionalRules {
		switch constraint {
		case skill.ConstraintOnceOnly:
			if containsName(ctx.RecentDecisions, def.Name) {
				return v.blocked(def, ctx, "this skill may only be approved once per agent")
			}
		case skill.ConstraintAnnual:
			if ctx.ApprovedThisYear[skill.Normalize(def.Name)] {
				return v.blocked(def, ctx, "this skill has already been approved for this agent this year")
			}
		}
	}

	return ValidationResult{Valid: true}
}

func (v *FeasibilityValidator) blocked(def *skill.SkillDefinition, ctx *ValidationContext, reason string) ValidationResult {
	return ValidationResult{
		Valid: false,
		Errors: []InterventionReport{{
			RuleID:        "feasibility.precondition",
			BlockedSkill:  def.Name,
			Severity:      SeverityError,
			Summary:       reason,
			Source:        v.Name(),
			Deterministic: true,
			Tier:          TierB,
			StillFeasible: feasibleSkillNames(v.Registry, ctx),
		}},
	}
}

func containsName(names []string, name string) bool {
	normalized := skill.Normalize(name)
	for _, n := range names {
		if skill.Normalize(n) == normalized {
			return true
		}
	}
	return false
}
