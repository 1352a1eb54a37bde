package validate

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// Council runs the fixed, ordered, short-circuit-on-ERROR validator
// pipeline. Composite checking is a separate pass invoked by
// the broker only after the primary proposal passes. There is no switch
// that enables or disables it; a proposal without a secondary skill
// passes the composite pass unchanged.
type Council struct {
	Registry   *skill.Registry
	Validators []Validator
}

// RunPipeline runs every validator in order, stopping as soon as one
// produces an ERROR. Warnings and infos accumulated by validators that
// ran before the stop point are preserved.
func (c *Council) RunPipeline(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	aggregate := ValidationResult{Valid: true}
	for _, validator := range c.Validators {
		result := validator.Validate(p, ctx)
		aggregate.merge(result)
		if !result.Valid {
			break
		}
	}
	return aggregate
}

// RunComposite re-runs the pipeline against the secondary proposal and
// finally checks for a declared composite conflict between the two
// resolved skills. Only called once the primary has already passed
// RunPipeline.
func (c *Council) RunComposite(primary *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	if primary.SecondarySkill == "" {
		return ValidationResult{Valid: true}
	}

	secondaryProposal := &proposal.SkillProposal{
		PrimarySkill: primary.SecondarySkill,
		Reasoning:    primary.Reasoning,
		Magnitude:    primary.Magnitude,
		Rationale:    primary.Rationale,
	}
	secondaryCtx := *ctx
	secondaryCtx.SkillUnderEval = nil

	result := c.RunPipeline(secondaryProposal, &secondaryCtx)
	if !result.Valid {
		return result
	}

	primaryDef, err1 := c.Registry.Resolve(primary.PrimarySkill, ctx.AgentType)
	secondaryDef, err2 := c.Registry.Resolve(primary.SecondarySkill, ctx.AgentType)
	if err1 != nil || err2 != nil {
		return ValidationResult{Valid: true} // already caught by RunPipeline above
	}

	if c.Registry.CheckCompositeConflicts(primaryDef, secondaryDef) {
		return ValidationResult{
			Valid: false,
			Errors: []InterventionReport{{
				RuleID:        "composite.conflict",
				BlockedSkill:  primary.SecondarySkill,
				Severity:      SeverityError,
				Summary:       "the secondary skill is declared incompatible with the primary skill",
				Source:        "composite",
				Deterministic: true,
				Tier:          TierNone,
			}},
		}
	}
	return ValidationResult{Valid: true}
}
