package validate

import (
	"fmt"

	"github.com/skillbroker/skillbroker/pkg/proposal"
)

// EffectSafetyValidator enforces ownership rules over the projected
// state-change template: institutional attributes may only be written by
// agent types declared allowed to write them.
type EffectSafetyValidator struct {
	InstitutionalAttributes map[string]bool
	AllowedAgentTypes       map[string]map[string]bool // attribute -> allowed agent types
}

func (v *EffectSafetyValidator) Name() string       { return "effect_safety" }
func (v *EffectSafetyValidator) Deterministic() bool { return true }

func (v *EffectSafetyValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	def := ctx.SkillUnderEval
	if def == nil {
		return ValidationResult{Valid: true}
	}
	for _, attr := range def.WritesAttributes {
		if !v.InstitutionalAttributes[attr] {
			continue
		}
		allowed := v.AllowedAgentTypes[attr]
		if allowed[ctx.AgentType] {
			continue
		}
		return ValidationResult{
			Valid: false,
			Errors: []InterventionReport{{
				RuleID:        "effect_safety.ownership",
				BlockedSkill:  def.Name,
				Severity:      SeverityError,
				Summary:       fmt.Sprintf("agent type %q may not write institutional attribute %q", ctx.AgentType, attr),
				Source:        v.Name(),
				Deterministic: true,
				Tier:          TierNone,
			}},
		}
	}
	return ValidationResult{Valid: true}
}
