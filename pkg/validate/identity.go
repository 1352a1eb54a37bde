package validate

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// IdentityRule is a YAML-driven resource/affordability constraint: a
// boolean predicate over agent state, scoped to a skill subset. Empty
// AppliesTo means the rule applies to every skill.
type IdentityRule struct {
	RuleID    string
	AppliesTo map[string]bool
	Check     skill.Precondition
	Summary   string
}

func (r IdentityRule) applies(skillName string) bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	return r.AppliesTo[skill.Normalize(skillName)]
}

// IdentityPlugin is the programmatic escape hatch for resource checks
// that need arithmetic beyond a single predicate (e.g. cost comparisons
// across multiple state fields).
type IdentityPlugin interface {
	Name() string
	Check(p *proposal.SkillProposal, ctx *ValidationContext) (ok bool, reason string)
}

// IdentityValidator implements the Identity/Personal stage: YAML rules
// plus a small plugin slot for programmatic checks.
type IdentityValidator struct {
	Registry *skill.Registry
	Rules    []IdentityRule
	Plugins  []IdentityPlugin
}

func (v *IdentityValidator) Name() string       { return "identity" }
func (v *IdentityValidator) Deterministic() bool { return true }

func (v *IdentityValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	if ctx.SkillUnderEval == nil {
		return ValidationResult{Valid: true}
	}
	skillName := ctx.SkillUnderEval.Name

	for _, rule := range v.Rules {
		if !rule.applies(skillName) {
			continue
		}
		if !rule.Check(ctx.State) {
			return ValidationResult{
				Valid: false,
				Errors: []InterventionReport{{
					RuleID:        rule.RuleID,
					BlockedSkill:  skillName,
					Severity:      SeverityError,
					Summary:       rule.Summary,
					Source:        v.Name(),
					Deterministic: true,
					Tier:          TierB,
					StillFeasible: feasibleSkillNames(v.Registry, ctx),
				}},
			}
		}
	}

	for _, plugin := range v.Plugins {
		if ok, reason := plugin.Check(p, ctx); !ok {
			return ValidationResult{
				Valid: false,
				Errors: []InterventionReport{{
					RuleID:        "identity.plugin." + plugin.Name(),
					BlockedSkill:  skillName,
					Severity:      SeverityError,
					Summary:       reason,
					Source:        v.Name(),
					Deterministic: true,
					Tier:          TierB,
					StillFeasible: feasibleSkillNames(v.Registry, ctx),
				}},
			}
		}
	}

	return ValidationResult{Valid: true}
}
