package validate

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// ThinkingRule is a YAML-declared coherence rule of the shape "when
// construct_i ∈ S_i ∧ ..., block {skills}". Every key
// in Conditions must match (AND semantics); a key missing or invalid in
// the proposal's reasoning payload never satisfies the rule.
type ThinkingRule struct {
	RuleID        string
	Conditions    map[string][]skill.OrdinalValue
	BlockedSkills map[string]bool
	Severity      Severity
	Summary       string
}

func (r ThinkingRule) matches(reasoning proposal.ReasoningPayload) bool {
	for construct, allowed := range r.Conditions {
		val, ok := reasoning.Get(construct)
		if !ok || !val.In(allowed...) {
			return false
		}
	}
	return true
}

// ThinkingValidator implements the Thinking/Coherence stage. ERROR
// severity blocks and feeds retry feedback; WARNING records without
// blocking; INFO records without surfacing into the retry prompt.
// Fallback skills are exempt from every rule.
type ThinkingValidator struct {
	Registry *skill.Registry
	Rules    []ThinkingRule
}

func (v *ThinkingValidator) Name() string       { return "thinking" }
func (v *ThinkingValidator) Deterministic() bool { return false }

func (v *ThinkingValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	if ctx.SkillUnderEval == nil {
		return ValidationResult{Valid: true}
	}
	if ctx.SkillUnderEval.Fallback {
		return ValidationResult{Valid: true}
	}
	skillName := ctx.SkillUnderEval.Name

	result := ValidationResult{Valid: true}
	for _, rule := range v.Rules {
		if !rule.BlockedSkills[skill.Normalize(skillName)] {
			continue
		}
		if !rule.matches(p.Reasoning) {
			continue
		}
		report := InterventionReport{
			RuleID:        rule.RuleID,
			BlockedSkill:  skillName,
			Severity:      rule.Severity,
			Summary:       rule.Summary,
			Source:        v.Name(),
			Deterministic: false,
			Tier:          TierB,
			StillFeasible: feasibleSkillNames(v.Registry, ctx),
		}
		switch rule.Severity {
		case SeverityError:
			result.Valid = false
			result.Errors = append(result.Errors, report)
		case SeverityInfo:
			result.Infos = append(result.Infos, report)
		default: // WARNING
			result.Warnings = append(result.Warnings, report)
		}
	}
	return result
}
