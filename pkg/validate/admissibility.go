package validate

import (
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// AdmissibilityValidator resolves the proposed skill against the registry
// and checks agent-type eligibility.
type AdmissibilityValidator struct {
	Registry *skill.Registry
}

func (v *AdmissibilityValidator) Name() string       { return "admissibility" }
func (v *AdmissibilityValidator) Deterministic() bool { return true }

func (v *AdmissibilityValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	def, err := v.Registry.Resolve(p.PrimarySkill, ctx.AgentType)
	if err == nil {
		ctx.SkillUnderEval = def
		return ValidationResult{Valid: true}
	}

	report := InterventionReport{
		RuleID:        "admissibility.resolve",
		BlockedSkill:  p.PrimarySkill,
		Severity:      SeverityError,
		Source:        v.Name(),
		Deterministic: true,
		Tier:          TierB,
		StillFeasible: feasibleSkillNames(v.Registry, ctx),
	}
	switch err.(type) {
	case *skill.AdmissibilityError:
		report.Summary = "the proposed skill is not a recognized action"
	case *skill.EligibilityError:
		report.Summary = "the proposed skill is not available to this agent type"
	default:
		report.Summary = err.Error()
	}
	return ValidationResult{Valid: false, Errors: []InterventionReport{report}}
}

// feasibleSkillNames enumerates skills eligible for the agent type whose
// preconditions currently hold, for Tier B neutral enumeration.
func feasibleSkillNames(reg *skill.Registry, ctx *ValidationContext) []string {
	names := make([]string, 0)
	for _, def := range reg.EligibleFor(ctx.AgentType) {
		if def.CheckPreconditions(ctx.State) {
			names = append(names, def.Name)
		}
	}
	return names
}
