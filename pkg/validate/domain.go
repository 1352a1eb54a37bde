package validate

import "github.com/skillbroker/skillbroker/pkg/proposal"

// DomainCheck is a pluggable, domain-authored predicate for custom
// Physical/Social/Semantic validators. Category tags
// are purely organizational/telemetry; they do not change pipeline order.
type DomainCheck func(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult

// DomainValidator wraps one domain-authored check under a named category.
type DomainValidator struct {
	Category        string
	CheckFn         DomainCheck
	IsDeterministic bool
}

func (v *DomainValidator) Name() string       { return "domain." + v.Category }
func (v *DomainValidator) Deterministic() bool { return v.IsDeterministic }

func (v *DomainValidator) Validate(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
	result := v.CheckFn(p, ctx)
	for i := range result.Errors {
		tagSource(&result.Errors[i], v)
	}
	for i := range result.Warnings {
		tagSource(&result.Warnings[i], v)
	}
	for i := range result.Infos {
		tagSource(&result.Infos[i], v)
	}
	return result
}

func tagSource(r *InterventionReport, v *DomainValidator) {
	if r.Source == "" {
		r.Source = v.Name()
	}
}
