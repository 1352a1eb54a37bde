package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

func TestThinkingValidator_NoSkillUnderEvalPassesThrough(t *testing.T) {
	v := &ThinkingValidator{}
	result := v.Validate(&proposal.SkillProposal{}, &ValidationContext{})
	assert.True(t, result.Valid)
}

func TestThinkingValidator_FallbackSkillIsExempt(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "maintain_demand", AgentTypes: map[string]bool{"farmer": true}, Fallback: true}))
	v := &ThinkingValidator{
		Rules: []ThinkingRule{
			{RuleID: "thinking.always", BlockedSkills: map[string]bool{"maintain_demand": true}, Severity: SeverityError},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("maintain_demand", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "maintain_demand"}, ctx)
	assert.True(t, result.Valid)
}

func TestThinkingValidator_ErrorSeverityBlocks(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "drill_well", AgentTypes: map[string]bool{"farmer": true}}))
	v := &ThinkingValidator{
		Registry: registry,
		Rules: []ThinkingRule{
			{
				RuleID:        "thinking.low_concern_blocks_drilling",
				Conditions:    map[string][]skill.OrdinalValue{"concern": {skill.OrdinalVeryLow, skill.OrdinalLow}},
				BlockedSkills: map[string]bool{"drill_well": true},
				Severity:      SeverityError,
				Summary:       "low concern",
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("drill_well", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "drill_well", Reasoning: proposal.ReasoningPayload{"concern": skill.OrdinalLow}}, ctx)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
}

func TestThinkingValidator_WarningSeverityDoesNotBlock(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "drill_well", AgentTypes: map[string]bool{"farmer": true}}))
	v := &ThinkingValidator{
		Registry: registry,
		Rules: []ThinkingRule{
			{
				RuleID:        "thinking.mild_warning",
				Conditions:    map[string][]skill.OrdinalValue{"concern": {skill.OrdinalLow}},
				BlockedSkills: map[string]bool{"drill_well": true},
				Severity:      SeverityWarning,
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("drill_well", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "drill_well", Reasoning: proposal.ReasoningPayload{"concern": skill.OrdinalLow}}, ctx)
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)
}

func TestThinkingValidator_InfoSeverityIsRecordedOnly(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "drill_well", AgentTypes: map[string]bool{"farmer": true}}))
	v := &ThinkingValidator{
		Registry: registry,
		Rules: []ThinkingRule{
			{
				RuleID:        "thinking.fyi",
				Conditions:    map[string][]skill.OrdinalValue{"concern": {skill.OrdinalLow}},
				BlockedSkills: map[string]bool{"drill_well": true},
				Severity:      SeverityInfo,
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("drill_well", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "drill_well", Reasoning: proposal.ReasoningPayload{"concern": skill.OrdinalLow}}, ctx)
	assert.True(t, result.Valid)
	assert.Len(t, result.Infos, 1)
	assert.Empty(t, result.Warnings)
}

func TestThinkingValidator_MissingConstructNeverMatches(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "drill_well", AgentTypes: map[string]bool{"farmer": true}}))
	v := &ThinkingValidator{
		Rules: []ThinkingRule{
			{
				RuleID:        "thinking.requires_concern",
				Conditions:    map[string][]skill.OrdinalValue{"concern": {skill.OrdinalLow}},
				BlockedSkills: map[string]bool{"drill_well": true},
				Severity:      SeverityError,
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("drill_well", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "drill_well", Reasoning: proposal.ReasoningPayload{}}, ctx)
	assert.True(t, result.Valid)
}

func TestThinkingValidator_Deterministic_IsFalse(t *testing.T) {
	v := &ThinkingValidator{}
	assert.False(t, v.Deterministic())
}
