package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

func TestIdentityValidator_NoSkillUnderEvalPassesThrough(t *testing.T) {
	v := &IdentityValidator{}
	ctx := &ValidationContext{}
	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.Valid)
}

func TestIdentityValidator_RuleScopedToAppliesToBlocksMatchingSkill(t *testing.T) {
	registry := newTestRegistry(t)
	v := &IdentityValidator{
		Registry: registry,
		Rules: []IdentityRule{
			{
				RuleID:    "identity.reserve",
				AppliesTo: map[string]bool{"irrigate": true},
				Check:     func(s skill.AgentState) bool { return s["income"].(float64) >= 0.5 },
				Summary:   "insufficient reserve",
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{"income": 0.1})
	ctx.SkillUnderEval, _ = registry.Resolve("irrigate", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.False(t, result.Valid)
	assert.Equal(t, "identity.reserve", result.Errors[0].RuleID)
}

func TestIdentityValidator_RuleNotScopedToOtherSkillIsIgnored(t *testing.T) {
	registry := newTestRegistry(t)
	v := &IdentityValidator{
		Rules: []IdentityRule{
			{
				RuleID:    "identity.reserve",
				AppliesTo: map[string]bool{"drill_well": true},
				Check:     func(s skill.AgentState) bool { return false },
			},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("irrigate", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.Valid)
}

func TestIdentityValidator_EmptyAppliesToMatchesEverySkill(t *testing.T) {
	registry := newTestRegistry(t)
	v := &IdentityValidator{
		Registry: registry,
		Rules: []IdentityRule{
			{RuleID: "identity.global", Check: func(s skill.AgentState) bool { return false }, Summary: "always blocks"},
		},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("irrigate", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.False(t, result.Valid)
}

func TestIdentityValidator_PluginBlocksOnFalse(t *testing.T) {
	registry := newTestRegistry(t)
	v := &IdentityValidator{
		Registry: registry,
		Plugins:  []IdentityPlugin{fakePlugin{name: "cost_check", ok: false, reason: "cannot afford it"}},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("irrigate", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	require.False(t, result.Valid)
	assert.Equal(t, "identity.plugin.cost_check", result.Errors[0].RuleID)
	assert.Equal(t, "cannot afford it", result.Errors[0].Summary)
}

func TestIdentityValidator_PluginPassesOnTrue(t *testing.T) {
	registry := newTestRegistry(t)
	v := &IdentityValidator{
		Plugins: []IdentityPlugin{fakePlugin{name: "cost_check", ok: true}},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	ctx.SkillUnderEval, _ = registry.Resolve("irrigate", "farmer")

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.Valid)
}

type fakePlugin struct {
	name   string
	ok     bool
	reason string
}

func (p fakePlugin) Name() string { return p.name }
func (p fakePlugin) Check(*proposal.SkillProposal, *ValidationContext) (bool, string) {
	return p.ok, p.reason
}
