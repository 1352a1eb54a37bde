package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

func TestAdmissibilityValidator_ResolvesAndPopulatesSkillUnderEval(t *testing.T) {
	registry := newTestRegistry(t)
	v := &AdmissibilityValidator{Registry: registry}
	ctx := newTestContext(t, registry, skill.AgentState{})

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.Valid)
	require.NotNil(t, ctx.SkillUnderEval)
	assert.Equal(t, "irrigate", ctx.SkillUnderEval.Name)
}

func TestAdmissibilityValidator_UnknownSkillReportsError(t *testing.T) {
	registry := newTestRegistry(t)
	v := &AdmissibilityValidator{Registry: registry}
	ctx := newTestContext(t, registry, skill.AgentState{})

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "teleport"}, ctx)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Summary, "not a recognized action")
}

func TestAdmissibilityValidator_IneligibleAgentTypeReportsError(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "inspect", AgentTypes: map[string]bool{"regulator": true}}))
	v := &AdmissibilityValidator{Registry: registry}
	ctx := newTestContext(t, registry, skill.AgentState{})

	result := v.Validate(&proposal.SkillProposal{PrimarySkill: "inspect"}, ctx)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Summary, "not available to this agent type")
}

func TestAdmissibilityValidator_NameAndDeterminism(t *testing.T) {
	v := &AdmissibilityValidator{}
	assert.Equal(t, "admissibility", v.Name())
	assert.True(t, v.Deterministic())
}
