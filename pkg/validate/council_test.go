package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

func newTestRegistry(t *testing.T) *skill.Registry {
	t.Helper()
	r := skill.NewRegistry()
	require.NoError(t, r.RegisterSkill(&skill.SkillDefinition{
		Name:                  "irrigate",
		AgentTypes:            map[string]bool{"farmer": true},
		CompositeIncompatible: map[string]bool{"conserve_water": true},
	}))
	require.NoError(t, r.RegisterSkill(&skill.SkillDefinition{
		Name:       "conserve_water",
		AgentTypes: map[string]bool{"farmer": true},
	}))
	return r
}

func newTestContext(t *testing.T, registry *skill.Registry, state skill.AgentState) *ValidationContext {
	t.Helper()
	ctx, err := NewValidationContext("farmer-1", "farmer", state, nil, nil, nil, NewValidatorState())
	require.NoError(t, err)
	return ctx
}

func TestCouncil_RunPipeline_AllValidatorsPass(t *testing.T) {
	registry := newTestRegistry(t)
	council := &Council{
		Registry:   registry,
		Validators: []Validator{&AdmissibilityValidator{Registry: registry}},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunPipeline(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.AllPass())
}

func TestCouncil_RunPipeline_ShortCircuitsOnFirstError(t *testing.T) {
	registry := newTestRegistry(t)
	blocking := &DomainValidator{
		Category: "always_block",
		CheckFn: func(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
			return ValidationResult{Valid: false, Errors: []InterventionReport{{RuleID: "domain.block", Severity: SeverityError}}}
		},
	}
	neverRun := &DomainValidator{
		Category: "should_not_run",
		CheckFn: func(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
			t.Fatal("validator after a blocking ERROR must not run")
			return ValidationResult{}
		},
	}
	council := &Council{
		Registry:   registry,
		Validators: []Validator{&AdmissibilityValidator{Registry: registry}, blocking, neverRun},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunPipeline(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.False(t, result.AllPass())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "domain.block", result.Errors[0].RuleID)
}

func TestCouncil_RunPipeline_WarningsDoNotStopThePipeline(t *testing.T) {
	registry := newTestRegistry(t)
	warner := &DomainValidator{
		Category: "warns",
		CheckFn: func(p *proposal.SkillProposal, ctx *ValidationContext) ValidationResult {
			return ValidationResult{Valid: true, Warnings: []InterventionReport{{RuleID: "domain.warn", Severity: SeverityWarning}}}
		},
	}
	council := &Council{
		Registry:   registry,
		Validators: []Validator{&AdmissibilityValidator{Registry: registry}, warner},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunPipeline(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.AllPass())
	assert.Len(t, result.Warnings, 1)
}

func TestCouncil_RunComposite_NoSecondaryIsValid(t *testing.T) {
	registry := newTestRegistry(t)
	council := &Council{Registry: registry}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunComposite(&proposal.SkillProposal{PrimarySkill: "irrigate"}, ctx)
	assert.True(t, result.Valid)
}

func TestCouncil_RunComposite_DetectsDeclaredConflict(t *testing.T) {
	registry := newTestRegistry(t)
	council := &Council{
		Registry:   registry,
		Validators: []Validator{&AdmissibilityValidator{Registry: registry}},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunComposite(&proposal.SkillProposal{PrimarySkill: "irrigate", SecondarySkill: "conserve_water"}, ctx)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "composite.conflict", result.Errors[0].RuleID)
}

func TestCouncil_RunComposite_NonConflictingSkillsPass(t *testing.T) {
	registry := newTestRegistry(t)
	require.NoError(t, registry.RegisterSkill(&skill.SkillDefinition{Name: "request_subsidy", AgentTypes: map[string]bool{"farmer": true}}))
	council := &Council{
		Registry:   registry,
		Validators: []Validator{&AdmissibilityValidator{Registry: registry}},
	}
	ctx := newTestContext(t, registry, skill.AgentState{})
	result := council.RunComposite(&proposal.SkillProposal{PrimarySkill: "irrigate", SecondarySkill: "request_subsidy"}, ctx)
	assert.True(t, result.Valid)
}

func TestValidationResult_AllBlockingDeterministic(t *testing.T) {
	det := ValidationResult{Errors: []InterventionReport{{Deterministic: true}}}
	assert.True(t, det.AllBlockingDeterministic())

	mixed := ValidationResult{Errors: []InterventionReport{{Deterministic: true}, {Deterministic: false}}}
	assert.False(t, mixed.AllBlockingDeterministic())

	empty := ValidationResult{}
	assert.False(t, empty.AllBlockingDeterministic())
}

func TestNewValidationContext_RejectsEnvironmentFieldCollidingWithState(t *testing.T) {
	_, err := NewValidationContext("a", "farmer", skill.AgentState{"water_level": 0.5}, map[string]any{"water_level": 0.9}, nil, nil, NewValidatorState())
	assert.Error(t, err)
}

func TestValidatorState_IncrAndGet(t *testing.T) {
	s := NewValidatorState()
	key := ValidatorStateKey{AgentID: "a", RuleID: "r"}
	assert.Equal(t, 0, s.Get(key))
	assert.Equal(t, 1, s.Incr(key))
	assert.Equal(t, 2, s.Incr(key))
	s.Set(key, 10)
	assert.Equal(t, 10, s.Get(key))
}
