package skill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicateConfig_Compile_NumericOps(t *testing.T) {
	cases := []struct {
		op    string
		value any
		state AgentState
		want  bool
	}{
		{"gt", 0.5, AgentState{"x": 0.6}, true},
		{"gt", 0.5, AgentState{"x": 0.4}, false},
		{"gte", 0.5, AgentState{"x": 0.5}, true},
		{"lt", 0.5, AgentState{"x": 0.4}, true},
		{"lte", 0.5, AgentState{"x": 0.5}, true},
		{"eq", "farmer", AgentState{"x": "farmer"}, true},
		{"neq", "farmer", AgentState{"x": "regulator"}, true},
		{"truthy", nil, AgentState{"x": true}, true},
		{"falsy", nil, AgentState{"x": false}, true},
	}
	for _, c := range cases {
		pc := PredicateConfig{Attr: "x", Op: c.op, Value: c.value}
		pred, err := pc.Compile()
		require.NoError(t, err)
		assert.Equal(t, c.want, pred(c.state), "op=%s", c.op)
	}
}

func TestPredicateConfig_Compile_UnknownOpErrors(t *testing.T) {
	_, err := PredicateConfig{Attr: "x", Op: "bogus"}.Compile()
	assert.Error(t, err)
}

func TestPredicateConfig_Compile_NonNumericValueForComparisonOpErrors(t *testing.T) {
	_, err := PredicateConfig{Attr: "x", Op: "gt", Value: "not-a-number"}.Compile()
	assert.Error(t, err)
}

func TestPredicateConfig_Compile_MissingAttrIsFalse(t *testing.T) {
	pred, err := PredicateConfig{Attr: "missing", Op: "gt", Value: 0.1}.Compile()
	require.NoError(t, err)
	assert.False(t, pred(AgentState{}))
}

func TestLoadRegistryYAML_ParsesDocument(t *testing.T) {
	doc := []byte(`
skills:
  - name: irrigate
    agent_types: [farmer]
    preconditions:
      - attr: water_level
        op: gt
        value: 0.15
    state_changes: [water_level]
agent_types:
  - agent_type: farmer
    fallback_skill: irrigate
`)
	cfg, err := LoadRegistryYAML(doc)
	require.NoError(t, err)
	require.Len(t, cfg.Skills, 1)
	assert.Equal(t, "irrigate", cfg.Skills[0].Name)
	require.Len(t, cfg.AgentTypes, 1)
	assert.Equal(t, "farmer", cfg.AgentTypes[0].AgentType)
}

func TestLoadRegistryYAML_InvalidYAMLErrors(t *testing.T) {
	_, err := LoadRegistryYAML([]byte("not: [valid: yaml"))
	assert.Error(t, err)
}

func TestBuild_ConstructsRegistryFromConfig(t *testing.T) {
	cfg := &RegistryConfig{
		Skills: []SkillConfig{
			{
				Name:               "irrigate",
				AgentTypes:         []string{"farmer"},
				Preconditions:      []PredicateConfig{{Attr: "water_level", Op: "gt", Value: 0.15}},
				InstitutionalRules: []string{"annual"},
				WritesAttributes:   []string{"water_level"},
			},
			{
				Name:       "conserve_water",
				Aliases:    []string{"ration_water"},
				AgentTypes: []string{"farmer"},
				Fallback:   true,
			},
		},
		AgentTypes: []AgentTypeYAML{
			{AgentType: "farmer", FallbackSkill: "conserve_water"},
		},
	}

	r, err := Build(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, r.SkillCount())

	def, err := r.Resolve("ration_water", "farmer")
	require.NoError(t, err)
	assert.Equal(t, "conserve_water", def.Name)

	fallback, err := r.FallbackSkill("farmer")
	require.NoError(t, err)
	assert.Equal(t, "conserve_water", fallback.Name)
}

func TestBuild_InvalidPredicateIsConfigError(t *testing.T) {
	cfg := &RegistryConfig{
		Skills: []SkillConfig{
			{Name: "irrigate", Preconditions: []PredicateConfig{{Attr: "x", Op: "bogus"}}},
		},
	}
	_, err := Build(cfg)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuild_AgentTypeWithUnresolvableFallbackFails(t *testing.T) {
	cfg := &RegistryConfig{
		AgentTypes: []AgentTypeYAML{
			{AgentType: "farmer", FallbackSkill: "does_not_exist"},
		},
	}
	_, err := Build(cfg)
	assert.Error(t, err)
}

func TestBuild_AliasToKnownTargetSucceeds(t *testing.T) {
	cfg := &RegistryConfig{
		Skills: []SkillConfig{
			{Name: "irrigate", AgentTypes: []string{"farmer"}, Aliases: []string{"water"}},
		},
	}
	r, err := Build(cfg)
	require.NoError(t, err)

	def, err := r.Resolve("water", "farmer")
	require.NoError(t, err)
	assert.Equal(t, "irrigate", def.Name)
}
