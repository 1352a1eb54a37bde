package skill

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PredicateConfig is the declarative, YAML-expressible form of a
// Precondition: "state[Attr] <op> Value", expressed over named
// agent-state attributes.
type PredicateConfig struct {
	Attr string `yaml:"attr"`
	Op   string `yaml:"op"` // eq, neq, lt, lte, gt, gte, truthy, falsy
	// Value is compared against AgentState[Attr]. Numeric comparisons
	// coerce both sides to float64; eq/neq also support strings and bools.
	Value any `yaml:"value"`
}

// Compile turns a declarative predicate into an executable Precondition.
func (p PredicateConfig) Compile() (Precondition, error) {
	attr := p.Attr
	switch p.Op {
	case "truthy":
		return func(s AgentState) bool { return truthy(s[attr]) }, nil
	case "falsy":
		return func(s AgentState) bool { return !truthy(s[attr]) }, nil
	case "eq":
		want := p.Value
		return func(s AgentState) bool { return equalValue(s[attr], want) }, nil
	case "neq":
		want := p.Value
		return func(s AgentState) bool { return !equalValue(s[attr], want) }, nil
	case "lt", "lte", "gt", "gte":
		want, ok := toFloat(p.Value)
		if !ok {
			return nil, fmt.Errorf("predicate on %q: op %q requires a numeric value", attr, p.Op)
		}
		op := p.Op
		return func(s AgentState) bool {
			got, ok := toFloat(s[attr])
			if !ok {
				return false
			}
			switch op {
			case "lt":
				return got < want
			case "lte":
				return got <= want
			case "gt":
				return got > want
			default:
				return got >= want
			}
		}, nil
	default:
		return nil, fmt.Errorf("predicate on %q: unknown op %q", attr, p.Op)
	}
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func equalValue(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok2 := toFloat(want); ok2 {
			return gf == wf
		}
	}
	return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// SkillConfig is the declarative per-skill schema: {name, agent_types,
// preconditions, institutional_constraints, composite_conflicts} exposed
// to collaborators.
type SkillConfig struct {
	Name                  string            `yaml:"name"`
	Aliases               []string          `yaml:"aliases"`
	AgentTypes            []string          `yaml:"agent_types"`
	Preconditions         []PredicateConfig `yaml:"preconditions"`
	InstitutionalRules    []string          `yaml:"institutional_constraints"`
	CompositeConflicts    []string          `yaml:"composite_conflicts"`
	WritesAttributes      []string          `yaml:"state_changes"`
	Fallback              bool              `yaml:"fallback"`
}

// AgentTypeYAML is the declarative per-agent-type schema: {agent_type,
// fallback_skill, response_format}. Memory configuration and identity or
// thinking rules are not read from this document.
type AgentTypeYAML struct {
	AgentType      string `yaml:"agent_type"`
	FallbackSkill  string `yaml:"fallback_skill"`
	ResponseFormat string `yaml:"response_format"`
}

// RegistryConfig is the root declarative registry document.
type RegistryConfig struct {
	Skills     []SkillConfig   `yaml:"skills"`
	AgentTypes []AgentTypeYAML `yaml:"agent_types"`
}

// LoadRegistryYAML parses a YAML document into a RegistryConfig.
func LoadRegistryYAML(data []byte) (*RegistryConfig, error) {
	var cfg RegistryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse registry YAML: %w", err)
	}
	return &cfg, nil
}

// Build constructs a read-only Registry from a declarative config. Every
// failure here is a *ConfigError and must be treated as fatal at startup
// the registry is never partially built.
func Build(cfg *RegistryConfig) (*Registry, error) {
	r := NewRegistry()

	for i := range cfg.Skills {
		sc := &cfg.Skills[i]
		def := &SkillDefinition{
			Name:                  sc.Name,
			AgentTypes:            map[string]bool{},
			CompositeIncompatible: map[string]bool{},
			WritesAttributes:      sc.WritesAttributes,
			Fallback:              sc.Fallback,
		}
		for _, at := range sc.AgentTypes {
			def.AgentTypes[at] = true
		}
		for _, c := range sc.InstitutionalRules {
			def.InstitutionalRules = append(def.InstitutionalRules, InstitutionalConstraint(c))
		}
		for _, cc := range sc.CompositeConflicts {
			def.CompositeIncompatible[Normalize(cc)] = true
		}
		for _, pc := range sc.Preconditions {
			pred, err := pc.Compile()
			if err != nil {
				return nil, &ConfigError{Msg: fmt.Sprintf("skill %q: %v", sc.Name, err)}
			}
			def.Preconditions = append(def.Preconditions, pred)
		}
		if err := r.RegisterSkill(def); err != nil {
			return nil, err
		}
	}

	// Second pass for aliases: targets must already be registered.
	for i := range cfg.Skills {
		sc := &cfg.Skills[i]
		for _, alias := range sc.Aliases {
			if err := r.RegisterAlias(alias, sc.Name); err != nil {
				return nil, err
			}
		}
	}

	for i := range cfg.AgentTypes {
		at := &cfg.AgentTypes[i]
		if err := r.RegisterAgentType(&AgentTypeConfig{
			AgentType:      at.AgentType,
			FallbackSkill:  at.FallbackSkill,
			ResponseFormat: at.ResponseFormat,
		}); err != nil {
			return nil, err
		}
		// Fail fast: a declared agent type with no resolvable fallback
		// breaks the "always one executed action" invariant.
		if _, err := r.FallbackSkill(at.AgentType); err != nil {
			return nil, err
		}
	}

	return r, nil
}
