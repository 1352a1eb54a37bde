package skill

import (
	"fmt"
	"sync"
)

// baseRegistry is a generic, mutex-protected name→item catalog:
// register-once semantics, read-write locking, no ordering guarantees on
// List.
type baseRegistry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func newBaseRegistry[T any]() *baseRegistry[T] {
	return &baseRegistry[T]{items: make(map[string]T)}
}

func (r *baseRegistry[T]) register(name string, item T) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[name]; exists {
		return fmt.Errorf("item %q already registered", name)
	}
	r.items[name] = item
	return nil
}

func (r *baseRegistry[T]) get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

func (r *baseRegistry[T]) list() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out
}

func (r *baseRegistry[T]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// AgentTypeConfig captures per-agent-type declarative wiring: the agent
// type name, its response format, and the single fallback skill exempt
// from construct-conditioned thinking rules. It holds no memory
// configuration and no identity or thinking rule sets.
type AgentTypeConfig struct {
	AgentType      string
	FallbackSkill  string
	ResponseFormat string
}

// Registry is the authoritative, read-only-after-build action catalog
// (C1). It is safe for concurrent reads from multiple agent-step workers;
// it is never mutated after Build returns.
type Registry struct {
	skills     *baseRegistry[*SkillDefinition]
	aliases    map[string]string // normalized alias -> canonical normalized name
	agentTypes *baseRegistry[*AgentTypeConfig]
}

// NewRegistry constructs an empty registry. Use Build (loader.go) to
// populate one from a declarative YAML source in production code; this
// constructor is also used directly by tests and by domain code that
// builds skills programmatically.
func NewRegistry() *Registry {
	return &Registry{
		skills:     newBaseRegistry[*SkillDefinition](),
		aliases:    make(map[string]string),
		agentTypes: newBaseRegistry[*AgentTypeConfig](),
	}
}

// RegisterSkill adds a skill definition under its canonical (normalized)
// name. Returns a *ConfigError if the name is already taken.
func (r *Registry) RegisterSkill(def *SkillDefinition) error {
	name := Normalize(def.Name)
	if err := r.skills.register(name, def); err != nil {
		return &ConfigError{Msg: err.Error()}
	}
	return nil
}

// RegisterAlias makes alias resolve to the same definition as canonical.
// Both are normalized. Returns a *ConfigError if canonical is unknown or
// alias collides with an existing skill/alias.
func (r *Registry) RegisterAlias(alias, canonical string) error {
	alias = Normalize(alias)
	canonical = Normalize(canonical)
	if _, ok := r.skills.get(canonical); !ok {
		return &ConfigError{Msg: fmt.Sprintf("alias %q targets unknown skill %q", alias, canonical)}
	}
	if _, ok := r.skills.get(alias); ok {
		return &ConfigError{Msg: fmt.Sprintf("alias %q collides with an existing skill name", alias)}
	}
	if _, ok := r.aliases[alias]; ok {
		return &ConfigError{Msg: fmt.Sprintf("alias %q already registered", alias)}
	}
	r.aliases[alias] = canonical
	return nil
}

// RegisterAgentType adds the declarative wiring for one agent type.
func (r *Registry) RegisterAgentType(cfg *AgentTypeConfig) error {
	if err := r.agentTypes.register(cfg.AgentType, cfg); err != nil {
		return &ConfigError{Msg: err.Error()}
	}
	return nil
}

// Resolve normalizes name (whitespace strip, lower-case), follows any
// alias, and returns the matching definition eligible for agentType.
// Unknown names surface as *AdmissibilityError; known-but-ineligible
// surfaces as *EligibilityError.
func (r *Registry) Resolve(nameOrAlias, agentType string) (*SkillDefinition, error) {
	name := Normalize(nameOrAlias)
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	def, ok := r.skills.get(name)
	if !ok {
		return nil, &AdmissibilityError{Name: nameOrAlias}
	}
	if !def.EligibleFor(agentType) {
		return nil, &EligibilityError{Name: def.Name, AgentType: agentType}
	}
	return def, nil
}

// EligibleFor returns every skill definition eligible for agentType,
// regardless of current precondition state.
func (r *Registry) EligibleFor(agentType string) []*SkillDefinition {
	out := make([]*SkillDefinition, 0)
	for _, def := range r.skills.list() {
		if def.EligibleFor(agentType) {
			out = append(out, def)
		}
	}
	return out
}

// CheckPreconditions evaluates a skill's preconditions against state.
func (r *Registry) CheckPreconditions(def *SkillDefinition, state AgentState) bool {
	return def.CheckPreconditions(state)
}

// CheckCompositeConflicts reports whether primary and secondary are
// declared mutually incompatible in either direction.
func (r *Registry) CheckCompositeConflicts(primary, secondary *SkillDefinition) bool {
	if primary.CompositeIncompatible[Normalize(secondary.Name)] {
		return true
	}
	if secondary.CompositeIncompatible[Normalize(primary.Name)] {
		return true
	}
	return false
}

// AgentTypeConfig returns the declarative wiring for agentType.
func (r *Registry) AgentTypeConfig(agentType string) (*AgentTypeConfig, bool) {
	return r.agentTypes.get(agentType)
}

// FallbackSkill resolves the domain-declared fallback skill for agentType.
// A missing or unresolvable fallback is a configuration error: the
// invariant "every agent-step produces exactly one executed action"
// depends on it always existing.
func (r *Registry) FallbackSkill(agentType string) (*SkillDefinition, error) {
	cfg, ok := r.AgentTypeConfig(agentType)
	if !ok {
		return nil, &ConfigError{Msg: fmt.Sprintf("no agent type config for %q", agentType)}
	}
	if cfg.FallbackSkill == "" {
		return nil, &ConfigError{Msg: fmt.Sprintf("agent type %q declares no fallback skill", agentType)}
	}
	def, ok := r.skills.get(Normalize(cfg.FallbackSkill))
	if !ok {
		return nil, &ConfigError{Msg: fmt.Sprintf("agent type %q fallback skill %q is not registered", agentType, cfg.FallbackSkill)}
	}
	return def, nil
}

// SkillCount returns the number of registered skills (for diagnostics).
func (r *Registry) SkillCount() int {
	return r.skills.count()
}

// AllSkills returns every registered skill definition (for context
// building and diagnostics). Order is unspecified.
func (r *Registry) AllSkills() []*SkillDefinition {
	return r.skills.list()
}
