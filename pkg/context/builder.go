// Package context implements the Tiered Context Builder (C5): it merges
// agent state, memory, environment, and the filtered skill space into an
// immutable prompt payload.
package context

import (
	"sort"
	"strconv"

	"github.com/skillbroker/skillbroker/pkg/memory"
	"github.com/skillbroker/skillbroker/pkg/skill"
)

// VerbalizationBin maps a numeric range to a qualitative phrase, e.g.
// trust >= 0.7 -> "high trust".
type VerbalizationBin struct {
	Min   float64
	Max   float64
	Label string
}

// VerbalizationConfig is a caller-supplied {attribute -> bins} table.
type VerbalizationConfig map[string][]VerbalizationBin

// Verbalize returns the label of the first bin containing value, or ""
// if no bin matches — callers fall back to the raw value in that case.
func (c VerbalizationConfig) Verbalize(attr string, value float64) string {
	for _, bin := range c[attr] {
		if value >= bin.Min && value <= bin.Max {
			return bin.Label
		}
	}
	return ""
}

// BoosterRule inspects an environment signal and, when triggered, emits a
// {tag: weight} contextual booster hint for weighted memory retrieval.
type BoosterRule struct {
	EnvKey  string
	Trigger func(value any) bool
	Tag     string
	Weight  float64
}

// Payload is the assembled, template-ready prompt content for one
// agent-step. Shape is stable across agent types; section content varies.
type Payload struct {
	Personal map[string]any
	Local    map[string]any
	Global   map[string]any
	Memory   []string

	// SkillMap is the dynamic numeric->name map the LLM replies against;
	// its keys/values are invariant-consistent with FilteredSkills (same
	// length, same names, in the same order).
	SkillMap       map[string]string
	FilteredSkills []*skill.SkillDefinition
}

// Builder assembles Payloads from a registry, a memory store, and
// caller-supplied verbalization/booster configuration.
type Builder struct {
	Registry      *skill.Registry
	Memory        *memory.Store
	Verbalization VerbalizationConfig
	Boosters      []BoosterRule
	Shuffle       func([]*skill.SkillDefinition) // optional, nil = stable order
	Budget        TokenBudget
}

// BuildInput carries the per-call, per-agent inputs to Build.
type BuildInput struct {
	AgentID     string
	AgentType   string
	Year        int
	State       skill.AgentState
	Environment map[string]any
	WorldState  map[string]any
	Query       string
	TopK        int
}

// Build assembles the full tiered payload for one agent-step.
func (b *Builder) Build(in BuildInput) Payload {
	boosters := b.activeBoosters(in.Environment)

	memLines := b.Memory.Retrieve(in.AgentID, in.Year, in.Query, in.TopK, boosters, in.WorldState)

	eligible := b.Registry.EligibleFor(in.AgentType)
	filtered := make([]*skill.SkillDefinition, 0, len(eligible))
	for _, def := range eligible {
		if def.CheckPreconditions(in.State) {
			filtered = append(filtered, def)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Name < filtered[j].Name })
	if b.Shuffle != nil {
		b.Shuffle(filtered)
	}

	skillMap := make(map[string]string, len(filtered))
	for i, def := range filtered {
		skillMap[strconv.Itoa(i+1)] = def.Name
	}

	personal := b.verbalizeState(in.State)
	local := cloneAny(in.Environment)
	global := map[string]any{"year": in.Year}

	payload := Payload{
		Personal:       personal,
		Local:          local,
		Global:         global,
		Memory:         memLines,
		SkillMap:       skillMap,
		FilteredSkills: filtered,
	}
	return b.Budget.Trim(payload)
}

// activeBoosters evaluates every BoosterRule against the environment
// snapshot and accumulates {tag: weight} hints.
func (b *Builder) activeBoosters(env map[string]any) map[string]float64 {
	if len(b.Boosters) == 0 {
		return nil
	}
	out := make(map[string]float64)
	for _, rule := range b.Boosters {
		v, ok := env[rule.EnvKey]
		if !ok {
			continue
		}
		if rule.Trigger(v) {
			if rule.Weight > out[rule.Tag] {
				out[rule.Tag] = rule.Weight
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// verbalizeState maps numeric state fields to qualitative phrases via the
// configured bins, leaving non-numeric and unbinned fields untouched.
func (b *Builder) verbalizeState(state skill.AgentState) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		if f, ok := toFloat(v); ok {
			if label := b.Verbalization.Verbalize(k, f); label != "" {
				out[k] = label
				continue
			}
		}
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cloneAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
