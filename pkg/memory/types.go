// Package memory implements the Human-Centric Memory Engine (C4): a
// per-agent, two-tier episodic store with importance decay, salience
// retrieval, and consolidation.
package memory

import "math"

// MemoryItem is one episodic observation owned by a single agent.
type MemoryItem struct {
	AgentID      string
	Content      string
	Importance   float64 // I0, in [0,1] at creation
	Emotion      string
	Source       string // personal|neighbor|community|reflection|abstract
	CreatedYear  int
	Tags         map[string]bool
	Consolidated bool

	// seq breaks ties in stable creation order; never serialized as an
	// independent concept, but preserved across checkpoint round-trips.
	seq int
}

// DecayedImportance returns I(t) = I0 * exp(-lambda * age) for a given
// current year and decay rate.
func (m MemoryItem) DecayedImportance(currentYear int, lambda float64) float64 {
	age := float64(currentYear - m.CreatedYear)
	if age < 0 {
		age = 0
	}
	return m.Importance * math.Exp(-lambda*age)
}

// RankingMode selects between the legacy retrieval (most recent working
// items plus long-term items by decayed importance) and the unified
// weighted-salience scorer.
type RankingMode int

const (
	ModeBasic RankingMode = iota
	ModeWeighted
)

// WeightConfig holds the tunable coefficients for weighted-mode scoring
// and decay.
type WeightConfig struct {
	Recency       float64 // W_r
	Importance    float64 // W_i
	ContextMatch  float64 // W_c
	Relevance     float64 // W_rel
	Interference  float64 // W_int
	Lambda        float64 // decay rate
	InterferenceCap float64 // gamma
}

// DefaultWeights returns the default weighting coefficients.
func DefaultWeights() WeightConfig {
	return WeightConfig{
		Recency:         0.3,
		Importance:      0.5,
		ContextMatch:    0.2,
		Relevance:       0,
		Interference:    0,
		Lambda:          0.1,
		InterferenceCap: 0.8,
	}
}

// ConsolidationConfig controls when a freshly-ingested working item is
// also deep-copied into the long-term tier.
type ConsolidationConfig struct {
	ImportanceGate float64 // I_gate, default 0.6
	BurnProbability float64 // P_burn, default 0.8
}

// DefaultConsolidation returns the default consolidation thresholds.
func DefaultConsolidation() ConsolidationConfig {
	return ConsolidationConfig{ImportanceGate: 0.6, BurnProbability: 0.8}
}

// StoreConfig bundles the per-agent store's tunables.
type StoreConfig struct {
	WorkingCapacity   int // W, default 5
	LongTermCapacity  int // 0 = unbounded
	Mode              RankingMode
	Weights           WeightConfig
	Consolidation     ConsolidationConfig
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		WorkingCapacity:  5,
		LongTermCapacity: 0,
		Mode:             ModeBasic,
		Weights:          DefaultWeights(),
		Consolidation:    DefaultConsolidation(),
	}
}

// ImportanceFactors derives I0 = W_emotion * W_source from caller-supplied
// lookup tables, e.g. {"critical":1.0,"major":0.9,"routine":0.1} and
// {"personal":1.0,"neighbor":0.7,"community":0.5}.
type ImportanceFactors struct {
	EmotionWeights map[string]float64
	SourceWeights  map[string]float64
}

// Derive computes I0 for the given emotion/source tags. Unknown tags
// contribute a weight of 0, which is a caller configuration omission, not
// an error — the item is simply ingested as unimportant.
func (f ImportanceFactors) Derive(emotion, source string) float64 {
	return f.EmotionWeights[emotion] * f.SourceWeights[source]
}
