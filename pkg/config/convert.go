package config

import (
	"github.com/skillbroker/skillbroker/pkg/broker"
	"github.com/skillbroker/skillbroker/pkg/memory"
	"github.com/skillbroker/skillbroker/pkg/reflection"
)

// ToStoreConfig translates the declarative memory config into the form
// memory.New expects.
func (c MemoryConfig) ToStoreConfig() memory.StoreConfig {
	mode := memory.ModeBasic
	if c.Mode == "weighted" {
		mode = memory.ModeWeighted
	}
	return memory.StoreConfig{
		WorkingCapacity:  c.WorkingCapacity,
		LongTermCapacity: c.LongTermCapacity,
		Mode:             mode,
		Weights: memory.WeightConfig{
			Recency:         c.RecencyWeight,
			Importance:      c.ImportanceWeight,
			ContextMatch:    c.ContextMatchWeight,
			Relevance:       c.RelevanceWeight,
			Interference:    c.InterferenceWeight,
			Lambda:          c.DecayLambda,
			InterferenceCap: c.InterferenceCap,
		},
		Consolidation: memory.ConsolidationConfig{
			ImportanceGate:  c.ConsolidationGate,
			BurnProbability: c.ConsolidationBurn,
		},
	}
}

// ToBrokerConfig translates the declarative broker config.
func (c BrokerConfig) ToBrokerConfig() broker.Config {
	return broker.Config{MaxRetries: c.MaxRetries, MaxReportsPerRetry: c.MaxReportsPerRetry}
}

// ToReflectionConfig translates the declarative reflection config.
func (c ReflectionConfig) ToReflectionConfig() reflection.Config {
	return reflection.Config{
		CadenceYears:           c.CadenceYears,
		MemoriesPerAgent:       c.MemoriesPerAgent,
		InsightImportanceBoost: c.InsightImportanceBoost,
	}
}
