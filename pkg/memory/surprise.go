package memory

// CognitiveSystem names the dual-process mode a surprise observation
// switches retrieval into.
type CognitiveSystem string

const (
	System1 CognitiveSystem = "SYSTEM_1" // habitual
	System2 CognitiveSystem = "SYSTEM_2" // deliberative
)

// SurpriseThreshold is the arousal level (T) above which retrieval
// switches from System1 to System2.
const SurpriseThreshold = 0.5

// SurprisePlugin is an optional capability set a caller may attach to a
// store to derive dynamic top-k retrieval counts from world-state novelty.
// A store with no plugin always retrieves at its static window size.
type SurprisePlugin interface {
	Observe(worldState map[string]any) float64 // surprise in [0,1]
	CognitiveSystem() CognitiveSystem
	Reset()
	Trace() []float64
}

// TopKConfig maps cognitive system to a retrieval count, plus a flat
// bonus of additional high-importance long-term items applied regardless
// of system.
type TopKConfig struct {
	HabitTopK      int // retrieval count under SYSTEM_1, default 5
	AlertTopK      int // retrieval count under SYSTEM_2, default 7
	AlertBonusLongTerm int // extra high-importance long-term items, default 2
}

// DefaultTopKConfig returns the default top-k configuration.
func DefaultTopKConfig() TopKConfig {
	return TopKConfig{HabitTopK: 5, AlertTopK: 7, AlertBonusLongTerm: 2}
}

// noopSurprisePlugin is the "none" default variant: surprise is always 0,
// the cognitive system is always the habitual SYSTEM_1.
type noopSurprisePlugin struct{}

// NewNoopSurprisePlugin returns a plugin that reports no arousal, used
// when a domain has not wired a real surprise model.
func NewNoopSurprisePlugin() SurprisePlugin { return noopSurprisePlugin{} }

func (noopSurprisePlugin) Observe(map[string]any) float64    { return 0 }
func (noopSurprisePlugin) CognitiveSystem() CognitiveSystem  { return System1 }
func (noopSurprisePlugin) Reset()                            {}
func (noopSurprisePlugin) Trace() []float64                  { return nil }
