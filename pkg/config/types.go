package config

// MemoryConfig is the declarative form of memory.StoreConfig.
type MemoryConfig struct {
	Mode                string  `mapstructure:"mode"` // "basic" | "weighted"
	WorkingCapacity     int     `mapstructure:"working_capacity"`
	LongTermCapacity    int     `mapstructure:"long_term_capacity"`
	RecencyWeight       float64 `mapstructure:"recency_weight"`
	ImportanceWeight    float64 `mapstructure:"importance_weight"`
	ContextMatchWeight  float64 `mapstructure:"context_match_weight"`
	RelevanceWeight     float64 `mapstructure:"relevance_weight"`
	InterferenceWeight  float64 `mapstructure:"interference_weight"`
	InterferenceCap     float64 `mapstructure:"interference_cap"`
	DecayLambda         float64 `mapstructure:"decay_lambda"`
	ConsolidationGate   float64 `mapstructure:"consolidation_gate"`
	ConsolidationBurn   float64 `mapstructure:"consolidation_burn"`
}

// BrokerConfig is the declarative form of broker.Config.
type BrokerConfig struct {
	MaxRetries         int `mapstructure:"max_retries"`
	MaxReportsPerRetry int `mapstructure:"max_reports_per_retry"`
}

// ReflectionConfig is the declarative form of reflection.Config.
type ReflectionConfig struct {
	CadenceYears           int     `mapstructure:"cadence_years"`
	MemoriesPerAgent       int     `mapstructure:"memories_per_agent"`
	InsightImportanceBoost float64 `mapstructure:"insight_importance_boost"`
}

// AuditConfig names where the audit trace/summary are written and
// whether the additive SQLite sink is enabled.
type AuditConfig struct {
	TracePath   string `mapstructure:"trace_path"`
	SummaryPath string `mapstructure:"summary_path"`
	SQLitePath  string `mapstructure:"sqlite_path"` // empty disables the SQLite sink
}

// ServerConfig controls the optional HTTP surface.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// TelemetryConfig controls OpenTelemetry tracing/metrics export.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// Config is the top-level declarative process configuration.
type Config struct {
	RegistryPath string           `mapstructure:"registry_path"`
	LogLevel     string           `mapstructure:"log_level"`
	Memory       MemoryConfig     `mapstructure:"memory"`
	Broker       BrokerConfig     `mapstructure:"broker"`
	Reflection   ReflectionConfig `mapstructure:"reflection"`
	Audit        AuditConfig      `mapstructure:"audit"`
	Server       ServerConfig     `mapstructure:"server"`
	Telemetry    TelemetryConfig  `mapstructure:"telemetry"`
}

// Defaults returns the standard default configuration.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		Memory: MemoryConfig{
			Mode:               "basic",
			WorkingCapacity:    5,
			RecencyWeight:      0.3,
			ImportanceWeight:   0.5,
			ContextMatchWeight: 0.2,
			InterferenceCap:    0.8,
			DecayLambda:        0.1,
			ConsolidationGate:  0.6,
			ConsolidationBurn:  0.8,
		},
		Broker: BrokerConfig{MaxRetries: 3, MaxReportsPerRetry: 3},
		Reflection: ReflectionConfig{
			CadenceYears:           1,
			MemoriesPerAgent:       10,
			InsightImportanceBoost: 0.9,
		},
		Audit: AuditConfig{TracePath: "audit_trace.jsonl", SummaryPath: "audit_summary.json"},
		Server: ServerConfig{Enabled: false, Addr: ":8080"},
		Telemetry: TelemetryConfig{Enabled: false, ServiceName: "skillbroker"},
	}
}
