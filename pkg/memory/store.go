package memory

import (
	"math/rand"
	"sync"

	"github.com/skillbroker/skillbroker/pkg/telemetry"
)

// agentStore is the two-tier memory for a single agent: a bounded
// working buffer and an unbounded-or-capped long-term list. No mutable
// reference is ever shared between the two lists — items crossing into
// long-term are always copied.
type agentStore struct {
	mu       sync.Mutex
	working  []MemoryItem
	longTerm []MemoryItem
	nextSeq  int
}

// Store is the full per-agent Memory Engine (C4): a registry of
// independent agentStores plus the shared configuration and optional
// surprise plugin used to derive retrieval parameters.
type Store struct {
	cfg     StoreConfig
	topK    TopKConfig
	plugin  SurprisePlugin
	rng     *rand.Rand
	Metrics *telemetry.Metrics

	mu     sync.Mutex
	agents map[string]*agentStore
}

// New constructs a Memory Engine. rng is used only for the probabilistic
// consolidation burn check; pass a seeded source for deterministic tests.
func New(cfg StoreConfig, plugin SurprisePlugin, rng *rand.Rand) *Store {
	if plugin == nil {
		plugin = NewNoopSurprisePlugin()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Store{
		cfg:    cfg,
		topK:   DefaultTopKConfig(),
		plugin: plugin,
		rng:    rng,
		agents: make(map[string]*agentStore),
	}
}

func (s *Store) agent(agentID string) *agentStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[agentID]
	if !ok {
		a = &agentStore{}
		s.agents[agentID] = a
	}
	return a
}

// Add ingests one observation for agentID. importance, emotion, source,
// year, and tags are caller-derived (typically via ImportanceFactors).
// Consolidation is applied probabilistically: when importance clears the
// gate, the item is deep-copied into long-term with probability P_burn.
func (s *Store) Add(agentID, content string, importance float64, emotion, source string, year int, tags map[string]bool) {
	a := s.agent(agentID)
	a.mu.Lock()
	defer a.mu.Unlock()

	item := MemoryItem{
		AgentID:     agentID,
		Content:     content,
		Importance:  importance,
		Emotion:     emotion,
		Source:      source,
		CreatedYear: year,
		Tags:        cloneTags(tags),
		seq:         a.nextSeq,
	}
	a.nextSeq++

	consolidated := false
	if importance >= s.cfg.Consolidation.ImportanceGate && s.rng.Float64() < s.cfg.Consolidation.BurnProbability {
		consolidated = true
	}
	item.Consolidated = consolidated

	a.working = append(a.working, item)
	s.evictWorking(a)

	s.Metrics.RecordMemoryOp("add")

	if consolidated {
		longTermCopy := item
		longTermCopy.Tags = cloneTags(item.Tags)
		a.longTerm = append(a.longTerm, longTermCopy)
		s.evictLongTerm(a)
		s.Metrics.RecordMemoryOp("consolidate")
	}
}

// evictWorking enforces the bounded working capacity: consolidated items
// are preferentially retained, so the oldest non-consolidated item is
// evicted first; if none remain, the oldest overall is evicted.
func (s *Store) evictWorking(a *agentStore) {
	capacity := s.cfg.WorkingCapacity
	if capacity <= 0 {
		capacity = 5
	}
	for len(a.working) > capacity {
		idx := -1
		for i, it := range a.working {
			if !it.Consolidated {
				idx = i
				break
			}
		}
		if idx == -1 {
			idx = 0
		}
		a.working = append(a.working[:idx], a.working[idx+1:]...)
		s.Metrics.RecordMemoryOp("evict")
	}
}

// evictLongTerm enforces an optional long-term capacity by dropping the
// lowest current-importance item (using its un-decayed I0, since decay
// depends on a query-time year the store does not otherwise track).
func (s *Store) evictLongTerm(a *agentStore) {
	if s.cfg.LongTermCapacity <= 0 {
		return
	}
	for len(a.longTerm) > s.cfg.LongTermCapacity {
		minIdx := 0
		for i, it := range a.longTerm {
			if it.Importance < a.longTerm[minIdx].Importance {
				minIdx = i
			}
		}
		a.longTerm = append(a.longTerm[:minIdx], a.longTerm[minIdx+1:]...)
		s.Metrics.RecordMemoryOp("evict")
	}
}

// Retrieve returns verbalizable content strings for agentID. Unknown
// agents yield an empty list — memory is never authoritative ground
// truth, so a missing store is not an error.
func (s *Store) Retrieve(agentID string, currentYear int, query string, topK int, contextualBoosters map[string]float64, worldState map[string]any) []string {
	s.mu.Lock()
	a, ok := s.agents[agentID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s.Metrics.RecordMemoryOp("retrieve")
	k := s.resolveTopK(topK, worldState)

	var items []MemoryItem
	switch s.cfg.Mode {
	case ModeWeighted:
		pool := append(append([]MemoryItem{}, a.working...), a.longTerm...)
		items = topN(weightedRank(pool, currentYear, s.cfg.Weights, query, contextualBoosters), k)
		items = append(items, s.bonusLongTerm(a.longTerm, items, currentYear)...)
	default:
		recent := a.working
		if len(recent) > k {
			recent = recent[len(recent)-k:]
		}
		ltRanked := topN(basicRank(a.longTerm, currentYear, s.cfg.Weights.Lambda), k)
		items = append(append([]MemoryItem{}, recent...), ltRanked...)
	}

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Content
	}
	return out
}

// resolveTopK returns requested unchanged when worldState is nil.
// Otherwise it observes worldState through the Surprise Plugin (the noop
// plugin included): surprise above SurpriseThreshold selects AlertTopK;
// otherwise requested is used if positive, else HabitTopK.
func (s *Store) resolveTopK(requested int, worldState map[string]any) int {
	if worldState == nil {
		return requested
	}
	surprise := s.plugin.Observe(worldState)
	if surprise > SurpriseThreshold {
		return s.topK.AlertTopK
	}
	if requested > 0 {
		return requested
	}
	return s.topK.HabitTopK
}

// bonusLongTerm selects up to AlertBonusLongTerm additional long-term items
// by raw (un-decayed) importance, regardless of cognitive system,
// supplementing whatever the ranking mode already selected. Items already
// present in selected (by creation sequence) are never duplicated.
func (s *Store) bonusLongTerm(longTerm []MemoryItem, selected []MemoryItem, currentYear int) []MemoryItem {
	bonus := s.topK.AlertBonusLongTerm
	if bonus <= 0 || len(longTerm) == 0 {
		return nil
	}
	already := make(map[int]bool, len(selected))
	for _, it := range selected {
		already[it.seq] = true
	}

	candidates := make([]MemoryItem, 0, len(longTerm))
	for _, it := range longTerm {
		if !already[it.seq] {
			candidates = append(candidates, it)
		}
	}
	// lambda=0 makes DecayedImportance return raw Importance unchanged.
	return topN(basicRank(candidates, currentYear, 0), bonus)
}

// Clear discards both tiers for agentID.
func (s *Store) Clear(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, agentID)
	s.Metrics.RecordMemoryOp("clear")
}

func cloneTags(tags map[string]bool) map[string]bool {
	if tags == nil {
		return nil
	}
	out := make(map[string]bool, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
