package memory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UnknownAgentRetrieveIsEmpty(t *testing.T) {
	s := New(DefaultStoreConfig(), nil, rand.New(rand.NewSource(1)))
	out := s.Retrieve("ghost", 2030, "", 5, nil, nil)
	assert.Empty(t, out)
}

func TestStore_WorkingEvictsOldestNonConsolidatedFirst(t *testing.T) {
	cfg := DefaultStoreConfig()
	cfg.WorkingCapacity = 2
	cfg.Consolidation.ImportanceGate = 1.1 // nothing consolidates
	s := New(cfg, nil, rand.New(rand.NewSource(1)))

	s.Add("a1", "first", 0.1, "routine", "personal", 2000, nil)
	s.Add("a1", "second", 0.1, "routine", "personal", 2001, nil)
	s.Add("a1", "third", 0.1, "routine", "personal", 2002, nil)

	a := s.agent("a1")
	require.Len(t, a.working, 2)
	assert.Equal(t, "second", a.working[0].Content)
	assert.Equal(t, "third", a.working[1].Content)
}

func TestStore_ConsolidationDeepCopiesNoSharedMutation(t *testing.T) {
	cfg := DefaultStoreConfig()
	cfg.Consolidation.ImportanceGate = 0.1
	cfg.Consolidation.BurnProbability = 1.0 // always consolidate
	s := New(cfg, nil, rand.New(rand.NewSource(1)))

	tags := map[string]bool{"flood": true}
	s.Add("a1", "flood warning", 0.9, "critical", "community", 2005, tags)

	a := s.agent("a1")
	require.Len(t, a.working, 1)
	require.Len(t, a.longTerm, 1)

	a.working[0].Tags["mutated"] = true
	_, leaked := a.longTerm[0].Tags["mutated"]
	assert.False(t, leaked, "long-term tags must not share the working item's map")
}

func TestStore_WeightedRetrieval_SalienceBeatsRecency(t *testing.T) {
	cfg := DefaultStoreConfig()
	cfg.Mode = ModeWeighted
	cfg.Consolidation.ImportanceGate = 1.1 // keep routine items out of long-term
	s := New(cfg, nil, rand.New(rand.NewSource(1)))

	for i := 0; i < 4; i++ {
		s.Add("a1", "routine chore", 0.1, "routine", "personal", 2010, nil)
	}
	cfg2 := DefaultStoreConfig()
	cfg2.Mode = ModeWeighted
	cfg2.Consolidation.ImportanceGate = 0
	cfg2.Consolidation.BurnProbability = 1.0
	s2 := New(cfg2, nil, rand.New(rand.NewSource(1)))
	s2.Add("a1", "flood", 1.0, "critical", "community", 2000, map[string]bool{"flood": true})
	for i := 0; i < 4; i++ {
		s2.Add("a1", "routine chore", 0.1, "routine", "personal", 2010, nil)
	}

	out := s2.Retrieve("a1", 2010, "", 2, map[string]float64{"flood": 1.0}, nil)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "flood")
}

func TestStore_CheckpointRoundTripPreservesTierAndImportance(t *testing.T) {
	cfg := DefaultStoreConfig()
	cfg.Consolidation.ImportanceGate = 0
	cfg.Consolidation.BurnProbability = 1.0
	s := New(cfg, nil, rand.New(rand.NewSource(1)))
	s.Add("a1", "flood", 0.123456789, "critical", "community", 2000, map[string]bool{"flood": true})

	data, err := s.Checkpoint()
	require.NoError(t, err)

	restored := New(cfg, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, restored.Restore(data))

	original := s.agent("a1")
	back := restored.agent("a1")
	require.Len(t, back.working, len(original.working))
	require.Len(t, back.longTerm, len(original.longTerm))
	assert.Equal(t, original.working[0].Importance, back.working[0].Importance)
	assert.Equal(t, original.longTerm[0].Importance, back.longTerm[0].Importance)
	assert.True(t, back.longTerm[0].Consolidated)
}

func TestImportanceFactors_Derive(t *testing.T) {
	f := ImportanceFactors{
		EmotionWeights: map[string]float64{"critical": 1.0, "routine": 0.1},
		SourceWeights:  map[string]float64{"personal": 1.0, "community": 0.5},
	}
	assert.InDelta(t, 0.5, f.Derive("critical", "community"), 1e-9)
	assert.InDelta(t, 0.1, f.Derive("routine", "personal"), 1e-9)
}
