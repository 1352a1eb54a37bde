package memory

import "encoding/json"

// checkpointItem is the JSON wire form of a MemoryItem, preserving every
// field decay and consolidation depend on, plus Seq so restored stores
// keep stable tie-break ordering.
type checkpointItem struct {
	Content      string          `json:"content"`
	Importance   float64         `json:"importance"`
	Emotion      string          `json:"emotion"`
	Source       string          `json:"source"`
	CreatedYear  int             `json:"created_year"`
	Tags         map[string]bool `json:"tags,omitempty"`
	Consolidated bool            `json:"consolidated"`
	Seq          int             `json:"seq"`
}

// checkpointAgent holds one agent's two tiers plus its sequence cursor.
type checkpointAgent struct {
	Working  []checkpointItem `json:"working"`
	LongTerm []checkpointItem `json:"long_term"`
	NextSeq  int              `json:"next_seq"`
}

// Checkpoint is the serializable snapshot of every agent's memory.
type Checkpoint struct {
	Agents map[string]checkpointAgent `json:"agents"`
}

// Checkpoint serializes every agent's memory to JSON. Tier separation and
// importance values survive the round-trip bit-for-bit, since Go's
// encoding/json marshals float64 losslessly.
func (s *Store) Checkpoint() ([]byte, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.agents))
	stores := make([]*agentStore, 0, len(s.agents))
	for id, a := range s.agents {
		ids = append(ids, id)
		stores = append(stores, a)
	}
	s.mu.Unlock()

	snapshot := Checkpoint{Agents: make(map[string]checkpointAgent, len(ids))}
	for i, id := range ids {
		a := stores[i]
		a.mu.Lock()
		snapshot.Agents[id] = checkpointAgent{
			Working:  toCheckpointItems(a.working),
			LongTerm: toCheckpointItems(a.longTerm),
			NextSeq:  a.nextSeq,
		}
		a.mu.Unlock()
	}
	return json.Marshal(snapshot)
}

// Restore replaces the store's contents with a previously captured
// Checkpoint. Existing in-memory state for any agent present in the
// checkpoint is discarded; agents absent from the checkpoint are
// untouched.
func (s *Store) Restore(data []byte) error {
	var snapshot Checkpoint
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ca := range snapshot.Agents {
		s.agents[id] = &agentStore{
			working:  fromCheckpointItems(id, ca.Working),
			longTerm: fromCheckpointItems(id, ca.LongTerm),
			nextSeq:  ca.NextSeq,
		}
	}
	return nil
}

func toCheckpointItems(items []MemoryItem) []checkpointItem {
	out := make([]checkpointItem, len(items))
	for i, it := range items {
		out[i] = checkpointItem{
			Content:      it.Content,
			Importance:   it.Importance,
			Emotion:      it.Emotion,
			Source:       it.Source,
			CreatedYear:  it.CreatedYear,
			Tags:         it.Tags,
			Consolidated: it.Consolidated,
			Seq:          it.seq,
		}
	}
	return out
}

func fromCheckpointItems(agentID string, items []checkpointItem) []MemoryItem {
	out := make([]MemoryItem, len(items))
	for i, ci := range items {
		out[i] = MemoryItem{
			AgentID:      agentID,
			Content:      ci.Content,
			Importance:   ci.Importance,
			Emotion:      ci.Emotion,
			Source:       ci.Source,
			CreatedYear:  ci.CreatedYear,
			Tags:         ci.Tags,
			Consolidated: ci.Consolidated,
			seq:          ci.Seq,
		}
	}
	return out
}
