package audit

import "sync"

// Writer fans each decision out to every configured Sink and accumulates
// the running counts needed for the end-of-run Summary. Safe for
// concurrent use: optional worker-level parallelism requires the Audit
// Writer to be serialized behind a single-producer queue, which this
// mutex provides for in-process callers.
type Writer struct {
	mu      sync.Mutex
	sinks   []Sink
	summary Summary
}

// NewWriter constructs a Writer fanning out to the given sinks. At least
// one sink (typically a FileSink) should be present.
func NewWriter(sinks ...Sink) *Writer {
	return &Writer{
		sinks:   sinks,
		summary: Summary{RuleHistogram: make(map[string]int)},
	}
}

// Record writes one decision to every sink and folds it into the running
// summary. The first sink error is returned; later sinks are still
// attempted so a queryable-but-slow sink never blocks the mandated trace.
func (w *Writer) Record(rec DecisionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.summary.TotalDecisions++
	switch rec.Outcome {
	case "APPROVED":
		w.summary.Approved++
		if rec.RetryCount > 0 {
			w.summary.RetrySuccesses++
		}
	case "REJECTED":
		w.summary.Rejected++
	}
	for _, r := range rec.Reports {
		if r.Severity == "WARNING" {
			w.summary.TotalWarnings++
		}
		w.summary.RuleHistogram[r.RuleID]++
	}

	var firstErr error
	for _, s := range w.sinks {
		if err := s.WriteDecision(rec); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Snapshot returns a copy of the running summary without finalizing the
// writer, suitable for serving from a live status endpoint.
func (w *Writer) Snapshot() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	histogram := make(map[string]int, len(w.summary.RuleHistogram))
	for k, v := range w.summary.RuleHistogram {
		histogram[k] = v
	}
	snap := w.summary
	snap.RuleHistogram = histogram
	return snap
}

// Finalize writes the accumulated Summary to every sink and closes them.
func (w *Writer) Finalize() error {
	w.mu.Lock()
	summary := w.summary
	sinks := w.sinks
	w.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.WriteSummary(summary); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
