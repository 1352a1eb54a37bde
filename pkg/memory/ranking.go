package memory

import "strings"

// scored pairs a candidate memory with its computed salience and its
// stable tie-break sequence.
type scored struct {
	item  MemoryItem
	score float64
}

// basicRank scores purely by decayed importance; used for the long-term
// pool in ModeBasic and as the fallback Rel/Int-free path.
func basicRank(items []MemoryItem, currentYear int, lambda float64) []scored {
	out := make([]scored, len(items))
	for i, it := range items {
		out[i] = scored{item: it, score: it.DecayedImportance(currentYear, lambda)}
	}
	return out
}

// weightedRank computes S = W_r*R + W_i*I + W_c*C + W_rel*Rel - W_int*Int
// for each candidate against the full pool (interference needs visibility
// into every other candidate's relevance).
func weightedRank(items []MemoryItem, currentYear int, cfg WeightConfig, query string, boosters map[string]float64) []scored {
	n := len(items)
	relevance := make([]float64, n)
	recency := make([]float64, n)
	oldestAge, newestAge := 0.0, 0.0
	ages := make([]float64, n)
	for i, it := range items {
		age := float64(currentYear - it.CreatedYear)
		if age < 0 {
			age = 0
		}
		ages[i] = age
		if i == 0 || age < oldestAge {
			oldestAge = age
		}
		if i == 0 || age > newestAge {
			newestAge = age
		}
		relevance[i] = overlapCoefficient(query, it.Content)
	}
	spread := newestAge - oldestAge
	for i := range items {
		if spread <= 0 {
			recency[i] = 1
		} else {
			recency[i] = 1 - (ages[i]-oldestAge)/spread
		}
	}

	out := make([]scored, n)
	for i, it := range items {
		contextMatch := 0.0
		for tag := range it.Tags {
			if boosters[tag] > 0 {
				contextMatch = 1
				break
			}
		}
		interference := 0.0
		for j, other := range items {
			if j == i || ages[j] >= ages[i] {
				continue // only strictly newer memories interfere
			}
			if relevance[j] > interference {
				interference = relevance[j]
			}
		}
		if interference > cfg.InterferenceCap {
			interference = cfg.InterferenceCap
		}
		decayedImportance := it.DecayedImportance(currentYear, cfg.Lambda)
		s := cfg.Recency*recency[i] +
			cfg.Importance*decayedImportance +
			cfg.ContextMatch*contextMatch +
			cfg.Relevance*relevance[i] -
			cfg.Interference*interference
		out[i] = scored{item: it, score: s}
	}
	return out
}

// overlapCoefficient computes the overlap-coefficient keyword similarity
// between two strings: |A ∩ B| / min(|A|, |B|). An empty query matches
// nothing (relevance 0), which keeps weighted mode well-defined when no
// query string is supplied.
func overlapCoefficient(query, content string) float64 {
	if query == "" {
		return 0
	}
	a := wordSet(query)
	b := wordSet(content)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := 0
	for w := range a {
		if b[w] {
			overlap++
		}
	}
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return float64(overlap) / float64(minLen)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// topN sorts scored candidates descending by score, breaking ties by the
// earlier creation sequence (stable retrieval ), and returns
// at most n of them.
func topN(candidates []scored, n int) []MemoryItem {
	sorted := make([]scored, len(candidates))
	copy(sorted, candidates)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0; j-- {
			if better(sorted[j], sorted[j-1]) {
				sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			} else {
				break
			}
		}
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	if n < 0 {
		n = 0
	}
	out := make([]MemoryItem, n)
	for i := 0; i < n; i++ {
		out[i] = sorted[i].item
	}
	return out
}

// better reports whether a should sort before b: higher score first,
// then lower (earlier) creation sequence.
func better(a, b scored) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.item.seq < b.item.seq
}
