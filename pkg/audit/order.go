package audit

import "sort"

// SortReports orders a decision's reports deterministically for audit
// output: rule id ascending, ties broken by first-seen (slice) order —
// the Open Question decision on warning ordering.
func SortReports(reports []ReportRecord) []ReportRecord {
	sorted := make([]ReportRecord, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RuleID < sorted[j].RuleID
	})
	return sorted
}
