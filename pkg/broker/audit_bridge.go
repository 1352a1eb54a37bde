package broker

import (
	"github.com/skillbroker/skillbroker/pkg/audit"
	"github.com/skillbroker/skillbroker/pkg/validate"
)

// buildAuditRecord translates one decision's in-memory state into the
// audit package's wire form.
func buildAuditRecord(agent AgentProfile, year int, approved ApprovedSkill, exec ExecutionResult, results []validate.ValidationResult, attempts []attemptRecord) audit.DecisionRecord {
	rec := audit.DecisionRecord{
		Year:          year,
		AgentID:       agent.ID,
		AgentType:     agent.AgentType,
		ApprovedSkill: approved.SkillName,
		RetryCount:    approved.RetryCount,
		Outcome:       string(approved.Outcome),
		ExecutionOK:   exec.Success,
	}
	if exec.Err != nil {
		rec.ExecutionError = exec.Err.Error()
	}

	for _, a := range attempts {
		attempt := audit.Attempt{RawReply: a.raw}
		if a.outcome != nil {
			attempt.ParseStage = a.outcome.Stage.String()
			attempt.LowFidelity = a.outcome.LowConfidence
		}
		rec.Attempts = append(rec.Attempts, attempt)
	}

	for _, result := range results {
		rec.Reports = append(rec.Reports, toReportRecords(result.Errors)...)
		rec.Reports = append(rec.Reports, toReportRecords(result.Warnings)...)
		rec.Reports = append(rec.Reports, toReportRecords(result.Infos)...)
	}
	rec.Reports = audit.SortReports(rec.Reports)

	return rec
}

func toReportRecords(reports []validate.InterventionReport) []audit.ReportRecord {
	out := make([]audit.ReportRecord, len(reports))
	for i, r := range reports {
		out[i] = audit.ReportRecord{
			RuleID:        r.RuleID,
			BlockedSkill:  r.BlockedSkill,
			Severity:      string(r.Severity),
			Summary:       r.Summary,
			Tier:          string(r.Tier),
			Source:        r.Source,
			Deterministic: r.Deterministic,
		}
	}
	return out
}
