// Package proposal implements the Model Adapter (C2): multi-layer
// defensive parsing of free-form LLM text into a typed SkillProposal.
package proposal

import "github.com/skillbroker/skillbroker/pkg/skill"

// ReasoningPayload is the free-schema construct-label map an LLM attaches
// to a proposal. Values are drawn from the ordinal scale; the payload is
// deliberately a string-keyed map rather than a fixed struct because the
// appraisal schema is domain-declared and may grow non-breakingly.
type ReasoningPayload map[string]skill.OrdinalValue

// Get returns the ordinal value for key, and whether it was present and
// valid.
func (p ReasoningPayload) Get(key string) (skill.OrdinalValue, bool) {
	v, ok := p[key]
	if !ok || !v.Valid() {
		return "", false
	}
	return v, true
}

// SkillProposal is the unvalidated, LLM-authored candidate action.
type SkillProposal struct {
	PrimarySkill   string
	SecondarySkill string // optional; "" means none
	Reasoning      ReasoningPayload
	Magnitude      *float64 // optional
	Rationale      string   // free-text, never parsed for control flow
}

// Validate enforces the two structural invariants :
// primary must be non-empty, and if secondary is present it must differ
// from primary.
func (p *SkillProposal) Validate() error {
	if p.PrimarySkill == "" {
		return &ParseError{Reason: "primary skill is empty"}
	}
	if p.SecondarySkill != "" && skill.Normalize(p.SecondarySkill) == skill.Normalize(p.PrimarySkill) {
		return &ParseError{Reason: "secondary skill must differ from primary"}
	}
	return nil
}

// ParseStage names which defensive-parsing layer produced a result.
type ParseStage int

const (
	StageDelimiter ParseStage = iota + 1
	StageJSONRepair
	StageKeyNormalization
	StageNumericMapping
	StageKeywordRegex
	StageDigitExtraction
)

func (s ParseStage) String() string {
	switch s {
	case StageDelimiter:
		return "delimiter_extraction"
	case StageJSONRepair:
		return "json_repair"
	case StageKeyNormalization:
		return "key_normalization"
	case StageNumericMapping:
		return "numeric_mapping"
	case StageKeywordRegex:
		return "keyword_regex"
	case StageDigitExtraction:
		return "digit_extraction"
	default:
		return "unknown"
	}
}

// LowFidelity reports whether this stage is stage 5 or 6 — the stages
// that raise a parse-confidence flag for downstream audit.
func (s ParseStage) LowFidelity() bool {
	return s == StageKeywordRegex || s == StageDigitExtraction
}

// ParseOutcome records which stage(s) contributed to a successful parse
// and the resulting proposal. StagesUsed may contain more than one entry
// (e.g. JSON repair followed by numeric→name mapping); Stage is the last
// (highest-numbered) stage exercised, for simple display/audit.
type ParseOutcome struct {
	Proposal      *SkillProposal
	Stage         ParseStage
	StagesUsed    []ParseStage
	LowConfidence bool
	RawText       string
}

// ParseError signals that no defensive-parsing stage could recover a
// proposal from the raw text. The broker treats this identically to a
// validation ERROR for retry accounting.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "failed to parse skill proposal: " + e.Reason
}
