package proposal

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/skillbroker/skillbroker/pkg/skill"
)

// DelimiterConfig names the per-domain markers the Model Adapter looks
// for before attempting to parse anything. When both are empty, stage 1
// is a no-op pass-through (the whole reply is considered).
type DelimiterConfig struct {
	Start string
	End   string
}

// DefaultDelimiters is the default decision-block delimiter pair.
var DefaultDelimiters = DelimiterConfig{Start: "<<<DECISION_START>>>", End: "<<<DECISION_END>>>"}

// defaultSynonyms maps each canonical field name to the synonym keys a
// domain's response format may use instead, e.g. "decision" ≡ "choice" ≡
// "action".
var defaultSynonyms = map[string][]string{
	"decision":           {"decision", "choice", "action"},
	"secondary_decision": {"secondary_decision", "secondary_choice", "secondary_action", "secondary"},
	"reasoning":          {"reasoning", "appraisal", "constructs"},
	"magnitude":          {"magnitude", "amount", "quantity"},
	"rationale":          {"rationale", "explanation", "justification"},
}

// Adapter parses raw LLM text into a SkillProposal using a six-layer
// defensive pipeline, attempted in order until one succeeds.
type Adapter struct {
	Delimiters DelimiterConfig
	Synonyms   map[string][]string
}

// NewAdapter constructs an Adapter with the default delimiters and
// synonym map. Callers override either field per domain.
func NewAdapter() *Adapter {
	return &Adapter{Delimiters: DefaultDelimiters, Synonyms: defaultSynonyms}
}

// Parse attempts, in order, delimiter extraction, JSON repair, key
// normalization, numeric→name mapping, keyword regex fallback, and
// last-resort digit extraction. dynamicSkillMap is the caller-supplied
// {"1": "skill_a", ...} produced by the Context Builder for the options
// currently on offer.
func (a *Adapter) Parse(raw string, dynamicSkillMap map[string]string) (*ParseOutcome, error) {
	text, delimited := a.extractDelimited(raw)

	if fields, stagesUsed, ok := a.parseStructured(text); ok {
		prop, err := a.buildProposal(fields, dynamicSkillMap, &stagesUsed)
		if err == nil {
			if delimited {
				stagesUsed = prepend(stagesUsed, StageDelimiter)
			}
			return a.outcome(prop, stagesUsed, raw)
		}
	}

	// Stages 5/6: the reply was not recoverable JSON at all (or produced
	// no resolvable primary skill); fall back to scanning the raw text.
	if prop, ok := a.keywordRegexFallback(raw, dynamicSkillMap); ok {
		return a.outcome(prop, []ParseStage{StageKeywordRegex}, raw)
	}
	if prop, ok := a.digitExtractionFallback(raw, dynamicSkillMap); ok {
		return a.outcome(prop, []ParseStage{StageDigitExtraction}, raw)
	}

	return nil, &ParseError{Reason: "all parsing stages exhausted"}
}

func (a *Adapter) outcome(prop *SkillProposal, stagesUsed []ParseStage, raw string) (*ParseOutcome, error) {
	if err := prop.Validate(); err != nil {
		return nil, err
	}
	stage := StageDelimiter
	if len(stagesUsed) > 0 {
		stage = stagesUsed[len(stagesUsed)-1]
	}
	low := false
	for _, s := range stagesUsed {
		if s.LowFidelity() {
			low = true
		}
	}
	return &ParseOutcome{
		Proposal:      prop,
		Stage:         stage,
		StagesUsed:    stagesUsed,
		LowConfidence: low,
		RawText:       raw,
	}, nil
}

func prepend(stages []ParseStage, s ParseStage) []ParseStage {
	return append([]ParseStage{s}, stages...)
}

// extractDelimited locates the configured delimiter pair and, if found,
// returns the text strictly between them along with true. Text outside
// the delimiters is ignored, stage 1.
func (a *Adapter) extractDelimited(raw string) (string, bool) {
	if a.Delimiters.Start == "" || a.Delimiters.End == "" {
		return raw, false
	}
	startIdx := strings.Index(raw, a.Delimiters.Start)
	if startIdx < 0 {
		return raw, false
	}
	rest := raw[startIdx+len(a.Delimiters.Start):]
	endIdx := strings.Index(rest, a.Delimiters.End)
	if endIdx < 0 {
		return raw, false
	}
	return strings.TrimSpace(rest[:endIdx]), true
}

// parseStructured attempts a strict JSON parse, falling back to the
// deterministic repair pass on failure. Returns the decoded field map and
// which corrective stages (if any) were required.
func (a *Adapter) parseStructured(text string) (map[string]any, []ParseStage, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err == nil {
		return fields, nil, true
	}

	repaired := repairJSON(text)
	if err := json.Unmarshal([]byte(repaired), &fields); err == nil {
		return fields, []ParseStage{StageJSONRepair}, true
	}
	return nil, nil, false
}

// buildProposal normalizes keys against the synonym map, resolves a
// numeric decision via dynamicSkillMap, and assembles a SkillProposal.
func (a *Adapter) buildProposal(fields map[string]any, dynamicSkillMap map[string]string, stagesUsed *[]ParseStage) (*SkillProposal, error) {
	synonyms := a.Synonyms
	if synonyms == nil {
		synonyms = defaultSynonyms
	}

	lookup := func(canonical string) (any, bool) {
		for _, key := range synonyms[canonical] {
			if v, ok := fields[key]; ok {
				return v, true
			}
		}
		return nil, false
	}

	prop := &SkillProposal{Reasoning: ReasoningPayload{}}

	if v, ok := lookup("decision"); ok {
		name, usedNumeric := resolveDecisionValue(v, dynamicSkillMap)
		prop.PrimarySkill = name
		if usedNumeric {
			*stagesUsed = append(*stagesUsed, StageNumericMapping)
		}
	}
	if v, ok := lookup("secondary_decision"); ok {
		name, usedNumeric := resolveDecisionValue(v, dynamicSkillMap)
		prop.SecondarySkill = name
		if usedNumeric {
			*stagesUsed = append(*stagesUsed, StageNumericMapping)
		}
	}
	if v, ok := lookup("reasoning"); ok {
		if m, ok := v.(map[string]any); ok {
			for k, raw := range m {
				if s, ok := raw.(string); ok {
					ov := skill.OrdinalValue(strings.ToUpper(strings.TrimSpace(s)))
					if ov.Valid() {
						prop.Reasoning[k] = ov
					}
				}
			}
		}
	}
	if v, ok := lookup("magnitude"); ok {
		if f, ok := toFloat(v); ok {
			prop.Magnitude = &f
		}
	}
	if v, ok := lookup("rationale"); ok {
		if s, ok := v.(string); ok {
			prop.Rationale = s
		}
	}

	if prop.PrimarySkill == "" {
		return nil, &ParseError{Reason: "no decision field resolved to a skill"}
	}
	return prop, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// resolveDecisionValue handles both literal skill names and integer ids
// from the dynamic skill map. Returns the resolved
// name and whether numeric mapping was used.
func resolveDecisionValue(v any, dynamicSkillMap map[string]string) (string, bool) {
	switch val := v.(type) {
	case string:
		if name, ok := dynamicSkillMap[val]; ok {
			return name, true
		}
		return val, false
	case float64:
		key := strconv.Itoa(int(val))
		if name, ok := dynamicSkillMap[key]; ok {
			return name, true
		}
		return "", false
	default:
		return "", false
	}
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)

// keywordRegexFallback (stage 5) scans the raw reply for any bare skill
// name from the currently-offered option set.
func (a *Adapter) keywordRegexFallback(raw string, dynamicSkillMap map[string]string) (*SkillProposal, bool) {
	words := wordPattern.FindAllString(strings.ToLower(raw), -1)
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[w] = true
	}
	for _, name := range dynamicSkillMap {
		if wordSet[skill.Normalize(name)] {
			return &SkillProposal{PrimarySkill: name, Reasoning: ReasoningPayload{}}, true
		}
	}
	return nil, false
}

var digitPattern = regexp.MustCompile(`\d+`)

// digitExtractionFallback (stage 6) pulls the first standalone digit run
// matching a valid option id out of the raw reply.
func (a *Adapter) digitExtractionFallback(raw string, dynamicSkillMap map[string]string) (*SkillProposal, bool) {
	for _, digits := range digitPattern.FindAllString(raw, -1) {
		if name, ok := dynamicSkillMap[digits]; ok {
			return &SkillProposal{PrimarySkill: name, Reasoning: ReasoningPayload{}}, true
		}
	}
	return nil, false
}
