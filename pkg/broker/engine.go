package broker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"text/template"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/skillbroker/skillbroker/pkg/audit"
	brokercontext "github.com/skillbroker/skillbroker/pkg/context"
	"github.com/skillbroker/skillbroker/pkg/llm"
	"github.com/skillbroker/skillbroker/pkg/proposal"
	"github.com/skillbroker/skillbroker/pkg/skill"
	"github.com/skillbroker/skillbroker/pkg/telemetry"
	"github.com/skillbroker/skillbroker/pkg/validate"
)

// Config controls retry bounds and feedback truncation.
type Config struct {
	MaxRetries         int // default 3
	MaxReportsPerRetry int // default 3
}

// DefaultConfig returns the standard retry bounds.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, MaxReportsPerRetry: 3}
}

// agentHistory tracks the per-agent bookkeeping the Validator Council
// needs across years: skills approved so far (most recent last) and the
// set approved within the current year.
type agentHistory struct {
	mu               sync.Mutex
	recentDecisions  []string
	approvedThisYear map[int]map[string]bool
	validatorState   *validate.ValidatorState
}

func newAgentHistory() *agentHistory {
	return &agentHistory{
		approvedThisYear: make(map[int]map[string]bool),
		validatorState:   validate.NewValidatorState(),
	}
}

func (h *agentHistory) recordApproval(year int, skillName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recentDecisions = append(h.recentDecisions, skillName)
	if h.approvedThisYear[year] == nil {
		h.approvedThisYear[year] = make(map[string]bool)
	}
	h.approvedThisYear[year][skillName] = true
}

func (h *agentHistory) snapshot(year int) ([]string, map[string]bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	recent := append([]string{}, h.recentDecisions...)
	approved := make(map[string]bool, len(h.approvedThisYear[year]))
	for k := range h.approvedThisYear[year] {
		approved[k] = true
	}
	return recent, approved
}

// Engine is the Skill Broker Engine (C7).
type Engine struct {
	Registry *skill.Registry
	Context  *brokercontext.Builder
	Adapter  *proposal.Adapter
	Council  *validate.Council
	MemoryIngest func(agentID, observation string, year int)
	Audit    *audit.Writer
	Invoker  llm.Invoker
	Template *template.Template
	Hooks    LifecycleHooks
	Config   Config
	Logger   *slog.Logger
	Sim      SimulationEngine
	Metrics  *telemetry.Metrics
	Tracer   trace.Tracer

	mu        sync.Mutex
	histories map[string]*agentHistory
}

func (e *Engine) history(agentID string) *agentHistory {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.histories == nil {
		e.histories = make(map[string]*agentHistory)
	}
	h, ok := e.histories[agentID]
	if !ok {
		h = newAgentHistory()
		e.histories[agentID] = h
	}
	return h
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// attemptRecord tracks one LLM round trip for audit purposes.
type attemptRecord struct {
	raw    string
	outcome *proposal.ParseOutcome
}

// tracer returns the configured OpenTelemetry tracer, falling back to the
// no-op implementation so span calls are always safe.
func (e *Engine) tracer() trace.Tracer {
	if e.Tracer != nil {
		return e.Tracer
	}
	return noop.NewTracerProvider().Tracer("skillbroker/broker")
}

// RunStep executes the full per-agent-step algorithm for one agent in one
// simulation year, returning the ExecutionResult so the caller can fold
// it into its own bookkeeping (e.g. apply_delta to a broader world model
// beyond agent.Attributes). The call is wrapped in a span; per-decision
// metrics are recorded in finish, the point every code path converges on.
func (e *Engine) RunStep(agent AgentProfile, year int) ExecutionResult {
	_, span := e.tracer().Start(context.Background(), "broker.run_step",
		trace.WithAttributes(
			attribute.String("agent.id", agent.ID),
			attribute.String("agent.type", agent.AgentType),
			attribute.Int("year", year),
		))
	defer span.End()

	result := e.runStep(agent, year, time.Now())
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
	}
	return result
}

func (e *Engine) runStep(agent AgentProfile, year int, start time.Time) ExecutionResult {
	logger := e.logger()
	hist := e.history(agent.ID)

	env := e.Sim.Environment(agent, year)
	payload := e.Context.Build(brokercontext.BuildInput{
		AgentID:     agent.ID,
		AgentType:   agent.AgentType,
		Year:        year,
		State:       skill.AgentState(agent.Attributes),
		Environment: env,
	})

	originalPrompt, err := e.render(payload)
	if err != nil {
		logger.Error("prompt render failed", "agent", agent.ID, "error", err)
		return e.rejectAndExecute(agent, year, start, nil, nil)
	}

	recent, approvedThisYear := hist.snapshot(year)
	validationCtx, err := validate.NewValidationContext(agent.ID, agent.AgentType, skill.AgentState(agent.Attributes), env, recent, approvedThisYear, hist.validatorState)
	if err != nil {
		logger.Error("validation context configuration error", "agent", agent.ID, "error", err)
		return e.rejectAndExecute(agent, year, start, nil, nil)
	}

	var attempts []attemptRecord
	var lastResult validate.ValidationResult
	var lastProposal *proposal.SkillProposal
	prevBlocking := map[string]bool(nil)

	prompt := originalPrompt
	for attempt := 0; attempt <= e.Config.MaxRetries; attempt++ {
		raw, _, invokeErr := e.Invoker.Invoke(prompt)
		if invokeErr != nil {
			attempts = append(attempts, attemptRecord{raw: raw})
			lastResult = validate.ValidationResult{Valid: false, Errors: []validate.InterventionReport{{
				RuleID: "llm.invoke_error", Severity: validate.SeverityError, Summary: invokeErr.Error(), Tier: validate.TierNone, Deterministic: false,
			}}}
			if attempt == e.Config.MaxRetries {
				break
			}
			prompt = e.retryPrompt(originalPrompt, lastResult.Errors)
			continue
		}

		outcome, parseErr := e.Adapter.Parse(raw, payload.SkillMap)
		attempts = append(attempts, attemptRecord{raw: raw, outcome: outcome})
		if parseErr != nil {
			lastResult = validate.ValidationResult{Valid: false, Errors: []validate.InterventionReport{{
				RuleID: "parse.failure", Severity: validate.SeverityError, Summary: parseErr.Error(), Tier: validate.TierNone, Deterministic: false,
			}}}
			if attempt == e.Config.MaxRetries {
				break
			}
			prompt = e.retryPrompt(originalPrompt, lastResult.Errors)
			continue
		}

		lastProposal = outcome.Proposal
		result := e.Council.RunPipeline(lastProposal, validationCtx)
		lastResult = result

		if result.AllPass() {
			composite := e.Council.RunComposite(lastProposal, validationCtx)
			if composite.Valid {
				return e.approveAndExecute(agent, year, start, hist, lastProposal, attempt, []validate.ValidationResult{result, composite}, attempts)
			}
			lastResult = composite
			current := composite.BlockingRuleIDs()
			allDeterministic := composite.AllBlockingDeterministic()
			if prevBlocking != nil && sameRuleSet(prevBlocking, current) && allDeterministic {
				break // EarlyExit: no third identical deterministic block
			}
			prevBlocking = current
			if attempt == e.Config.MaxRetries {
				break
			}
			prompt = e.retryPrompt(originalPrompt, composite.Errors)
			continue
		}

		current := result.BlockingRuleIDs()
		allDeterministic := result.AllBlockingDeterministic()
		if prevBlocking != nil && sameRuleSet(prevBlocking, current) && allDeterministic {
			break // EarlyExit: no third identical deterministic block
		}
		prevBlocking = current

		if attempt == e.Config.MaxRetries {
			break
		}
		prompt = e.retryPrompt(originalPrompt, result.Errors)
	}

	_ = lastProposal
	return e.rejectAndExecute(agent, year, start, &lastResult, attempts)
}

func sameRuleSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// render executes the configured prompt template against the assembled
// payload, falling back to a minimal plain-text rendering when no
// template is configured.
func (e *Engine) render(payload brokercontext.Payload) (string, error) {
	if e.Template == nil {
		var b strings.Builder
		fmt.Fprintf(&b, "personal: %v\n", payload.Personal)
		fmt.Fprintf(&b, "local: %v\n", payload.Local)
		fmt.Fprintf(&b, "global: %v\n", payload.Global)
		fmt.Fprintf(&b, "memory: %v\n", payload.Memory)
		fmt.Fprintf(&b, "options: %v\n", payload.SkillMap)
		return b.String(), nil
	}
	var buf bytes.Buffer
	if err := e.Template.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("prompt template execution failed: %w", err)
	}
	return buf.String(), nil
}

// retryPrompt formats up to MaxReportsPerRetry blocking reports
// (highest-severity first, then stable pipeline order) and prepends them
// to the original prompt verbatim. No directive language is ever
// emitted — only neutral enumeration for Tier B reports.
func (e *Engine) retryPrompt(originalPrompt string, reports []validate.InterventionReport) string {
	limit := e.Config.MaxReportsPerRetry
	if limit <= 0 {
		limit = 3
	}
	ordered := make([]validate.InterventionReport, len(reports))
	copy(ordered, reports)
	sort.SliceStable(ordered, func(i, j int) bool {
		return severityRank(ordered[i].Severity) > severityRank(ordered[j].Severity)
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	var b strings.Builder
	for _, r := range ordered {
		fmt.Fprintf(&b, "[%s] %s: %s", r.Severity, r.BlockedSkill, r.Summary)
		if r.Tier == validate.TierB && len(r.StillFeasible) > 0 {
			fmt.Fprintf(&b, " (still feasible: %s)", strings.Join(r.StillFeasible, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString(originalPrompt)
	return b.String()
}

func severityRank(s validate.Severity) int {
	switch s {
	case validate.SeverityError:
		return 2
	case validate.SeverityWarning:
		return 1
	default:
		return 0
	}
}

func (e *Engine) approveAndExecute(agent AgentProfile, year int, start time.Time, hist *agentHistory, p *proposal.SkillProposal, retryCount int, results []validate.ValidationResult, attempts []attemptRecord) ExecutionResult {
	approved := ApprovedSkill{
		Proposal:   p,
		SkillName:  skill.Normalize(p.PrimarySkill),
		RetryCount: retryCount,
		Results:    results,
		Outcome:    OutcomeApproved,
	}
	hist.recordApproval(year, approved.SkillName)
	return e.finish(agent, year, start, approved, results, attempts)
}

// rejectAndExecute invokes the domain-declared fallback skill, which is
// exempt from construct-conditioned thinking rules, guaranteeing exactly
// one executed action even when every retry was exhausted.
func (e *Engine) rejectAndExecute(agent AgentProfile, year int, start time.Time, lastResult *validate.ValidationResult, attempts []attemptRecord) ExecutionResult {
	fallback, err := e.Registry.FallbackSkill(agent.AgentType)
	if err != nil {
		e.logger().Error("no fallback skill configured; this is a fatal configuration error", "agent_type", agent.AgentType, "error", err)
		return ExecutionResult{Success: false, Err: err}
	}
	var results []validate.ValidationResult
	if lastResult != nil {
		results = []validate.ValidationResult{*lastResult}
	}
	approved := ApprovedSkill{
		SkillName:  fallback.Name,
		RetryCount: e.Config.MaxRetries,
		Results:    results,
		Outcome:    OutcomeRejected,
	}
	return e.finish(agent, year, start, approved, results, attempts)
}

func (e *Engine) finish(agent AgentProfile, year int, start time.Time, approved ApprovedSkill, results []validate.ValidationResult, attempts []attemptRecord) ExecutionResult {
	execResult := e.Sim.Execute(agent, approved)
	applyDelta(agent, execResult)

	if e.Hooks.PostStep != nil {
		e.Hooks.PostStep(agent, execResult)
	}

	if e.MemoryIngest != nil {
		e.MemoryIngest(agent.ID, consolidatedObservation(approved, execResult), year)
	}

	if e.Audit != nil {
		_ = e.Audit.Record(buildAuditRecord(agent, year, approved, execResult, results, attempts))
	}

	e.Metrics.RecordDecision(agent.AgentType, strings.ToLower(string(approved.Outcome)), approved.RetryCount, time.Since(start))
	for _, r := range results {
		all := append(append([]validate.InterventionReport{}, r.Errors...), r.Warnings...)
		all = append(all, r.Infos...)
		for _, report := range all {
			e.Metrics.RecordValidatorReport(report.RuleID, string(report.Severity))
		}
	}

	return execResult
}

// applyDelta folds a successful execution's state changes into the
// agent's own attribute map. RunStep takes AgentProfile by value, but
// Attributes is a map — its header is copied, not its backing storage —
// so mutating it here is visible to the caller's own copy of the agent.
// A failed execution carries no state changes per ExecutionResult's
// invariant, so there is nothing to apply.
func applyDelta(agent AgentProfile, result ExecutionResult) {
	if !result.Success || agent.Attributes == nil || len(result.StateChanges) == 0 {
		return
	}
	for k, v := range result.StateChanges {
		agent.Attributes[k] = v
	}
}

func consolidatedObservation(approved ApprovedSkill, result ExecutionResult) string {
	if result.Success {
		return fmt.Sprintf("executed %s", approved.SkillName)
	}
	return fmt.Sprintf("attempted %s (failed)", approved.SkillName)
}
