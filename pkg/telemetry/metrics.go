// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instrumentation for a running broker
// process. A nil *Metrics is valid and every method on it is a no-op,
// so instrumentation can be threaded through call sites unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	decisions      *prometheus.CounterVec
	decisionDur    *prometheus.HistogramVec
	retries        *prometheus.HistogramVec
	validatorFails *prometheus.CounterVec
	memoryOps      *prometheus.CounterVec
	reflectionRuns *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics builds a fresh registry and registers the broker's series.
// Passing enabled=false returns nil, and every recording method on a nil
// *Metrics is safe to call.
func NewMetrics(enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillbroker",
			Subsystem: "decision",
			Name:      "total",
			Help:      "Total number of skill broker decisions by outcome",
		},
		[]string{"agent_type", "outcome"},
	)

	m.decisionDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillbroker",
			Subsystem: "decision",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of a single agent-step decision",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to 100s
		},
		[]string{"agent_type"},
	)

	m.retries = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillbroker",
			Subsystem: "decision",
			Name:      "retries",
			Help:      "Number of coherence retries consumed before a decision was reached",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		},
		[]string{"agent_type"},
	)

	m.validatorFails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillbroker",
			Subsystem: "validator",
			Name:      "reports_total",
			Help:      "Total number of intervention reports emitted by rule id and severity",
		},
		[]string{"rule_id", "severity"},
	)

	m.memoryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillbroker",
			Subsystem: "memory",
			Name:      "operations_total",
			Help:      "Total number of memory store operations by kind",
		},
		[]string{"op"},
	)

	m.reflectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillbroker",
			Subsystem: "reflection",
			Name:      "runs_total",
			Help:      "Total number of reflection batch runs",
		},
		[]string{"status"},
	)

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skillbroker",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served by the status server",
		},
		[]string{"path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "skillbroker",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	m.registry.MustRegister(m.decisions, m.decisionDur, m.retries, m.validatorFails, m.memoryOps,
		m.reflectionRuns, m.httpRequests, m.httpDuration)
	return m
}

// RecordHTTPRequest records one served HTTP request on the status server.
func (m *Metrics) RecordHTTPRequest(path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// RecordDecision records a completed agent-step decision.
func (m *Metrics) RecordDecision(agentType, outcome string, retries int, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(agentType, outcome).Inc()
	m.decisionDur.WithLabelValues(agentType).Observe(duration.Seconds())
	m.retries.WithLabelValues(agentType).Observe(float64(retries))
}

// RecordValidatorReport records one intervention report surfaced by the
// validator council, keyed by rule id and severity.
func (m *Metrics) RecordValidatorReport(ruleID, severity string) {
	if m == nil {
		return
	}
	m.validatorFails.WithLabelValues(ruleID, severity).Inc()
}

// RecordMemoryOp records a memory store operation ("add", "retrieve",
// "consolidate", "evict").
func (m *Metrics) RecordMemoryOp(op string) {
	if m == nil {
		return
	}
	m.memoryOps.WithLabelValues(op).Inc()
}

// RecordReflectionRun records a completed reflection batch, status being
// "ok" or "failed".
func (m *Metrics) RecordReflectionRun(status string) {
	if m == nil {
		return
	}
	m.reflectionRuns.WithLabelValues(status).Inc()
}

// Handler returns the HTTP handler serving this registry's metrics, or a
// 503 handler if metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics not enabled"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying Prometheus registry, or nil if metrics
// are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
