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

package llm

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the guard loop: turn latency,
// retry counts by guard reason, and exhaustion events. A nil *Metrics is
// valid and every Record method is a no-op on it, so instrumentation can
// be threaded through without a feature flag.
type Metrics struct {
	registry *prometheus.Registry

	turns          *prometheus.CounterVec
	turnDuration   *prometheus.HistogramVec
	retries        *prometheus.CounterVec
	retriesPerTurn prometheus.Histogram
	exhausted      prometheus.Counter
}

// NewMetrics creates a registered Metrics collector.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.turns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "turns_total",
		Help:      "Total number of guard-loop turns, labeled by outcome",
	}, []string{"outcome"})

	m.turnDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "turn_duration_seconds",
		Help:      "Wall-clock duration of a full guard-loop turn",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"outcome"})

	m.retries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "guard_retries_total",
		Help:      "Total number of guard-triggered retries, labeled by reason",
	}, []string{"reason"})

	m.retriesPerTurn = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "guard_retries_per_turn",
		Help:      "Number of retries consumed within a single turn",
		Buckets:   prometheus.LinearBuckets(0, 1, 5),
	})

	m.exhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "llm",
		Name:      "retries_exhausted_total",
		Help:      "Total number of turns that exhausted all retries",
	})

	m.registry.MustRegister(m.turns, m.turnDuration, m.retries, m.retriesPerTurn, m.exhausted)
	return m
}

// RecordTurn records a completed guard-loop turn.
func (m *Metrics) RecordTurn(outcome string, duration time.Duration, retries int) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
	m.turnDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.retriesPerTurn.Observe(float64(retries))
}

// RecordRetry records one guard-triggered retry.
func (m *Metrics) RecordRetry(reason string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(reason).Inc()
}

// RecordExhausted records a turn that used up every retry attempt.
func (m *Metrics) RecordExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}

// Handler exposes the metrics registry over HTTP for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
