/*
 * Copyright 2026 The Backoffice Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package audit

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes of a matched rule
const (
	OutcomeRecorded          = "recorded"
	OutcomeSuppressed        = "suppressed"
	OutcomeExtractionFailed  = "extraction_failed"
	OutcomePersistenceFailed = "persistence_failed"
)

// Metrics collects audit pipeline metrics. A nil *Metrics records nothing.
type Metrics struct {
	events  *prometheus.CounterVec
	persist prometheus.Histogram
}

// NewMetrics creates the audit metrics and registers them. Collectors that are already registered are reused.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "backoffice",
		Subsystem: "audit",
		Name:      "events_total",
		Help:      "Number of matched audit rules by outcome.",
	}, []string{"outcome"})
	persist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "backoffice",
		Subsystem: "audit",
		Name:      "persist_duration_seconds",
		Help:      "Time spent persisting audit events.",
		Buckets:   prometheus.DefBuckets,
	})

	var err error
	if events, err = register(registerer, events); err != nil {
		return nil, err
	}
	if persist, err = register(registerer, persist); err != nil {
		return nil, err
	}
	return &Metrics{events: events, persist: persist}, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observePersist(started time.Time) {
	if m == nil {
		return
	}
	m.persist.Observe(time.Since(started).Seconds())
}
