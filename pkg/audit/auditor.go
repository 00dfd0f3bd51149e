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
	"context"
	"sync"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/tidwall/gjson"
)

// Auditor runs the audit pipeline of completed requests
type Auditor struct {
	registry *Registry
	recorder *Recorder
	settings *Settings
	group    sync.WaitGroup
}

// NewAuditor creates an auditor resolving rules from the registry and recording through the recorder
func NewAuditor(registry *Registry, recorder *Recorder, settings *Settings) *Auditor {
	return &Auditor{
		registry: registry,
		recorder: recorder,
		settings: settings,
	}
}

// Registry returns the registry the auditor resolves rules from
func (a *Auditor) Registry() *Registry {
	return a.registry
}

// Observe resolves the rules matching the completed request and returns how many matched. Extraction and
// recording of all matches happen in a goroutine that is detached from the cancellation of ctx.
func (a *Auditor) Observe(ctx context.Context, req *RequestContext, response []byte) int {
	if !a.settings.Enabled {
		return 0
	}
	rules := a.registry.FindMatches(req.Path, req.Method)
	if len(rules) == 0 {
		return 0
	}
	if req.CorrelationID == "" {
		req.CorrelationID = log.NewCorrelationID()
	}

	var body gjson.Result
	if gjson.ValidBytes(response) {
		body = gjson.ParseBytes(response)
	}
	util.StartInWaitGroupWithContext(context.WithoutCancel(ctx), func(ctx context.Context) {
		for _, rule := range rules {
			a.process(ctx, rule, body, req)
		}
	}, &a.group)
	return len(rules)
}

func (a *Auditor) process(ctx context.Context, rule *Rule, response gjson.Result, req *RequestContext) {
	details, outcome := extract(ctx, rule, response, req)
	if outcome != OutcomeRecorded {
		a.recorder.metrics.observe(outcome)
		log.C(ctx).Debugf("Audit event %s for %s %s not recorded: %s", rule.EventType, req.Method, req.Path, outcome)
		return
	}
	a.recorder.Record(ctx, rule, details, req)
}

// Wait blocks until every in-flight audit goroutine finished
func (a *Auditor) Wait() {
	a.group.Wait()
}

// Shutdown waits for in-flight audit goroutines for at most the configured shutdown timeout
// and reports whether all of them finished
func (a *Auditor) Shutdown(ctx context.Context) bool {
	if util.WaitWithTimeout(&a.group, a.settings.ShutdownTimeout) {
		return true
	}
	log.C(ctx).Warnf("Audit events still in flight after %s, some events may be lost", a.settings.ShutdownTimeout)
	return false
}
