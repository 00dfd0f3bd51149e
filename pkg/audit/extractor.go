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
	"encoding/json"
	"fmt"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/tidwall/gjson"
)

// Extract invokes the extractor of the rule and serializes its result. It returns false when the event
// must be suppressed. Extractor errors, panics and payloads that cannot be serialized are logged once as
// a warning and suppress the event.
func Extract(ctx context.Context, rule *Rule, response gjson.Result, req *RequestContext) (json.RawMessage, bool) {
	payload, outcome := extract(ctx, rule, response, req)
	return payload, outcome == OutcomeRecorded
}

func extract(ctx context.Context, rule *Rule, response gjson.Result, req *RequestContext) (json.RawMessage, string) {
	details, err := invoke(rule.DetailExtractor, response, req.clone())
	if err == nil {
		if len(details) == 0 {
			return nil, OutcomeSuppressed
		}
		payload, marshalErr := json.Marshal(details)
		if marshalErr == nil {
			return payload, OutcomeRecorded
		}
		err = fmt.Errorf("details are not serializable: %w", marshalErr)
	}

	log.C(ctx).WithError(err).
		WithField("event_type", rule.EventType).
		WithField("path_matcher", rule.PathMatcher).
		Warnf("Audit detail extraction failed for %s %s, event suppressed", req.Method, req.Path)
	return nil, OutcomeExtractionFailed
}

func invoke(extractor DetailExtractor, response gjson.Result, req *RequestContext) (details Details, err error) {
	defer func() {
		if r := recover(); r != nil {
			details = nil
			err = fmt.Errorf("detail extractor panicked: %v", r)
		}
	}()
	return extractor(response, req)
}
