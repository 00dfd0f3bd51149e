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
	"time"
	"unicode/utf8"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/gofrs/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const truncatedSuffix = "...TRUNCATED"

// Recorder turns extracted details into events and persists them
type Recorder struct {
	store    Store
	settings *Settings
	metrics  *Metrics
	sinks    []Sink

	now   func() time.Time
	newID func() (string, error)
}

// NewRecorder creates a recorder persisting to the store. Sinks receive every persisted event.
func NewRecorder(store Store, settings *Settings, metrics *Metrics, sinks ...Sink) *Recorder {
	return &Recorder{
		store:    store,
		settings: settings,
		metrics:  metrics,
		sinks:    sinks,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: newUUID,
	}
}

// Record assembles the event of a matched rule and persists it. Persistence failures are logged
// and swallowed, in which case nil is returned.
func (r *Recorder) Record(ctx context.Context, rule *Rule, details json.RawMessage, req *RequestContext) *Event {
	logger := log.C(ctx).WithField("event_type", rule.EventType)

	id, err := r.newID()
	if err != nil {
		logger.WithError(err).Error("Could not generate audit event id, event dropped")
		r.metrics.observe(OutcomePersistenceFailed)
		return nil
	}
	details = r.redact(ctx, details)
	parsed := gjson.ParseBytes(details)

	event := &Event{
		ID:            id,
		UserID:        userID(parsed, req),
		EventType:     rule.EventType,
		Action:        rule.Action,
		ResourceType:  rule.ResourceType,
		ResourceID:    parsed.Get("resourceId").String(),
		Details:       details,
		Timestamp:     r.now(),
		CorrelationID: req.CorrelationID,
		UserAgent:     truncate(req.UserAgent, r.settings.MaxUserAgentLength),
		IPAddress:     req.IPAddress,
		DeviceInfo:    req.DeviceInfo,
	}
	if event.ResourceID == "" {
		event.ResourceID = req.Param("id")
	}
	if event.CorrelationID == "" {
		event.CorrelationID = log.NewCorrelationID()
	}

	storeCtx, cancel := r.storeContext(ctx)
	defer cancel()
	started := time.Now()
	err = r.store.Insert(storeCtx, event)
	r.metrics.observePersist(started)
	if err != nil {
		logger.WithError(err).
			WithField(log.FieldCorrelationID, event.CorrelationID).
			Errorf("Could not persist audit event for %s %s, event dropped", req.Method, req.Path)
		r.metrics.observe(OutcomePersistenceFailed)
		return nil
	}

	r.metrics.observe(OutcomeRecorded)
	for _, sink := range r.sinks {
		sink.Publish(ctx, event)
	}
	return event
}

func (r *Recorder) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.settings.StoreTimeout > 0 {
		return context.WithTimeout(ctx, r.settings.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

func (r *Recorder) redact(ctx context.Context, details json.RawMessage) json.RawMessage {
	for _, field := range r.settings.RedactedFields {
		if !gjson.GetBytes(details, field).Exists() {
			continue
		}
		redacted, err := sjson.DeleteBytes(details, field)
		if err != nil {
			log.C(ctx).WithError(err).Warnf("Could not redact field %s of audit details", field)
			continue
		}
		details = redacted
	}
	return details
}

func userID(details gjson.Result, req *RequestContext) string {
	if id := details.Get("userId"); id.Type == gjson.String {
		return id.Str
	}
	if req.Principal != nil {
		return req.Principal.ID
	}
	return ""
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	for max > 0 && !utf8.RuneStart(value[max]) {
		max--
	}
	return value[:max] + truncatedSuffix
}

func newUUID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
