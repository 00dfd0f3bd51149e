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

// Package audit contains the configurable audit trail of the backoffice. Feature modules register rules
// that select requests by path and method; for every successful matching request the rule's extractor
// decides what is recorded, and the recorded events are served back through paginated queries and statistics.
package audit

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// Details is the structured payload produced by a DetailExtractor
type Details map[string]interface{}

// Principal holds the claims of the authenticated caller
type Principal struct {
	ID    string
	Email string
	Name  string
}

// RequestContext is the read-only view of a completed request handed to extractors and the recorder
type RequestContext struct {
	// Method is the upper-cased HTTP method
	Method string
	// Path is the request path without query string
	Path string
	// Params contains the path parameters of the matched route
	Params map[string]string
	// Query contains the parsed query string
	Query url.Values
	// Body is the parsed JSON request body
	Body gjson.Result
	// Principal is nil for anonymous requests
	Principal *Principal

	CorrelationID string
	UserAgent     string
	IPAddress     string
	DeviceInfo    string
}

// Param returns the path parameter with the given name or an empty string
func (r *RequestContext) Param(name string) string {
	if r.Params == nil {
		return ""
	}
	return r.Params[name]
}

func (r *RequestContext) clone() *RequestContext {
	c := *r
	if r.Params != nil {
		c.Params = make(map[string]string, len(r.Params))
		for k, v := range r.Params {
			c.Params[k] = v
		}
	}
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	if r.Principal != nil {
		p := *r.Principal
		c.Principal = &p
	}
	return &c
}

// DetailExtractor decides whether a matched request is recorded and what is recorded about it.
// Returning nil or empty Details suppresses the event. Returned errors and panics also suppress the event.
type DetailExtractor func(response gjson.Result, req *RequestContext) (Details, error)

// Event is a recorded audit event. Events are immutable once stored.
type Event struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId,omitempty"`
	EventType     string          `json:"eventType"`
	Action        string          `json:"action,omitempty"`
	ResourceType  string          `json:"resourceType,omitempty"`
	ResourceID    string          `json:"resourceId,omitempty"`
	Details       json.RawMessage `json:"details"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlationId"`
	UserAgent     string          `json:"userAgent,omitempty"`
	IPAddress     string          `json:"ipAddress,omitempty"`
	DeviceInfo    string          `json:"deviceInfo,omitempty"`
}

// Filter selects events. Zero values do not restrict the result.
type Filter struct {
	UserID    string
	EventType string
	// From is the inclusive lower bound of the event timestamp
	From *time.Time
	// To is the inclusive upper bound of the event timestamp
	To *time.Time
}

// Matches reports whether the event satisfies the filter
func (f Filter) Matches(event *Event) bool {
	if f.UserID != "" && event.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && event.EventType != f.EventType {
		return false
	}
	if f.From != nil && event.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && event.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Page is a window over a query result
type Page struct {
	Offset int
	Limit  int
}

// Pagination describes the page returned by ListEvents
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResult is a page of events together with its pagination info
type PaginatedResult struct {
	Data       []*Event   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DocumentStats aggregates the events of one event type.
// AvgViewDuration is nil when no event of the type carries a numeric viewDuration.
type DocumentStats struct {
	EventType       string   `json:"eventType"`
	Count           int      `json:"count"`
	UniqueUsers     int      `json:"uniqueUsers"`
	AvgViewDuration *float64 `json:"avgViewDuration,omitempty"`
}

// Store persists events and queries them back
type Store interface {
	// Insert stores a new event
	Insert(ctx context.Context, event *Event) error
	// Query returns the page of events matching the filter, newest first, and the total count of matching events
	Query(ctx context.Context, filter Filter, page Page) ([]*Event, int, error)
}

// StatsStore is implemented by stores that can compute DocumentStats themselves
type StatsStore interface {
	// Stats computes statistics for the given event type, or for every event type when it is empty
	Stats(ctx context.Context, eventType string) ([]DocumentStats, error)
}

// Sink receives every event after it was persisted
type Sink interface {
	Publish(ctx context.Context, event *Event)
}
