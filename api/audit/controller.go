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

// Package audit contains the reporting endpoints of the audit trail
package audit

import (
	"context"
	"net/http"
	"time"

	auditing "github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/mitchellh/mapstructure"
)

// Reporter serves the audit views
type Reporter interface {
	ListEvents(ctx context.Context, filter auditing.Filter, page, limit int) (*auditing.PaginatedResult, error)
	ComputeDocumentStats(ctx context.Context, eventType string) ([]auditing.DocumentStats, error)
}

type eventsQuery struct {
	UserID    string    `mapstructure:"userId"`
	EventType string    `mapstructure:"eventType"`
	From      time.Time `mapstructure:"from"`
	To        time.Time `mapstructure:"to"`
	Page      int       `mapstructure:"page"`
	Limit     int       `mapstructure:"limit"`
}

func (q eventsQuery) filter() auditing.Filter {
	filter := auditing.Filter{
		UserID:    q.UserID,
		EventType: q.EventType,
	}
	if !q.From.IsZero() {
		from := q.From
		filter.From = &from
	}
	if !q.To.IsZero() {
		to := q.To
		filter.To = &to
	}
	return filter
}

type statsQuery struct {
	EventType string `mapstructure:"eventType"`
}

// Controller serves /audit/events and /audit/stats
type Controller struct {
	reporter        Reporter
	defaultPageSize int
	maxPageSize     int
}

// NewController creates the audit reporting controller. Requested page sizes above maxPageSize are capped.
func NewController(reporter Reporter, defaultPageSize, maxPageSize int) *Controller {
	return &Controller{
		reporter:        reporter,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// Routes returns the audit reporting routes
func (c *Controller) Routes() []web.Route {
	return []web.Route{
		{
			Endpoint: web.Endpoint{
				Method: http.MethodGet,
				Path:   web.AuditEventsURL,
			},
			Handler: c.listEvents,
		},
		{
			Endpoint: web.Endpoint{
				Method: http.MethodGet,
				Path:   web.AuditStatsURL,
			},
			Handler: c.stats,
		},
	}
}

func (c *Controller) listEvents(req *web.Request) (*web.Response, error) {
	query := eventsQuery{Page: 1, Limit: c.defaultPageSize}
	if err := decodeQuery(req, &query); err != nil {
		return nil, err
	}
	if query.Limit > c.maxPageSize {
		query.Limit = c.maxPageSize
	}
	result, err := c.reporter.ListEvents(req.Context(), query.filter(), query.Page, query.Limit)
	if err != nil {
		return nil, err
	}
	return util.NewJSONResponse(http.StatusOK, result)
}

func (c *Controller) stats(req *web.Request) (*web.Response, error) {
	query := statsQuery{}
	if err := decodeQuery(req, &query); err != nil {
		return nil, err
	}
	stats, err := c.reporter.ComputeDocumentStats(req.Context(), query.EventType)
	if err != nil {
		return nil, err
	}
	return util.NewJSONResponse(http.StatusOK, stats)
}

func decodeQuery(req *web.Request, result interface{}) error {
	values := make(map[string]interface{})
	for key, value := range req.URL.Query() {
		if len(value) > 1 {
			return util.NewBadRequestError("query parameter %s must be provided only once", key)
		}
		if value[0] != "" {
			values[key] = value[0]
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           result,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return util.NewBadRequestError("invalid query: %s", err)
	}
	return nil
}
