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

// Package filters contains the web filters of the backoffice API
package filters

import (
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/web"
)

// LoggingFilterName is the name of the logging filter
const LoggingFilterName = "LoggingFilter"

// Logging is a filter that configures logging per request. Each request gets a logger carrying its
// correlation id, which is echoed back in the response.
type Logging struct{}

// Name implements the web.Filter interface and returns the identifier of the filter.
func (*Logging) Name() string {
	return LoggingFilterName
}

// Run represents the logging middleware function that processes the request and configures the request-scoped logging.
func (*Logging) Run(req *web.Request, next web.Handler) (*web.Response, error) {
	correlationID := log.CorrelationIDForRequest(req.Request)
	entry := log.C(req.Context()).
		WithField(log.FieldComponentName, "api").
		WithField(log.FieldCorrelationID, correlationID)
	ctx := log.ContextWithLogger(req.Context(), entry)
	ctx = log.ContextWithCorrelationID(ctx, correlationID)
	req.Request = req.WithContext(ctx)

	resp, err := next.Handle(req)
	if resp != nil {
		if resp.Header == nil {
			resp.Header = make(map[string][]string)
		}
		resp.Header.Set(log.CorrelationIDHeaders[0], correlationID)
	}
	return resp, err
}

// FilterMatchers implements the web.Filter interface and returns the conditions on which the filter should be executed.
func (*Logging) FilterMatchers() []web.FilterMatcher {
	return []web.FilterMatcher{
		{
			Matchers: []web.Matcher{
				web.Path("/**"),
			},
		},
	}
}
