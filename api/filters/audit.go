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

package filters

import (
	"context"
	"net/http"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/web"
)

// AuditFilterName is the name of the audit filter
const AuditFilterName = "AuditFilter"

// Observer receives completed requests. It is implemented by *audit.Auditor.
type Observer interface {
	Observe(ctx context.Context, req *audit.RequestContext, response []byte) int
}

// Audit hands every successfully completed request to the auditor. Auditing happens
// after the response was produced and never changes it.
type Audit struct {
	observer Observer
}

// NewAudit creates an audit filter
func NewAudit(observer Observer) *Audit {
	return &Audit{observer: observer}
}

// Name implements the web.Filter interface
func (*Audit) Name() string {
	return AuditFilterName
}

// Run implements the web.Filter interface
func (a *Audit) Run(req *web.Request, next web.Handler) (*web.Response, error) {
	resp, err := next.Handle(req)
	if err != nil || resp == nil || resp.StatusCode >= http.StatusBadRequest {
		return resp, err
	}
	a.observer.Observe(req.Context(), audit.NewRequestContext(req), resp.Body)
	return resp, nil
}

// FilterMatchers implements the web.Filter interface
func (*Audit) FilterMatchers() []web.FilterMatcher {
	return []web.FilterMatcher{
		{
			Matchers: []web.Matcher{
				web.Path("/**"),
			},
		},
	}
}
