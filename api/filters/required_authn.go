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
	"net/http"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
)

// RequiredAuthenticationFilterName is the name of RequiredAuthenticationFilter
const RequiredAuthenticationFilterName = "RequiredAuthenticationFilter"

// RequiredAuthentication rejects unauthenticated requests to the protected paths
type RequiredAuthentication struct {
	paths []string
}

// NewRequiredAuthentication creates a filter protecting the given path patterns
func NewRequiredAuthentication(paths ...string) *RequiredAuthentication {
	return &RequiredAuthentication{paths: paths}
}

// Name implements the web.Filter interface and returns the identifier of the filter.
func (*RequiredAuthentication) Name() string {
	return RequiredAuthenticationFilterName
}

// Run fails the request with 401 when no user was authenticated
func (*RequiredAuthentication) Run(req *web.Request, next web.Handler) (*web.Response, error) {
	ctx := req.Context()
	if _, ok := web.UserFromContext(ctx); ok {
		return next.Handle(req)
	}

	description := "authentication required"
	if failed, err := web.AuthenticationErrorFromContext(ctx); failed {
		description = err.Error()
	}
	log.C(ctx).Errorf("Request to %s %s is not authenticated: %s", req.Method, req.URL.Path, description)
	return nil, &util.HTTPError{
		ErrorType:   "Unauthorized",
		Description: description,
		StatusCode:  http.StatusUnauthorized,
	}
}

// FilterMatchers implements the web.Filter interface and returns the conditions on which the filter should be executed.
func (r *RequiredAuthentication) FilterMatchers() []web.FilterMatcher {
	return []web.FilterMatcher{
		{
			Matchers: []web.Matcher{
				web.Path(r.paths...),
			},
		},
	}
}
