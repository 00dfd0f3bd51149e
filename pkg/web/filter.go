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

package web

import (
	"fmt"
	"net/http"

	"github.com/bizsuite/backoffice/pkg/log"
)

// Request contains the original http.Request, path parameters and the raw body.
// Request.Request.Body should not be read as it is already consumed into Body.
type Request struct {
	// Request is the original http.Request
	*http.Request

	// PathParams contains the URL path parameters
	PathParams map[string]string

	// Body is the loaded request body (usually JSON)
	Body []byte
}

// Response defines the attributes of the HTTP response that will be sent to the client
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Header contains the response headers
	Header http.Header

	// Body is the response body (usually JSON)
	Body []byte
}

// Named is implemented by objects that are identified by a name
type Named interface {
	// Name returns the string identifier for the object
	Name() string
}

// Handler processes a Request and returns a Response or an error
type Handler interface {
	Handle(req *Request) (resp *Response, err error)
}

// HandlerFunc is an adapter that allows to use regular functions as Handler interface implementations.
type HandlerFunc func(req *Request) (resp *Response, err error)

// Handle allows HandlerFunc to act as a Handler
func (rhf HandlerFunc) Handle(req *Request) (resp *Response, err error) {
	return rhf(req)
}

// Middleware intercepts the request before it reaches the final handler. The implementation of Run
// should invoke next's Handle if the request should be chained to the next Handler.
type Middleware interface {
	Run(req *Request, next Handler) (*Response, error)
}

// MiddlewareFunc is an adapter that allows to use regular functions as Middleware
type MiddlewareFunc func(req *Request, next Handler) (*Response, error)

// Run allows MiddlewareFunc to act as a Middleware
func (mf MiddlewareFunc) Run(req *Request, handler Handler) (*Response, error) {
	return mf(req, handler)
}

// FilterMatcher is a set of Matchers that all need to match for the filter to run on an endpoint
type FilterMatcher struct {
	Matchers []Matcher
}

// Filter is a named Middleware that runs only on the endpoints its FilterMatchers select.
// A filter with no FilterMatchers runs everywhere.
type Filter interface {
	Named
	Middleware

	FilterMatchers() []FilterMatcher
}

// Filters represents a slice of Filter elements
type Filters []Filter

// ChainMatching builds a Handler that chains the filters matching the route around the route handler
func (fs Filters) ChainMatching(route Route) Handler {
	return fs.Matching(route.Endpoint).Chain(route.Handler)
}

// Chain chains the Filters around the specified Handler and logs entering and exiting each filter
func (fs Filters) Chain(h Handler) Handler {
	wrapped := make([]Handler, len(fs)+1)
	wrapped[len(fs)] = h

	for i := len(fs) - 1; i >= 0; i-- {
		filter, next := fs[i], wrapped[i+1]
		wrapped[i] = HandlerFunc(func(r *Request) (*Response, error) {
			fields := map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			}
			logger := log.C(r.Context())
			logger.WithFields(fields).Debug("Entering Filter: ", filter.Name())

			resp, err := filter.Run(r, next)

			fields["err"] = err
			if resp != nil {
				fields["statusCode"] = resp.StatusCode
			}
			logger.WithFields(fields).Debug("Exiting Filter: ", filter.Name())
			return resp, err
		})
	}

	return wrapped[0]
}

// Matching returns the subset of Filters that match the specified endpoint. It panics if a matcher is misconfigured.
func (fs Filters) Matching(endpoint Endpoint) Filters {
	matched := make(Filters, 0, len(fs))
	names := make([]string, 0, len(fs))
	for _, filter := range fs {
		if filterMatches(filter, endpoint) {
			matched = append(matched, filter)
			names = append(names, filter.Name())
		}
	}
	log.D().Debugf("Filters for %s %s: %v", endpoint.Method, endpoint.Path, names)
	return matched
}

func filterMatches(filter Filter, endpoint Endpoint) bool {
	filterMatchers := filter.FilterMatchers()
	if len(filterMatchers) == 0 {
		return true
	}
	for _, filterMatcher := range filterMatchers {
		allMatch := true
		for _, matcher := range filterMatcher.Matchers {
			match, err := matcher.Matches(endpoint)
			if err != nil {
				panic(fmt.Sprintf("error matching filter %s: %s", filter.Name(), err))
			}
			if !match {
				allMatch = false
				break
			}
		}
		if allMatch {
			return true
		}
	}
	return false
}
