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
	"errors"
	"strings"

	"github.com/gobwas/glob"
)

var (
	errEmptyPathPattern   = errors.New("empty path pattern not allowed")
	errInvalidPathPattern = errors.New("invalid path pattern")
	errEmptyHTTPMethods   = errors.New("empty http methods not allowed")
)

// Matcher checks whether an Endpoint satisfies a particular condition
type Matcher interface {
	Matches(endpoint Endpoint) (bool, error)
}

// MatcherFunc is an adapter that allows regular functions to act as Matchers
type MatcherFunc func(endpoint Endpoint) (bool, error)

// Matches allows MatcherFunc to act as a Matcher
func (m MatcherFunc) Matches(endpoint Endpoint) (bool, error) {
	return m(endpoint)
}

// Methods matches endpoints with any of the given HTTP methods
func Methods(methods ...string) Matcher {
	return MatcherFunc(func(endpoint Endpoint) (bool, error) {
		if len(methods) == 0 {
			return false, errEmptyHTTPMethods
		}
		for _, method := range methods {
			if strings.EqualFold(method, endpoint.Method) {
				return true, nil
			}
		}
		return false, nil
	})
}

// Path matches endpoints whose path matches any of the given glob patterns. Path segments are separated by '/',
// so * matches a single segment and ** matches any number of segments.
func Path(patterns ...string) Matcher {
	return MatcherFunc(func(endpoint Endpoint) (bool, error) {
		if len(patterns) == 0 {
			return false, errEmptyPathPattern
		}
		for _, pattern := range patterns {
			pat, err := glob.Compile(pattern, '/')
			if err != nil {
				return false, errInvalidPathPattern
			}
			if pat.Match(endpoint.Path) || pat.Match(endpoint.Path+"/") {
				return true, nil
			}
		}
		return false, nil
	})
}
