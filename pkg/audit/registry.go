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
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/bizsuite/backoffice/pkg/util/slice"
)

// ErrInvalidRule is returned when a rule cannot be registered
var ErrInvalidRule = errors.New("invalid audit rule")

var knownMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// Actions derived from the HTTP method when a rule does not name one
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Rule selects the requests that produce audit events
type Rule struct {
	// PathMatcher is a regular expression tested against the request path without query string
	PathMatcher string
	// Methods are the HTTP methods the rule applies to
	Methods []string
	// EventType labels the events produced by the rule
	EventType string
	// Action defaults to an action derived from the first method
	Action string
	// ResourceType is copied into every event of the rule
	ResourceType string
	// DetailExtractor decides per request whether and what is recorded
	DetailExtractor DetailExtractor

	pattern *regexp.Regexp
}

// Matches reports whether the rule applies to the query-stripped path and the upper-cased method.
// Rules that were never registered match nothing.
func (r *Rule) Matches(path, method string) bool {
	if r.pattern == nil {
		return false
	}
	return slice.StringsAnyEquals(r.Methods, method) && r.pattern.MatchString(path)
}

// String identifies the rule in log messages
func (r *Rule) String() string {
	return fmt.Sprintf("%s %v %s", r.EventType, r.Methods, r.PathMatcher)
}

// Registry holds the audit rules in registration order. Rules are only ever added.
type Registry struct {
	mutex sync.RWMutex
	rules []*Rule
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// AddEndpointToAudit registers a rule built from its parts
func (r *Registry) AddEndpointToAudit(pathMatcher string, methods []string, eventType string, extractor DetailExtractor) error {
	return r.Register(&Rule{
		PathMatcher:     pathMatcher,
		Methods:         methods,
		EventType:       eventType,
		DetailExtractor: extractor,
	})
}

// Register validates and adds the rules. Either all rules are added or none is.
func (r *Registry) Register(rules ...*Rule) error {
	compiled := make([]*Rule, 0, len(rules))
	for _, rule := range rules {
		c, err := compile(rule)
		if err != nil {
			return err
		}
		compiled = append(compiled, c)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rules = append(r.rules, compiled...)
	return nil
}

// MustRegister is like Register but panics when a rule is invalid
func (r *Registry) MustRegister(rules ...*Rule) {
	if err := r.Register(rules...); err != nil {
		panic(err)
	}
}

// FindMatches returns every rule that applies to the request in registration order.
// The query string and fragment are stripped from the path, the method is case-insensitive.
func (r *Registry) FindMatches(path, method string) []*Rule {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	method = strings.ToUpper(method)

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	var matches []*Rule
	for _, rule := range r.rules {
		if rule.Matches(path, method) {
			matches = append(matches, rule)
		}
	}
	return matches
}

// Rules returns the registered rules in registration order
func (r *Registry) Rules() []*Rule {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]*Rule(nil), r.rules...)
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.rules)
}

func compile(rule *Rule) (*Rule, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule is nil", ErrInvalidRule)
	}
	if rule.PathMatcher == "" {
		return nil, fmt.Errorf("%w: path matcher is empty", ErrInvalidRule)
	}
	if strings.TrimSpace(rule.EventType) == "" {
		return nil, fmt.Errorf("%w: event type is empty for %s", ErrInvalidRule, rule.PathMatcher)
	}
	if rule.DetailExtractor == nil {
		return nil, fmt.Errorf("%w: detail extractor is missing for %s", ErrInvalidRule, rule.EventType)
	}
	pattern, err := regexp.Compile(rule.PathMatcher)
	if err != nil {
		return nil, fmt.Errorf("%w: path matcher %q of %s: %v", ErrInvalidRule, rule.PathMatcher, rule.EventType, err)
	}
	methods := slice.StringsDistinctUpper(rule.Methods)
	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no methods for %s", ErrInvalidRule, rule.EventType)
	}
	for _, m := range methods {
		if !slice.StringsAnyEquals(knownMethods, m) {
			return nil, fmt.Errorf("%w: unknown method %q for %s", ErrInvalidRule, m, rule.EventType)
		}
	}

	c := *rule
	c.Methods = methods
	c.pattern = pattern
	if c.Action == "" {
		c.Action = actionFor(methods[0])
	}
	return &c, nil
}

func actionFor(method string) string {
	switch method {
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}
