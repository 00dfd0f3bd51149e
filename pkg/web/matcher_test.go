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

package web_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/bizsuite/backoffice/pkg/web"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type fakeFilter struct {
	name     string
	run      web.MiddlewareFunc
	matchers []web.FilterMatcher
}

func (f *fakeFilter) Name() string { return f.name }

func (f *fakeFilter) Run(req *web.Request, next web.Handler) (*web.Response, error) {
	return f.run(req, next)
}

func (f *fakeFilter) FilterMatchers() []web.FilterMatcher { return f.matchers }

func delegating(req *web.Request, next web.Handler) (*web.Response, error) {
	return next.Handle(req)
}

func newFilter(name string, matchers ...web.Matcher) web.Filter {
	filter := &fakeFilter{name: name, run: delegating}
	if len(matchers) > 0 {
		filter.matchers = []web.FilterMatcher{{Matchers: matchers}}
	}
	return filter
}

func names(filters web.Filters) []string {
	result := make([]string, 0, len(filters))
	for _, f := range filters {
		result = append(result, f.Name())
	}
	return result
}

var _ = Describe("Filters", func() {
	Describe("Matching", func() {
		It("panics on empty method matchers", func() {
			filters := web.Filters{newFilter("f", web.Methods())}
			Expect(func() { filters.Matching(web.Endpoint{Method: http.MethodGet, Path: "/a"}) }).To(Panic())
		})

		It("panics on empty path matchers", func() {
			filters := web.Filters{newFilter("f", web.Path())}
			Expect(func() { filters.Matching(web.Endpoint{Method: http.MethodGet, Path: "/a"}) }).To(Panic())
		})

		tests := []struct {
			description string
			endpoint    web.Endpoint
			filters     web.Filters
			result      []string
		}{
			{
				"** matches multiple path segments",
				web.Endpoint{Method: http.MethodGet, Path: "/audit/events"},
				web.Filters{newFilter("f1", web.Path("/audit/**"))},
				[]string{"f1"},
			},
			{
				"* matches a single path segment only",
				web.Endpoint{Method: http.MethodGet, Path: "/workspaces/1/members"},
				web.Filters{newFilter("f1", web.Path("/workspaces/*")), newFilter("f2", web.Path("/workspaces/*/members"))},
				[]string{"f2"},
			},
			{
				"method is matched case insensitively",
				web.Endpoint{Method: http.MethodPatch, Path: "/profile/me"},
				web.Filters{newFilter("f1", web.Methods("patch"), web.Path("/profile/me"))},
				[]string{"f1"},
			},
			{
				"all matchers of a filter matcher must match",
				web.Endpoint{Method: http.MethodGet, Path: "/profile/me"},
				web.Filters{newFilter("f1", web.Methods(http.MethodPatch), web.Path("/profile/me"))},
				[]string{},
			},
			{
				"filters without matchers match everything in registration order",
				web.Endpoint{Method: http.MethodDelete, Path: "/x"},
				web.Filters{newFilter("f1"), newFilter("f2", web.Path("/y")), newFilter("f3")},
				[]string{"f1", "f3"},
			},
		}

		for _, t := range tests {
			t := t
			It(t.description, func() {
				Expect(names(t.filters.Matching(t.endpoint))).To(Equal(t.result))
			})
		}
	})

	Describe("Chain", func() {
		It("runs the filters in order around the handler", func() {
			var calls []string
			recording := func(name string) web.Filter {
				return &fakeFilter{name: name, run: func(req *web.Request, next web.Handler) (*web.Response, error) {
					calls = append(calls, "enter "+name)
					resp, err := next.Handle(req)
					calls = append(calls, "exit "+name)
					return resp, err
				}}
			}
			handler := web.Filters{recording("a"), recording("b")}.Chain(web.HandlerFunc(func(req *web.Request) (*web.Response, error) {
				calls = append(calls, "handler")
				return &web.Response{StatusCode: http.StatusTeapot}, nil
			}))

			resp, err := handler.Handle(&web.Request{Request: httptest.NewRequest(http.MethodGet, "/", nil)})
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusTeapot))
			Expect(calls).To(Equal([]string{"enter a", "enter b", "handler", "exit b", "exit a"}))
		})
	})
})

var _ = Describe("API", func() {
	var api *web.API

	BeforeEach(func() {
		api = &web.API{}
		api.RegisterFilters(newFilter("a"), newFilter("c"))
	})

	It("registers filters before and after a named filter", func() {
		api.RegisterFiltersBefore("c", newFilter("b"))
		api.RegisterFiltersAfter("c", newFilter("d"), newFilter("e"))
		Expect(names(api.Filters)).To(Equal([]string{"a", "b", "c", "d", "e"}))
	})

	It("replaces and removes filters", func() {
		api.ReplaceFilter("a", newFilter("z"))
		api.RemoveFilter("c")
		Expect(names(api.Filters)).To(Equal([]string{"z"}))
	})

	It("panics on duplicate names", func() {
		Expect(func() { api.RegisterFilters(newFilter("a")) }).To(Panic())
	})

	It("panics on names containing a colon", func() {
		Expect(func() { api.RegisterFilters(newFilter("x:y")) }).To(Panic())
	})

	It("panics when the anchor filter is missing", func() {
		Expect(func() { api.RegisterFiltersBefore("missing", newFilter("b")) }).To(Panic())
	})

	It("collects controllers", func() {
		api.RegisterControllers(web.StaticRoutes{{Endpoint: web.Endpoint{Method: http.MethodGet, Path: "/"}}})
		Expect(api.Controllers).To(HaveLen(1))
		Expect(api.Controllers[0].Routes()).To(HaveLen(1))
	})
})
