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

package audit_test

import (
	"github.com/bizsuite/backoffice/pkg/audit"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	var registry *audit.Registry
	noop := staticDetails(nil)

	BeforeEach(func() {
		registry = audit.NewRegistry()
	})

	eventTypes := func(rules []*audit.Rule) []string {
		var types []string
		for _, rule := range rules {
			types = append(types, rule.EventType)
		}
		return types
	}

	Describe("registration", func() {
		table.DescribeTable("rejects invalid rules",
			func(rule *audit.Rule) {
				err := registry.Register(rule)
				Expect(err).To(MatchError(audit.ErrInvalidRule))
				Expect(registry.Len()).To(BeZero())
			},
			table.Entry("nil rule", (*audit.Rule)(nil)),
			table.Entry("empty pattern", &audit.Rule{Methods: []string{"GET"}, EventType: "t", DetailExtractor: noop}),
			table.Entry("malformed pattern", &audit.Rule{PathMatcher: "^/a(", Methods: []string{"GET"}, EventType: "t", DetailExtractor: noop}),
			table.Entry("no methods", &audit.Rule{PathMatcher: "^/a$", EventType: "t", DetailExtractor: noop}),
			table.Entry("blank methods", &audit.Rule{PathMatcher: "^/a$", Methods: []string{" "}, EventType: "t", DetailExtractor: noop}),
			table.Entry("unknown method", &audit.Rule{PathMatcher: "^/a$", Methods: []string{"FETCH"}, EventType: "t", DetailExtractor: noop}),
			table.Entry("empty event type", &audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, DetailExtractor: noop}),
			table.Entry("missing extractor", &audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, EventType: "t"}),
		)

		It("adds nothing when one rule of a batch is invalid", func() {
			err := registry.Register(
				&audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, EventType: "a", DetailExtractor: noop},
				&audit.Rule{PathMatcher: "(", Methods: []string{"GET"}, EventType: "b", DetailExtractor: noop},
			)
			Expect(err).To(HaveOccurred())
			Expect(registry.Len()).To(BeZero())
		})

		It("panics on MustRegister with an invalid rule", func() {
			Expect(func() { registry.MustRegister(&audit.Rule{}) }).To(Panic())
		})

		It("normalizes methods and derives the action", func() {
			Expect(registry.AddEndpointToAudit("^/profile/me$", []string{"patch", "PATCH", "put"}, "Update my profile", noop)).To(Succeed())
			rule := registry.Rules()[0]
			Expect(rule.Methods).To(Equal([]string{"PATCH", "PUT"}))
			Expect(rule.Action).To(Equal(audit.ActionUpdate))
		})

		It("keeps an explicit action", func() {
			registry.MustRegister(&audit.Rule{PathMatcher: "^/a$", Methods: []string{"POST"}, EventType: "a", Action: "invite", DetailExtractor: noop})
			Expect(registry.Rules()[0].Action).To(Equal("invite"))
		})

		It("does not keep a reference to the registered rule", func() {
			rule := &audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, EventType: "a", DetailExtractor: noop}
			registry.MustRegister(rule)
			rule.EventType = "changed"
			rule.Methods[0] = "DELETE"
			Expect(eventTypes(registry.FindMatches("/a", "GET"))).To(Equal([]string{"a"}))
		})
	})

	Describe("Rule.Matches", func() {
		It("matches nothing before the rule is registered", func() {
			rule := &audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, EventType: "a", DetailExtractor: noop}
			Expect(rule.Matches("/a", "GET")).To(BeFalse())
		})

		It("matches after registration", func() {
			registry.MustRegister(&audit.Rule{PathMatcher: "^/a$", Methods: []string{"GET"}, EventType: "a", DetailExtractor: noop})
			Expect(registry.Rules()[0].Matches("/a", "GET")).To(BeTrue())
		})
	})

	Describe("FindMatches", func() {
		BeforeEach(func() {
			Expect(registry.AddEndpointToAudit("^/profile/me$", []string{"PATCH"}, "Update my profile", noop)).To(Succeed())
			Expect(registry.AddEndpointToAudit("^/workspaces/[^/]+$", []string{"PATCH", "DELETE"}, "Change workspace", noop)).To(Succeed())
			Expect(registry.AddEndpointToAudit("^/workspaces/", []string{"DELETE"}, "Any workspace deletion", noop)).To(Succeed())
		})

		table.DescribeTable("resolves rules by path and method",
			func(path, method string, expected []string) {
				Expect(eventTypes(registry.FindMatches(path, method))).To(Equal(expected))
			},
			table.Entry("exact path", "/profile/me", "PATCH", []string{"Update my profile"}),
			table.Entry("query string stripped", "/profile/me?x=1", "PATCH", []string{"Update my profile"}),
			table.Entry("fragment stripped", "/profile/me#top", "PATCH", []string{"Update my profile"}),
			table.Entry("lower-case method", "/profile/me", "patch", []string{"Update my profile"}),
			table.Entry("method not in rule", "/profile/me", "GET", nil),
			table.Entry("path is case-sensitive", "/Profile/me", "PATCH", nil),
			table.Entry("pattern does not match", "/profile/me/avatar", "PATCH", nil),
			table.Entry("all matches in registration order", "/workspaces/42", "DELETE", []string{"Change workspace", "Any workspace deletion"}),
			table.Entry("only the matching method", "/workspaces/42", "PATCH", []string{"Change workspace"}),
		)
	})
})
