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
	"context"
	"errors"
	"math"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/tidwall/gjson"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extract", func() {
	var (
		ctx  context.Context
		hook *test.Hook
		req  *audit.RequestContext
	)

	rule := func(extractor audit.DetailExtractor) *audit.Rule {
		registry := audit.NewRegistry()
		registry.MustRegister(&audit.Rule{
			PathMatcher:     "^/profile/me$",
			Methods:         []string{"PATCH"},
			EventType:       "Update my profile",
			DetailExtractor: extractor,
		})
		return registry.Rules()[0]
	}

	expectSingleWarning := func() {
		warnings := entriesAt(hook, logrus.WarnLevel)
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].Data).To(HaveKeyWithValue("event_type", "Update my profile"))
		Expect(warnings[0].Data).To(HaveKeyWithValue("path_matcher", "^/profile/me$"))
	}

	BeforeEach(func() {
		ctx, hook = loggingContext()
		req = principalRequest("PATCH", "/profile/me")
	})

	It("serializes the details", func() {
		payload, ok := audit.Extract(ctx, rule(staticDetails(audit.Details{"a": 1})), gjson.Result{}, req)
		Expect(ok).To(BeTrue())
		Expect(payload).To(MatchJSON(`{"a":1}`))
		Expect(hook.AllEntries()).To(BeEmpty())
	})

	It("hands the response and request to the extractor", func() {
		var seen string
		extractor := func(response gjson.Result, r *audit.RequestContext) (audit.Details, error) {
			seen = response.Get("id").String() + " " + r.Path
			return audit.Details{"ok": true}, nil
		}
		_, ok := audit.Extract(ctx, rule(extractor), gjson.Parse(`{"id":"42"}`), req)
		Expect(ok).To(BeTrue())
		Expect(seen).To(Equal("42 /profile/me"))
	})

	It("suppresses nil details without logging", func() {
		payload, ok := audit.Extract(ctx, rule(staticDetails(nil)), gjson.Result{}, req)
		Expect(ok).To(BeFalse())
		Expect(payload).To(BeNil())
		Expect(entriesAt(hook, logrus.WarnLevel)).To(BeEmpty())
	})

	It("suppresses empty details", func() {
		_, ok := audit.Extract(ctx, rule(staticDetails(audit.Details{})), gjson.Result{}, req)
		Expect(ok).To(BeFalse())
	})

	It("suppresses and warns once when the extractor fails", func() {
		failing := func(gjson.Result, *audit.RequestContext) (audit.Details, error) {
			return audit.Details{"partial": true}, errors.New("boom")
		}
		payload, ok := audit.Extract(ctx, rule(failing), gjson.Result{}, req)
		Expect(ok).To(BeFalse())
		Expect(payload).To(BeNil())
		expectSingleWarning()
	})

	It("suppresses and warns once when the extractor panics", func() {
		panicking := func(gjson.Result, *audit.RequestContext) (audit.Details, error) {
			panic("unexpected")
		}
		_, ok := audit.Extract(ctx, rule(panicking), gjson.Result{}, req)
		Expect(ok).To(BeFalse())
		expectSingleWarning()
	})

	It("suppresses and warns once when the details cannot be serialized", func() {
		_, ok := audit.Extract(ctx, rule(staticDetails(audit.Details{"n": math.Inf(1)})), gjson.Result{}, req)
		Expect(ok).To(BeFalse())
		expectSingleWarning()
	})

	It("does not let extractors change the request", func() {
		req.Params["id"] = "1"
		mutating := func(_ gjson.Result, r *audit.RequestContext) (audit.Details, error) {
			r.Params["id"] = "2"
			r.Principal.ID = "someone else"
			return nil, nil
		}
		audit.Extract(ctx, rule(mutating), gjson.Result{}, req)
		Expect(req.Params["id"]).To(Equal("1"))
		Expect(req.Principal.ID).To(Equal(validUserID))
	})
})
