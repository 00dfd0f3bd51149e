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

package log_test

import (
	"context"
	"net/http/httptest"

	"github.com/bizsuite/backoffice/pkg/log"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("CorrelationIDForRequest", func() {
	It("reuses a correlation id sent by the client", func() {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "req-1")
		Expect(log.CorrelationIDForRequest(req)).To(Equal("req-1"))
	})

	It("prefers the first supported header", func() {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "req-1")
		req.Header.Set("X-Correlation-ID", "corr-1")
		Expect(log.CorrelationIDForRequest(req)).To(Equal("corr-1"))
	})

	It("generates a new id once and stores it on the request", func() {
		req := httptest.NewRequest("GET", "/", nil)
		id := log.CorrelationIDForRequest(req)
		Expect(id).ToNot(BeEmpty())
		Expect(req.Header.Get("X-Correlation-ID")).To(Equal(id))
		Expect(log.CorrelationIDForRequest(req)).To(Equal(id))
	})

	It("round trips through the context", func() {
		ctx := log.ContextWithCorrelationID(context.Background(), "abc")
		Expect(log.CorrelationIDFromContext(ctx)).To(Equal("abc"))
		Expect(log.CorrelationIDFromContext(context.Background())).To(BeEmpty())
	})
})
