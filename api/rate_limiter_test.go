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

package api

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/ulule/limiter"
)

var _ = Describe("Rate limiter configuration", func() {
	table.DescribeTable("parses valid configurations",
		func(input string, expected []rateLimiterConfiguration) {
			configurations, err := parseRateLimiterConfiguration(input)
			Expect(err).ToNot(HaveOccurred())
			Expect(configurations).To(Equal(expected))
		},
		table.Entry("empty", "  ", []rateLimiterConfiguration(nil)),
		table.Entry("any path", "5-M", []rateLimiterConfiguration{
			{rate: limiter.Rate{Formatted: "5-M", Period: time.Minute, Limit: 5}, pathPrefix: "/"},
		}),
		table.Entry("path and method", "10000-H,5-M:/workspaces:post", []rateLimiterConfiguration{
			{rate: limiter.Rate{Formatted: "10000-H", Period: time.Hour, Limit: 10000}, pathPrefix: "/"},
			{rate: limiter.Rate{Formatted: "5-M", Period: time.Minute, Limit: 5}, pathPrefix: "/workspaces", method: http.MethodPost},
		}),
	)

	table.DescribeTable("rejects invalid configurations",
		func(input, message string) {
			err := validateRateLimiterConfiguration(input)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(message))
		},
		table.Entry("empty section", "5-M,,6-M", "no content"),
		table.Entry("too many elements", "5-M:/a:GET:x", "too many elements"),
		table.Entry("bad rate", "five-M", "unable to parse rate"),
		table.Entry("empty path", "5-M:", "path should not be empty"),
		table.Entry("relative path", "5-M:audit", "path should start with /"),
		table.Entry("unclean path", "5-M:/audit/", "path is not clean"),
		table.Entry("unknown method", "5-M:/audit:TRACE", "method 'TRACE' is not valid"),
	)

	Describe("initRateLimiters", func() {
		It("creates no limiters when rate limiting is disabled", func() {
			limiters, err := initRateLimiters(context.Background(), &Options{APISettings: DefaultSettings()})
			Expect(err).ToNot(HaveOccurred())
			Expect(limiters).To(BeNil())
		})

		It("creates one in-memory limiter per configured rate", func() {
			settings := DefaultSettings()
			settings.RateLimitingEnabled = true
			limiters, err := initRateLimiters(context.Background(), &Options{APISettings: settings})
			Expect(err).ToNot(HaveOccurred())
			Expect(limiters).To(HaveLen(2))
		})
	})
})

var _ = Describe("Settings", func() {
	var settings *Settings

	BeforeEach(func() {
		settings = DefaultSettings()
		settings.TokenSigningKey = "0123456789abcdef0123456789abcdef"
	})

	It("accepts the defaults with a signing key", func() {
		Expect(settings.Validate()).To(Succeed())
	})

	It("requires a long enough signing key", func() {
		settings.TokenSigningKey = "short"
		Expect(settings.Validate()).To(HaveOccurred())
	})

	It("requires consistent page sizes", func() {
		settings.MaxPageSize = 10
		Expect(settings.Validate()).To(HaveOccurred())
		settings.MaxPageSize, settings.DefaultPageSize = 10, 0
		Expect(settings.Validate()).To(HaveOccurred())
	})

	It("validates the rate limit", func() {
		settings.RateLimit = "lots"
		Expect(settings.Validate()).To(HaveOccurred())
	})
})
