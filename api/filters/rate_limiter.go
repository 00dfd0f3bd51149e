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
	"fmt"
	"net/http"
	"strings"

	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/ulule/limiter"
)

// RateLimiterFilterName is the name of the rate limiter filter
const RateLimiterFilterName = "RateLimiterFilter"

// RateLimiterMiddleware is a limiter applied to requests whose path starts with pathPrefix
// and, when method is set, use that method
type RateLimiterMiddleware struct {
	limiter    *limiter.Limiter
	pathPrefix string
	method     string
}

// NewRateLimiterMiddleware creates a RateLimiterMiddleware
func NewRateLimiterMiddleware(limiter *limiter.Limiter, pathPrefix, method string) RateLimiterMiddleware {
	return RateLimiterMiddleware{
		limiter:    limiter,
		pathPrefix: pathPrefix,
		method:     method,
	}
}

func (m RateLimiterMiddleware) applies(req *web.Request) bool {
	if !strings.HasPrefix(req.URL.Path, m.pathPrefix) {
		return false
	}
	return m.method == "" || m.method == req.Method
}

// RateLimiterFilter limits the requests of each client. Authenticated clients are keyed by
// their user id, anonymous ones by their source address.
type RateLimiterFilter struct {
	rateLimiters []RateLimiterMiddleware
}

// NewRateLimiterFilter creates a RateLimiterFilter
func NewRateLimiterFilter(middleware []RateLimiterMiddleware) *RateLimiterFilter {
	return &RateLimiterFilter{
		rateLimiters: middleware,
	}
}

// Name implements the web.Filter interface
func (rl *RateLimiterFilter) Name() string {
	return RateLimiterFilterName
}

// Run implements the web.Filter interface
func (rl *RateLimiterFilter) Run(request *web.Request, next web.Handler) (*web.Response, error) {
	ctx := request.Context()
	key := clientKey(request)
	for _, middleware := range rl.rateLimiters {
		if !middleware.applies(request) {
			continue
		}
		limiterContext, err := middleware.limiter.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("could not check rate limit: %w", err)
		}
		if limiterContext.Reached {
			log.C(ctx).Debugf("Request limit has been exceeded for client with key %s", key)
			return nil, &util.HTTPError{
				ErrorType:   "TooManyRequests",
				Description: fmt.Sprintf("The allowed request limit of %d requests has been reached please try again later", limiterContext.Limit),
				StatusCode:  http.StatusTooManyRequests,
			}
		}
	}
	return next.Handle(request)
}

func clientKey(request *web.Request) string {
	if user, ok := web.UserFromContext(request.Context()); ok {
		return "user:" + user.ID
	}
	return "ip:" + audit.SourceIP(request)
}

// FilterMatchers implements the web.Filter interface
func (rl *RateLimiterFilter) FilterMatchers() []web.FilterMatcher {
	return []web.FilterMatcher{
		{
			Matchers: []web.Matcher{
				web.Path("/**"),
			},
		},
	}
}
