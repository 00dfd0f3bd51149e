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
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/bizsuite/backoffice/api/filters"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/ulule/limiter"
	"github.com/ulule/limiter/drivers/store/memory"
	sredis "github.com/ulule/limiter/drivers/store/redis"
)

const rateLimiterStorePrefix = "backoffice_limiter"

func validateRateLimiterConfiguration(input string) error {
	_, err := parseRateLimiterConfiguration(input)
	return err
}

type rateLimiterConfiguration struct {
	rate       limiter.Rate
	pathPrefix string
	method     string
}

func rateLimiterSectionError(index int, section string, details string) error {
	return fmt.Errorf("invalid rate limiter configuration in section #%d: '%s', %s", index+1, section, details)
}

// parseRateLimiterConfiguration parses rate limits in the format rate<:path><:method>,...
//
//	5-M                  5 requests per minute on any path
//	5-M:/audit           5 requests per minute on paths starting with /audit
//	5-M:/workspaces:POST 5 workspace creations per minute
//	10000-H,1000-M       both limits on any path
func parseRateLimiterConfiguration(input string) ([]rateLimiterConfiguration, error) {
	var configurations []rateLimiterConfiguration
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return configurations, nil
	}
	for index, section := range strings.Split(input, ",") {
		section = strings.TrimSpace(section)
		if len(section) == 0 {
			return nil, rateLimiterSectionError(index, section, "no content, expected 'rate:path:method' format")
		}
		parts := strings.Split(section, ":")
		if len(parts) > 3 {
			return nil, rateLimiterSectionError(index, section, "too many elements, expected 'rate:path:method' format")
		}

		rate, err := limiter.NewRateFromFormatted(parts[0])
		if err != nil {
			return nil, rateLimiterSectionError(index, section, "unable to parse rate: "+err.Error())
		}
		pathPrefix := "/"
		method := ""
		if len(parts) >= 2 {
			pathPrefix = parts[1]
			if pathPrefix == "" {
				return nil, rateLimiterSectionError(index, section, "path should not be empty")
			}
			if !strings.HasPrefix(pathPrefix, "/") {
				return nil, rateLimiterSectionError(index, section, "path should start with /")
			}
			if path.Clean(pathPrefix) != pathPrefix {
				return nil, rateLimiterSectionError(index, section, "path is not clean, expected path '"+path.Clean(pathPrefix)+"'")
			}
		}
		if len(parts) == 3 {
			method = strings.ToUpper(parts[2])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
			default:
				return nil, rateLimiterSectionError(index, section, "method '"+method+"' is not valid")
			}
		}
		configurations = append(configurations, rateLimiterConfiguration{
			rate:       rate,
			pathPrefix: pathPrefix,
			method:     method,
		})
	}
	return configurations, nil
}

func initRateLimiters(ctx context.Context, options *Options) ([]filters.RateLimiterMiddleware, error) {
	if !options.APISettings.RateLimitingEnabled {
		return nil, nil
	}
	configurations, err := parseRateLimiterConfiguration(options.APISettings.RateLimit)
	if err != nil {
		return nil, err
	}

	rateLimiters := make([]filters.RateLimiterMiddleware, 0, len(configurations))
	for i, configuration := range configurations {
		store, err := rateLimiterStore(options, i)
		if err != nil {
			return nil, err
		}
		rateLimiters = append(rateLimiters,
			filters.NewRateLimiterMiddleware(limiter.New(store, configuration.rate), configuration.pathPrefix, configuration.method))
	}
	storeKind := "memory"
	if options.RedisClient != nil {
		storeKind = "redis"
	}
	log.C(ctx).Infof("Rate limiting enabled with %d limits kept in %s", len(rateLimiters), storeKind)
	return rateLimiters, nil
}

func rateLimiterStore(options *Options, index int) (limiter.Store, error) {
	if options.RedisClient == nil {
		return memory.NewStore(), nil
	}
	store, err := sredis.NewStoreWithOptions(options.RedisClient, limiter.StoreOptions{
		Prefix:   fmt.Sprintf("%s_%d", rateLimiterStorePrefix, index),
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create rate limiter store: %w", err)
	}
	return store, nil
}
