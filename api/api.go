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

// Package api assembles the backoffice API from its controllers and filters
package api

import (
	"context"
	"fmt"

	gohealth "github.com/InVisionApp/go-health/v2"
	"github.com/bizsuite/backoffice/api/audit"
	"github.com/bizsuite/backoffice/api/document"
	"github.com/bizsuite/backoffice/api/filters"
	"github.com/bizsuite/backoffice/api/healthcheck"
	"github.com/bizsuite/backoffice/api/profile"
	"github.com/bizsuite/backoffice/api/workspace"
	auditing "github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/go-redis/redis"
)

const minSigningKeyLength = 32

// Settings type to be loaded from the environment
type Settings struct {
	TokenSigningKey     string `mapstructure:"token_signing_key" description:"key verifying the HS256 signature of bearer tokens"`
	TokenIssuer         string `mapstructure:"token_issuer" description:"required issuer of bearer tokens, any issuer is accepted when empty"`
	MaxPageSize         int    `mapstructure:"max_page_size" description:"maximum number of items that could be returned in a single page"`
	DefaultPageSize     int    `mapstructure:"default_page_size" description:"default number of items returned in a single page if not specified in request"`
	RateLimit           string `mapstructure:"rate_limit" description:"rate limiter configuration defined in format: rate<:path><:method><,rate<:path><:method>,...>"`
	RateLimitingEnabled bool   `mapstructure:"rate_limiting_enabled" description:"enable rate limiting"`
	RateLimitStoreURL   string `mapstructure:"rate_limit_store_url" description:"redis url of the rate limiter store, limits are kept in memory when empty"`
	RateLimitStoreName  string `mapstructure:"rate_limit_store_name" description:"name of the bound redis service holding the rate limiter store"`
}

// DefaultSettings returns default values for API settings
func DefaultSettings() *Settings {
	return &Settings{
		MaxPageSize:         200,
		DefaultPageSize:     50,
		RateLimit:           "10000-H,1000-M",
		RateLimitingEnabled: false,
	}
}

// Validate validates the API settings
func (s *Settings) Validate() error {
	if len(s.TokenSigningKey) < minSigningKeyLength {
		return fmt.Errorf("validate Settings: TokenSigningKey must be at least %d characters", minSigningKeyLength)
	}
	if s.DefaultPageSize < 1 {
		return fmt.Errorf("validate Settings: DefaultPageSize must be positive")
	}
	if s.MaxPageSize < s.DefaultPageSize {
		return fmt.Errorf("validate Settings: MaxPageSize must not be less than DefaultPageSize")
	}
	return validateRateLimiterConfiguration(s.RateLimit)
}

// Options are the collaborators the API is built from
type Options struct {
	APISettings *Settings
	Auditor     *auditing.Auditor
	Reporter    audit.Reporter
	RedisClient *redis.Client

	Health           gohealth.IHealth
	HealthThresholds map[string]int64
}

// AuditedController is a controller whose endpoints are audited
type AuditedController interface {
	web.Controller

	// AuditRules returns the rules selecting the audited endpoints of the controller
	AuditRules() []*auditing.Rule
}

// New returns the backoffice API. The audit rules of the feature controllers are registered
// in the registry of the auditor.
func New(ctx context.Context, options *Options) (*web.API, error) {
	rateLimiters, err := initRateLimiters(ctx, options)
	if err != nil {
		return nil, err
	}

	features := []AuditedController{
		profile.NewController(profile.NewRepository()),
		workspace.NewController(workspace.NewRepository()),
		document.NewController(document.NewTracker()),
	}
	registry := options.Auditor.Registry()
	for _, feature := range features {
		if err := registry.Register(feature.AuditRules()...); err != nil {
			return nil, fmt.Errorf("could not register audit rules: %w", err)
		}
	}
	log.C(ctx).Infof("Registered %d audit rules", registry.Len())

	api := &web.API{
		Controllers: []web.Controller{
			audit.NewController(options.Reporter, options.APISettings.DefaultPageSize, options.APISettings.MaxPageSize),
		},
		Filters: []web.Filter{
			&filters.Logging{},
			filters.NewAuthentication(options.APISettings.TokenSigningKey, options.APISettings.TokenIssuer),
			filters.NewRequiredAuthentication(
				web.ProfileURL,
				web.WorkspacesURL,
				web.WorkspacesURL+"/**",
				web.DocumentsURL+"/**",
				web.AuditURL+"/**",
			),
			filters.NewAudit(options.Auditor),
		},
	}
	for _, feature := range features {
		api.RegisterControllers(feature)
	}
	if options.Health != nil {
		api.RegisterControllers(healthcheck.NewController(options.Health, options.HealthThresholds))
	}

	if rateLimiters != nil {
		api.RegisterFiltersAfter(filters.AuthenticationFilterName, filters.NewRateLimiterFilter(rateLimiters))
	}
	return api, nil
}
