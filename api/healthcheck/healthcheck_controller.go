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

// Package healthcheck contains the /monitor/health controller
package healthcheck

import (
	"context"
	"net/http"

	gohealth "github.com/InVisionApp/go-health/v2"
	"github.com/bizsuite/backoffice/pkg/health"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
)

// controller health controller
type controller struct {
	health     gohealth.IHealth
	thresholds map[string]int64
}

// NewController returns a new healthcheck controller with the given health and thresholds
func NewController(health gohealth.IHealth, thresholds map[string]int64) web.Controller {
	return &controller{
		health:     health,
		thresholds: thresholds,
	}
}

// Routes returns the routes of the health controller
func (c *controller) Routes() []web.Route {
	return []web.Route{
		{
			Endpoint: web.Endpoint{
				Method: http.MethodGet,
				Path:   web.MonitorHealthURL,
			},
			Handler: c.healthCheck,
		},
	}
}

// healthCheck handler for GET /monitor/health
func (c *controller) healthCheck(r *web.Request) (*web.Response, error) {
	ctx := r.Context()
	log.C(ctx).Debugf("Performing health check...")
	healthState, _, err := c.health.State()
	if err != nil {
		log.C(ctx).WithError(err).Error("Could not read the state of the health checks")
		result := health.New().WithError(err)
		if _, authenticated := web.UserFromContext(ctx); !authenticated {
			result.Details = nil
		}
		return util.NewJSONResponse(http.StatusServiceUnavailable, result)
	}
	healthResult := c.aggregate(ctx, healthState)
	status := http.StatusOK
	if healthResult.Status != health.StatusUp {
		status = http.StatusServiceUnavailable
	}
	return util.NewJSONResponse(status, healthResult)
}

func (c *controller) aggregate(ctx context.Context, overallState map[string]gohealth.State) *health.Health {
	if len(overallState) == 0 {
		return health.New().WithStatus(health.StatusUp)
	}
	overallStatus := health.StatusUp
	for name, state := range overallState {
		if state.Fatal && state.ContiguousFailures >= c.thresholds[name] {
			overallStatus = health.StatusDown
			break
		}
	}
	_, authenticated := web.UserFromContext(ctx)
	details := make(map[string]interface{})
	for name, state := range overallState {
		state.Status = convertStatus(state.Status)
		if !authenticated {
			state.Details = nil
			state.Err = ""
		}
		details[name] = state
	}
	return health.New().WithStatus(overallStatus).WithDetails(details)
}

func convertStatus(status string) string {
	switch status {
	case "ok":
		return string(health.StatusUp)
	case "failed":
		return string(health.StatusDown)
	default:
		return string(health.StatusUnknown)
	}
}
