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

// Package health contains the health reporting types of the backoffice
package health

import (
	"fmt"
	"time"

	gohealth "github.com/InVisionApp/go-health/v2"
	"github.com/bizsuite/backoffice/pkg/log"
)

// Settings type to be loaded from the environment
type Settings struct {
	IndicatorsSettings map[string]*IndicatorSettings `mapstructure:"indicators,omitempty"`
}

// DefaultSettings returns default values for health settings
func DefaultSettings() *Settings {
	return &Settings{
		IndicatorsSettings: make(map[string]*IndicatorSettings),
	}
}

// Validate validates health settings
func (s *Settings) Validate() error {
	for name, v := range s.IndicatorsSettings {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("indicator %s: %w", name, err)
		}
	}
	return nil
}

// IndicatorSettings type to be loaded from the environment
type IndicatorSettings struct {
	Fatal            bool          `mapstructure:"fatal" description:"if the indicator affects the overall status"`
	FailuresTreshold int64         `mapstructure:"failures_treshold" description:"maximum failures in a row until component is considered down"`
	Interval         time.Duration `mapstructure:"interval" description:"time between health checks of components"`
}

// DefaultIndicatorSettings returns default values for indicator settings
func DefaultIndicatorSettings() *IndicatorSettings {
	return &IndicatorSettings{
		Fatal:            true,
		FailuresTreshold: 3,
		Interval:         60 * time.Second,
	}
}

// Validate validates indicator settings
func (is *IndicatorSettings) Validate() error {
	if is.FailuresTreshold <= 0 {
		return fmt.Errorf("validate Settings: FailuresTreshold must be > 0")
	}
	if is.Interval < 10*time.Second {
		return fmt.Errorf("validate Settings: Minimum interval is 10 seconds")
	}
	return nil
}

// Status represents the overall health status of a component
type Status string

const (
	// StatusUp indicates that the checked component is up and running
	StatusUp Status = "UP"
	// StatusDown indicates the the checked component has an issue and is unavailable
	StatusDown Status = "DOWN"
	// StatusUnknown indicates that the health of the checked component cannot be determined
	StatusUnknown Status = "UNKNOWN"
)

// StatusListener logs state changes of the health checks
type StatusListener struct{}

// HealthCheckFailed is called when a health check fails
func (sl *StatusListener) HealthCheckFailed(state *gohealth.State) {
	log.D().Errorf("Health check for %v failed with: %v", state.Name, state.Err)
}

// HealthCheckRecovered is called when a failing health check passes again
func (sl *StatusListener) HealthCheckRecovered(state *gohealth.State, numberOfFailures int64, unavailableDuration float64) {
	log.D().Infof("Health check for %v recovered after %v failures and was unavailable for %v seconds roughly", state.Name, numberOfFailures, unavailableDuration)
}

// Health contains information about the health of a component.
type Health struct {
	Status  Status                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// New returns a new Health with an unknown status an empty details.
func New() *Health {
	return &Health{
		Status:  StatusUnknown,
		Details: make(map[string]interface{}),
	}
}

// WithStatus sets the status of the health
func (h *Health) WithStatus(status Status) *Health {
	h.Status = status
	return h
}

// WithError sets the status of the health to DOWN and adds an error detail
func (h *Health) WithError(err error) *Health {
	h.Status = StatusDown
	return h.WithDetail("error", err.Error())
}

// WithDetail adds a detail to the health
func (h *Health) WithDetail(key string, val interface{}) *Health {
	h.Details[key] = val
	return h
}

// WithDetails adds the given details to the health
func (h *Health) WithDetails(details map[string]interface{}) *Health {
	for k, v := range details {
		h.Details[k] = v
	}
	return h
}

// Indicator is an interface to provide the health of a component
type Indicator interface {
	// Name returns the name of the component
	Name() string

	// Interval returns settings of the indicator
	Interval() time.Duration

	// FailuresTreshold returns the maximum failures in a row until component is considered down
	FailuresTreshold() int64

	// Fatal returns if the health indicator is fatal for the overall status
	Fatal() bool

	// Status returns the health information of the component
	Status() (interface{}, error)
}

// ConfigurableIndicator is an interface to provide configurable health of a component
type ConfigurableIndicator interface {
	Indicator

	// Configure configures the indicator with given settings
	Configure(*IndicatorSettings)
}

// ConfigureIndicators configures the indicators with their settings, falling back to the defaults
func ConfigureIndicators(settings *Settings, indicators ...Indicator) {
	for _, hi := range indicators {
		indicator, ok := hi.(ConfigurableIndicator)
		if !ok {
			continue
		}
		if s, ok := settings.IndicatorsSettings[indicator.Name()]; ok {
			indicator.Configure(s)
		} else {
			indicator.Configure(DefaultIndicatorSettings())
		}
	}
}
