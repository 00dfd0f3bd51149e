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

package storage

import (
	"context"
	"time"

	"github.com/InVisionApp/go-health/v2/checkers"
	"github.com/bizsuite/backoffice/pkg/health"
)

// PingFunc is an adapter that allows a function to be used as the pinger of the storage health check
type PingFunc func(ctx context.Context) error

// PingContext calls f(ctx)
func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// HealthIndicator reports the health of the storage
type HealthIndicator struct {
	*checkers.SQL

	settings *health.IndicatorSettings
}

// Name returns the name of the storage component
func (i *HealthIndicator) Name() string {
	return "storage"
}

// Configure sets the indicator settings
func (i *HealthIndicator) Configure(settings *health.IndicatorSettings) {
	i.settings = settings
}

// Interval returns the time between two checks
func (i *HealthIndicator) Interval() time.Duration {
	return i.settings.Interval
}

// FailuresTreshold returns the number of failures in a row after which the storage is down
func (i *HealthIndicator) FailuresTreshold() int64 {
	return i.settings.FailuresTreshold
}

// Fatal reports whether a down storage makes the backoffice down
func (i *HealthIndicator) Fatal() bool {
	return i.settings.Fatal
}

// NewSQLHealthIndicator returns a new health indicator that pings the storage
func NewSQLHealthIndicator(pingFunc PingFunc) (health.Indicator, error) {
	sqlChecker, err := checkers.NewSQL(&checkers.SQLConfig{
		Pinger: pingFunc,
	})
	if err != nil {
		return nil, err
	}
	return &HealthIndicator{
		SQL:      sqlChecker,
		settings: health.DefaultIndicatorSettings(),
	}, nil
}
