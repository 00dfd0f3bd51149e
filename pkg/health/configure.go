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

package health

import (
	"context"
	"fmt"

	gohealth "github.com/InVisionApp/go-health/v2"
	logrusshim "github.com/InVisionApp/go-logger/shims/logrus"
	"github.com/bizsuite/backoffice/pkg/log"
)

// Configure creates a go-health instance with a check for every indicator. The returned thresholds map
// holds the number of failures in a row after which each check is considered down.
func Configure(ctx context.Context, indicators []Indicator, settings *Settings) (gohealth.IHealth, map[string]int64, error) {
	ConfigureIndicators(settings, indicators...)

	healthz := gohealth.New()
	healthz.Logger = logrusshim.New(log.C(ctx).Logger)
	healthz.StatusListener = &StatusListener{}

	thresholds := make(map[string]int64, len(indicators))
	for _, indicator := range indicators {
		err := healthz.AddCheck(&gohealth.Config{
			Name:     indicator.Name(),
			Checker:  indicator,
			Interval: indicator.Interval(),
			Fatal:    indicator.Fatal(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not add health check %s: %w", indicator.Name(), err)
		}
		thresholds[indicator.Name()] = indicator.FailuresTreshold()
	}
	return healthz, thresholds, nil
}
