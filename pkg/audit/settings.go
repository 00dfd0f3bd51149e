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

package audit

import (
	"fmt"
	"time"
)

// Settings type to be loaded from the environment
type Settings struct {
	Enabled            bool          `mapstructure:"enabled" description:"record audit events for matching requests"`
	MaxUserAgentLength int           `mapstructure:"max_user_agent_length" description:"user agents longer than this are truncated"`
	RedactedFields     []string      `mapstructure:"redacted_fields" description:"top-level detail fields that are never stored"`
	StatsBatchSize     int           `mapstructure:"stats_batch_size" description:"page size used when statistics are computed from queried events"`
	StoreTimeout       time.Duration `mapstructure:"store_timeout" description:"timeout for persisting a single audit event"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" description:"time to wait for in-flight audit events on shutdown"`
	Stdout             bool          `mapstructure:"stdout" description:"also write every recorded audit event as a JSON line to stdout"`
}

// DefaultSettings returns default values for audit settings
func DefaultSettings() *Settings {
	return &Settings{
		Enabled:            true,
		MaxUserAgentLength: 1024,
		RedactedFields:     []string{"password", "token", "secret"},
		StatsBatchSize:     500,
		StoreTimeout:       5 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
}

// Validate validates the audit settings
func (s *Settings) Validate() error {
	if s.MaxUserAgentLength < 1 {
		return fmt.Errorf("validate Settings: MaxUserAgentLength must be positive")
	}
	if s.StatsBatchSize < 1 {
		return fmt.Errorf("validate Settings: StatsBatchSize must be positive")
	}
	if s.StoreTimeout < 0 {
		return fmt.Errorf("validate Settings: StoreTimeout must not be negative")
	}
	return nil
}
