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

// Package storage contains the storage settings and the storage health indicator of the backoffice
package storage

import (
	"fmt"
	"time"
)

// Settings type to be loaded from the environment
type Settings struct {
	URI                string        `mapstructure:"uri" description:"URI of the storage. The in-memory store is used when empty"`
	Name               string        `mapstructure:"name" description:"name of the bound PostgreSQL service on Cloud Foundry"`
	MigrationsURL      string        `mapstructure:"migrations_url" description:"location of a directory containing sql migrations scripts"`
	SkipSSLValidation  bool          `mapstructure:"skip_ssl_validation" description:"whether to skip ssl verification when connecting to the storage"`
	SSLMode            string        `mapstructure:"sslmode" description:"defines the SSL mode to be used"`
	SSLRootCert        string        `mapstructure:"sslrootcert" description:"the location of the SSL root certificate file"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout" description:"read timeout of the storage connections"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout" description:"write timeout of the storage connections"`
	MaxIdleConnections int           `mapstructure:"max_idle_connections" description:"sets the maximum number of connections in the idle connection pool"`
	MaxOpenConnections int           `mapstructure:"max_open_connections" description:"sets the maximum number of open connections to the database"`
}

// DefaultSettings returns default values for storage settings
func DefaultSettings() *Settings {
	return &Settings{
		URI:                "",
		Name:               "backoffice-db",
		MigrationsURL:      "file://storage/postgres/migrations",
		SkipSSLValidation:  false,
		ReadTimeout:        900 * time.Second,
		WriteTimeout:       900 * time.Second,
		MaxIdleConnections: 5,
		MaxOpenConnections: 30,
	}
}

// InMemory reports whether no database is configured
func (s *Settings) InMemory() bool {
	return s.URI == ""
}

// Validate validates the storage settings
func (s *Settings) Validate() error {
	if s.InMemory() {
		return nil
	}
	if len(s.MigrationsURL) == 0 {
		return fmt.Errorf("validate Settings: StorageMigrationsURL missing")
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 {
		return fmt.Errorf("validate Settings: storage timeouts must not be negative")
	}
	if s.MaxIdleConnections < 0 || s.MaxOpenConnections < 0 {
		return fmt.Errorf("validate Settings: storage connection limits must not be negative")
	}
	return nil
}
