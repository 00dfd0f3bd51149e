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

// Package config holds the settings of every backoffice component
package config

import (
	"github.com/bizsuite/backoffice/api"
	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/env"
	"github.com/bizsuite/backoffice/pkg/health"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/server"
	"github.com/bizsuite/backoffice/storage"
	"github.com/spf13/pflag"
)

// Settings is used to setup the backoffice
type Settings struct {
	Server  *server.Settings  `mapstructure:"server"`
	Storage *storage.Settings `mapstructure:"storage"`
	Log     *log.Settings     `mapstructure:"log"`
	API     *api.Settings     `mapstructure:"api"`
	Audit   *audit.Settings   `mapstructure:"audit"`
	Health  *health.Settings  `mapstructure:"health"`
}

// DefaultSettings returns the default values for configuring the backoffice
func DefaultSettings() *Settings {
	return &Settings{
		Server:  server.DefaultSettings(),
		Storage: storage.DefaultSettings(),
		Log:     log.DefaultSettings(),
		API:     api.DefaultSettings(),
		Audit:   audit.DefaultSettings(),
		Health:  health.DefaultSettings(),
	}
}

// AddPFlags adds the backoffice config flags to the provided flag set
func AddPFlags(set *pflag.FlagSet) {
	env.CreatePFlags(set, DefaultSettings())
}

// New creates a configuration from the provided env
func New(env env.Environment) (*Settings, error) {
	config := DefaultSettings()
	if err := env.Unmarshal(config); err != nil {
		return nil, err
	}
	return config, nil
}

type validatable interface {
	Validate() error
}

// Validate validates that the configuration contains all mandatory properties
func (c *Settings) Validate() error {
	validatables := []validatable{c.Server, c.Storage, c.Log, c.API, c.Audit, c.Health}
	for _, v := range validatables {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
