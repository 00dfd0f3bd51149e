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

// Package env loads the backoffice configuration from pflags, environment variables and an optional config file
package env

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// File describes the name, path and the format of the file to be used to load the configuration in the env
type File struct {
	Name     string `mapstructure:"name" description:"name of the configuration file"`
	Location string `mapstructure:"location" description:"location of the configuration file"`
	Format   string `mapstructure:"format" description:"extension of the configuration file"`
}

// DefaultConfigFile holds the default config file properties
func DefaultConfigFile() File {
	return File{
		Name:     "application",
		Location: ".",
		Format:   "yml",
	}
}

// CreatePFlagsForConfigFile creates pflags for setting the configuration file
func CreatePFlagsForConfigFile(set *pflag.FlagSet) {
	CreatePFlags(set, struct {
		File File `mapstructure:"file"`
	}{File: DefaultConfigFile()})
}

// Environment represents an abstraction over the env from which the configuration will be loaded
type Environment interface {
	Get(key string) interface{}
	Set(key string, value interface{})
	Unmarshal(value interface{}) error
	BindPFlag(key string, flag *pflag.Flag) error
	AllSettings() map[string]interface{}
}

// ConfigChangeHandler builds a callback that is invoked when the config file changes
type ConfigChangeHandler func(env Environment) func(event fsnotify.Event)

// ViperEnv represents an implementation of the Environment interface that uses viper
type ViperEnv struct {
	*viper.Viper
}

// EmptyFlagSet creates an empty flag set and adds the default set of flags to it
func EmptyFlagSet() *pflag.FlagSet {
	set := pflag.NewFlagSet("Backoffice Configuration Flags", pflag.ExitOnError)
	set.AddFlagSet(pflag.CommandLine)
	return set
}

// New creates a new environment. It accepts a flag set that should contain all the flags that the
// environment should be aware of. The set is parsed from the process arguments unless it was parsed already.
func New(ctx context.Context, set *pflag.FlagSet, onConfigChangeHandlers ...ConfigChangeHandler) (*ViperEnv, error) {
	v := &ViperEnv{
		Viper: viper.New(),
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if !set.Parsed() {
		if err := set.Parse(os.Args[1:]); err != nil {
			return nil, err
		}
	}

	var bindErr error
	set.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("could not bind flag %s: %w", flag.Name, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	if err := v.setupConfigFile(ctx, onConfigChangeHandlers...); err != nil {
		return nil, err
	}
	return v, nil
}

// Default creates the environment used to boot the backoffice, applying Cloud Foundry overrides when running there
func Default(ctx context.Context, additionalPFlags ...func(set *pflag.FlagSet)) (Environment, error) {
	set := EmptyFlagSet()
	CreatePFlagsForConfigFile(set)
	for _, addFlags := range additionalPFlags {
		addFlags(set)
	}

	environment, err := New(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %s", err)
	}
	if err := SetCFOverrides(environment); err != nil {
		return nil, fmt.Errorf("error setting CF environment values: %s", err)
	}
	return environment, nil
}

// AllSettings returns all settings known to the environment
func (v *ViperEnv) AllSettings() map[string]interface{} {
	return v.Viper.AllSettings()
}

// Unmarshal exposes viper's Unmarshal. Every key of the value is bound to its environment variable first,
// otherwise keys that are only set via env vars would not be visible to viper.
func (v *ViperEnv) Unmarshal(value interface{}) error {
	for _, param := range collectParameters(value) {
		if err := v.Viper.BindEnv(param.Name); err != nil {
			return err
		}
	}
	return v.Viper.Unmarshal(value)
}

func (v *ViperEnv) setupConfigFile(ctx context.Context, onConfigChangeHandlers ...ConfigChangeHandler) error {
	cfg := struct {
		File File `mapstructure:"file"`
	}{}
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("could not find configuration cfg: %s", err)
	}
	if cfg.File.Name == "" {
		return nil
	}

	v.Viper.AddConfigPath(cfg.File.Location)
	v.Viper.SetConfigName(cfg.File.Name)
	v.Viper.SetConfigType(cfg.File.Format)

	if err := v.Viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.C(ctx).Info("Config File was not found: ", err)
			return nil
		}
		return fmt.Errorf("could not read configuration cfg: %s", err)
	}

	handlers := append(onConfigChangeHandlers, reconfigureLogging(ctx))
	v.Viper.OnConfigChange(func(event fsnotify.Event) {
		log.C(ctx).Warnf("Configuration file was changed by event %s. Triggering on config changed handlers...", event)
		for _, handler := range handlers {
			handler(v)(event)
		}
	})
	v.Viper.WatchConfig()
	return nil
}

func reconfigureLogging(ctx context.Context) ConfigChangeHandler {
	return func(env Environment) func(event fsnotify.Event) {
		return func(event fsnotify.Event) {
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				return
			}
			settings := log.Configuration()
			settings.Level = cast.ToString(env.Get("log.level"))
			settings.Format = cast.ToString(env.Get("log.format"))

			log.C(ctx).Warnf("Reconfiguring logging using level %s and format %s", settings.Level, settings.Format)
			if _, err := log.Configure(ctx, &settings); err != nil {
				log.C(ctx).WithError(err).Errorf("Could not reconfigure logging after config file event %s", event)
			}
		}
	}
}
