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

// Package log contains the logrus setup of the backoffice and helpers for request scoped loggers
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/onrik/logrus/filename"
	"github.com/sirupsen/logrus"
)

const (
	// FieldComponentName is the log field holding the name of the component that wrote the entry
	FieldComponentName = "component"
	// FieldCorrelationID is the log field holding the correlation id of the request
	FieldCorrelationID = "correlation_id"
)

type logKey struct{}

// Settings type to be loaded from the environment
type Settings struct {
	Level        string `mapstructure:"level" description:"minimum level for log messages"`
	Format       string `mapstructure:"format" description:"format of log messages. Allowed values - text, json, kibana"`
	Output       string `mapstructure:"output" description:"output for the logs. Allowed values - stdout, stderr"`
	FileLocation bool   `mapstructure:"file_location" description:"add the source file and line to each log entry"`
}

// DefaultSettings returns default values for log settings
func DefaultSettings() *Settings {
	return &Settings{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	}
}

// Validate validates the log settings
func (s *Settings) Validate() error {
	if len(s.Level) == 0 {
		return fmt.Errorf("validate Settings: LogLevel missing")
	}
	if len(s.Format) == 0 {
		return fmt.Errorf("validate Settings: LogFormat missing")
	}
	return nil
}

var (
	supportedFormatters = map[string]logrus.Formatter{
		"json":   &logrus.JSONFormatter{},
		"text":   &logrus.TextFormatter{},
		"kibana": &KibanaFormatter{},
	}
	supportedOutputs = map[string]io.Writer{
		"stdout": os.Stdout,
		"stderr": os.Stderr,
	}
	mutex           sync.RWMutex
	defaultEntry    = logrus.NewEntry(logrus.StandardLogger())
	currentSettings = *DefaultSettings()

	// C is a shorthand for ForContext
	C = ForContext
	// D is a shorthand for Default
	D = Default
)

// Configure creates a new logger from the settings, makes it the default one and returns a context carrying it.
// Configure may be called again when the settings change.
func Configure(ctx context.Context, settings *Settings) (context.Context, error) {
	mutex.Lock()
	defer mutex.Unlock()

	level, err := logrus.ParseLevel(settings.Level)
	if err != nil {
		return ctx, fmt.Errorf("could not parse log level configuration: %s", err)
	}
	formatter, ok := supportedFormatters[settings.Format]
	if !ok {
		return ctx, fmt.Errorf("invalid log format: %s", settings.Format)
	}
	output := supportedOutputs["stdout"]
	if settings.Output != "" {
		if output, ok = supportedOutputs[settings.Output]; !ok {
			return ctx, fmt.Errorf("invalid log output: %s", settings.Output)
		}
	}

	logger := &logrus.Logger{
		Formatter: formatter,
		Level:     level,
		Out:       output,
		Hooks:     make(logrus.LevelHooks),
	}
	if settings.FileLocation {
		hook := filename.NewHook()
		hook.Field = "source"
		logger.AddHook(hook)
	}

	currentSettings = *settings
	defaultEntry = logrus.NewEntry(logger)
	return ContextWithLogger(ctx, defaultEntry), nil
}

// Configuration returns the settings the default logger was last configured with
func Configuration() Settings {
	mutex.RLock()
	defer mutex.RUnlock()
	return currentSettings
}

// ForContext returns the logger stored in the context or the default one
func ForContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(logKey{}).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return Default()
}

// Default returns the default logger
func Default() *logrus.Entry {
	mutex.RLock()
	defer mutex.RUnlock()
	return defaultEntry
}

// ContextWithLogger returns a new context carrying the given logger entry
func ContextWithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, logKey{}, entry)
}

// RegisterFormatter makes a custom formatter available to Configure under the given name
func RegisterFormatter(name string, formatter logrus.Formatter) {
	mutex.Lock()
	defer mutex.Unlock()
	supportedFormatters[name] = formatter
}
