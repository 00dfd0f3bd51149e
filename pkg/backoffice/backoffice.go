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

// Package backoffice wires configuration, storage, auditing and the HTTP API into a runnable backoffice
package backoffice

import (
	"context"
	"fmt"
	"io"
	"sync"

	gohealth "github.com/InVisionApp/go-health/v2"
	"github.com/bizsuite/backoffice/api"
	"github.com/bizsuite/backoffice/config"
	"github.com/bizsuite/backoffice/pkg/audit"
	"github.com/bizsuite/backoffice/pkg/env"
	"github.com/bizsuite/backoffice/pkg/health"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/pkg/server"
	"github.com/bizsuite/backoffice/pkg/util"
	"github.com/bizsuite/backoffice/pkg/web"
	"github.com/bizsuite/backoffice/storage"
	"github.com/bizsuite/backoffice/storage/memory"
	"github.com/bizsuite/backoffice/storage/postgres"
	"github.com/go-redis/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

// Backoffice is a built backoffice ready to serve requests
type Backoffice struct {
	ctx     context.Context
	group   *sync.WaitGroup
	cfg     *config.Settings
	closers []io.Closer

	Server  *server.Server
	Auditor *audit.Auditor
}

// BackofficeBuilder type is an extension point that allows adding additional filters and
// controllers before running the backoffice.
type BackofficeBuilder struct {
	*web.API

	ctx     context.Context
	cancel  context.CancelFunc
	group   *sync.WaitGroup
	cfg     *config.Settings
	closers []io.Closer

	healthz  gohealth.IHealth
	registry *prometheus.Registry

	Auditor *audit.Auditor
}

// DefaultEnv creates the environment used to configure the backoffice
func DefaultEnv(ctx context.Context, additionalPFlags ...func(set *pflag.FlagSet)) (env.Environment, error) {
	return env.Default(ctx, append([]func(set *pflag.FlagSet){config.AddPFlags}, additionalPFlags...)...)
}

// New returns a backoffice builder configured from the provided environment
func New(ctx context.Context, cancel context.CancelFunc, environment env.Environment) (*BackofficeBuilder, error) {
	cfg, err := config.New(environment)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %s", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating configuration: %s", err)
	}
	return NewWithSettings(ctx, cancel, cfg)
}

// NewWithSettings returns a backoffice builder for already loaded settings
func NewWithSettings(ctx context.Context, cancel context.CancelFunc, cfg *config.Settings) (*BackofficeBuilder, error) {
	ctx, err := log.Configure(ctx, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("error configuring logging: %s", err)
	}
	util.HandleInterrupts(ctx, cancel)

	b := &BackofficeBuilder{
		ctx:      ctx,
		cancel:   cancel,
		group:    &sync.WaitGroup{},
		cfg:      cfg,
		registry: prometheus.NewRegistry(),
	}

	store, indicators, err := b.setupStorage()
	if err != nil {
		return nil, err
	}

	if err := b.registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("could not register go metrics: %s", err)
	}
	metrics, err := audit.NewMetrics(b.registry)
	if err != nil {
		return nil, fmt.Errorf("could not register audit metrics: %s", err)
	}
	var sinks []audit.Sink
	if cfg.Audit.Stdout {
		sinks = append(sinks, audit.NewStdoutSink())
	}
	recorder := audit.NewRecorder(store, cfg.Audit, metrics, sinks...)
	b.Auditor = audit.NewAuditor(audit.NewRegistry(), recorder, cfg.Audit)

	redisClient, err := b.setupRedis()
	if err != nil {
		return nil, err
	}

	healthz, thresholds, err := health.Configure(ctx, indicators, cfg.Health)
	if err != nil {
		return nil, fmt.Errorf("error configuring health: %s", err)
	}
	b.healthz = healthz

	b.API, err = api.New(ctx, &api.Options{
		APISettings:      cfg.API,
		Auditor:          b.Auditor,
		Reporter:         audit.NewReporter(store, cfg.Audit),
		RedisClient:      redisClient,
		Health:           healthz,
		HealthThresholds: thresholds,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating core API: %s", err)
	}
	return b, nil
}

func (b *BackofficeBuilder) setupStorage() (audit.Store, []health.Indicator, error) {
	if b.cfg.Storage.InMemory() {
		log.C(b.ctx).Warn("No storage URI configured, audit events are kept in memory")
		return memory.NewAuditStore(), nil, nil
	}

	pg := postgres.New()
	if err := pg.Open(b.cfg.Storage); err != nil {
		return nil, nil, fmt.Errorf("error opening storage: %s", err)
	}
	b.closers = append(b.closers, pg)

	indicator, err := storage.NewSQLHealthIndicator(pg.PingContext)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating storage health indicator: %s", err)
	}
	return pg, []health.Indicator{indicator}, nil
}

func (b *BackofficeBuilder) setupRedis() (*redis.Client, error) {
	settings := b.cfg.API
	if !settings.RateLimitingEnabled || settings.RateLimitStoreURL == "" {
		return nil, nil
	}
	options, err := redis.ParseURL(settings.RateLimitStoreURL)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limiter store url: %s", err)
	}
	client := redis.NewClient(options)
	b.closers = append(b.closers, client)
	return client, nil
}

// Context returns the context of the backoffice carrying the configured logger
func (b *BackofficeBuilder) Context() context.Context {
	return b.ctx
}

// Build builds the backoffice and starts its health checks
func (b *BackofficeBuilder) Build() *Backoffice {
	b.installHealth()

	srv := server.New(b.cfg.Server, b.API)
	srv.RegisterMetrics(b.registry)

	return &Backoffice{
		ctx:     b.ctx,
		group:   b.group,
		cfg:     b.cfg,
		closers: b.closers,
		Server:  srv,
		Auditor: b.Auditor,
	}
}

func (b *BackofficeBuilder) installHealth() {
	if err := b.healthz.Start(); err != nil {
		log.C(b.ctx).WithError(err).Error("Could not start health checks")
		return
	}
	util.StartInWaitGroupWithContext(b.ctx, func(c context.Context) {
		<-c.Done()
		log.C(c).Debug("Context cancelled. Stopping health checks...")
		if err := b.healthz.Stop(); err != nil {
			log.C(c).Error(err)
		}
	}, b.group)
}

// Run starts the backoffice and blocks until its context is cancelled and it has shut down
func (bo *Backoffice) Run() {
	log.C(bo.ctx).Info("Running Backoffice...")

	bo.Server.Run(bo.ctx, bo.group)

	bo.Auditor.Shutdown(bo.ctx)
	for _, closer := range bo.closers {
		if err := closer.Close(); err != nil {
			log.C(bo.ctx).WithError(err).Error("Error closing resources")
		}
	}
	if !util.WaitWithTimeout(bo.group, bo.cfg.Server.ShutdownTimeout) {
		log.C(bo.ctx).Warnf("Timeout waiting for the backoffice to shut down")
		return
	}
	log.C(bo.ctx).Info("Backoffice stopped")
}
