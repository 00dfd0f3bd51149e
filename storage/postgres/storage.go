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

// Package postgres implements the audit store on PostgreSQL
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/Kount/pq-timeouts"
	"github.com/bizsuite/backoffice/pkg/log"
	"github.com/bizsuite/backoffice/storage"
	"github.com/golang-migrate/migrate"
	migratepg "github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	// Driver is the database/sql driver used to connect. It wraps lib/pq with read and write timeouts.
	Driver = "pq-timeouts"

	postgresDriverName = "postgres"
)

// Storage is the PostgreSQL backed audit store
type Storage struct {
	ConnectFunc func(driver string, url string) (*sql.DB, error)

	mutex sync.Mutex
	db    *sqlx.DB
}

// New returns a storage connecting through database/sql
func New() *Storage {
	return &Storage{
		ConnectFunc: sql.Open,
	}
}

// Open connects to the database and migrates the schema
func (s *Storage) Open(settings *storage.Settings) error {
	if settings.URI == "" {
		return fmt.Errorf("storage URI cannot be empty")
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	dsn, err := dataSourceName(settings)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.db != nil {
		return nil
	}
	db, err := s.ConnectFunc(Driver, dsn)
	if err != nil {
		return fmt.Errorf("could not connect to PostgreSQL: %w", err)
	}
	db.SetMaxIdleConns(settings.MaxIdleConnections)
	db.SetMaxOpenConns(settings.MaxOpenConnections)
	s.db = sqlx.NewDb(db, postgresDriverName)

	log.D().Debugf("Updating database schema using migrations from %s", settings.MigrationsURL)
	if err := s.updateSchema(settings.MigrationsURL); err != nil {
		closeErr := s.db.Close()
		s.db = nil
		if closeErr != nil {
			log.D().WithError(closeErr).Error("Could not close database after failed migration")
		}
		return fmt.Errorf("could not update database schema: %w", err)
	}
	return nil
}

// PingContext verifies the database connection is alive
func (s *Storage) PingContext(ctx context.Context) error {
	return s.checkOpen().PingContext(ctx)
}

// Close closes the database. Closing a storage that was never opened does nothing.
func (s *Storage) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) checkOpen() *sqlx.DB {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.db == nil {
		log.D().Panicln("Storage is not yet Open")
	}
	return s.db
}

func (s *Storage) updateSchema(migrationsURL string) error {
	driver, err := migratepg.WithInstance(s.db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsURL, postgresDriverName, driver)
	if err != nil {
		return err
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.D().Debug("Database schema already up to date")
		err = nil
	}
	return err
}

// dataSourceName converts the storage URI into a key/value connection string carrying the ssl and timeout options
func dataSourceName(settings *storage.Settings) (string, error) {
	dsn, err := pq.ParseURL(settings.URI)
	if err != nil {
		return "", fmt.Errorf("invalid storage URI: %w", err)
	}
	params := []string{dsn}
	switch {
	case settings.SkipSSLValidation:
		params = append(params, "sslmode=disable")
	case settings.SSLMode != "":
		params = append(params, "sslmode="+settings.SSLMode)
	}
	if settings.SSLRootCert != "" {
		params = append(params, "sslrootcert="+settings.SSLRootCert)
	}
	if settings.ReadTimeout > 0 {
		params = append(params, fmt.Sprintf("read_timeout=%d", settings.ReadTimeout/time.Millisecond))
	}
	if settings.WriteTimeout > 0 {
		params = append(params, fmt.Sprintf("write_timeout=%d", settings.WriteTimeout/time.Millisecond))
	}
	return strings.TrimSpace(strings.Join(params, " ")), nil
}
