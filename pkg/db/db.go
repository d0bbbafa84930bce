/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package db is the Postgres (CNPG) backend of the result store and device
// inventory.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/store"
)

// querier is the subset of *pgxpool.Pool the store uses. Every call acquires
// and releases its own pooled connection.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB implements store.Store on a pgx pool.
type DB struct {
	pgPool querier
	close  func()
	logger logger.Logger
}

var _ store.Store = (*DB)(nil)

// New dials the cluster and ensures the schema before returning.
func New(ctx context.Context, cfg *CNPGDatabase, log logger.Logger) (*DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: cnpg config is required", ErrFailedOpenDB)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedOpenDB, err)
	}

	pool, err := NewCNPGPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := RunCNPGMigrations(ctx, pool, log); err != nil {
		pool.Close()

		return nil, err
	}

	return &DB{pgPool: pool, close: pool.Close, logger: log}, nil
}

func newWithQuerier(q querier, log logger.Logger) *DB {
	return &DB{pgPool: q, close: func() {}, logger: log}
}

// Close releases the pool.
func (db *DB) Close(_ context.Context) error {
	if db.close != nil {
		db.close()
	}

	return nil
}
