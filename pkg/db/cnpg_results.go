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

package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/store"
)

const insertCommandResultSQL = `
INSERT INTO command_results (
	attempt_id,
	ip_address,
	command,
	time,
	raw_output,
	output,
	success,
	error
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (attempt_id) DO NOTHING`

const commandResultsSelection = `
SELECT
	attempt_id,
	ip_address,
	command,
	time,
	raw_output,
	output,
	success,
	error
FROM command_results
WHERE ip_address = $1 AND command = $2`

// WriteResult appends one result. A repeated attempt_id is a no-op.
func (db *DB) WriteResult(ctx context.Context, result *models.CommandResult) error {
	if result == nil {
		return store.ErrNilResult
	}

	output, err := json.Marshal(result.Output)
	if err != nil {
		return fmt.Errorf("%w: encode output: %w", ErrFailedToInsert, err)
	}

	tag, err := db.pgPool.Exec(ctx, insertCommandResultSQL,
		result.AttemptID,
		result.DeviceIP,
		result.Command,
		result.IssuedAt.UTC(),
		result.RawOutput,
		output,
		result.Success,
		result.Error,
	)
	if err != nil {
		return fmt.Errorf("%w: command result: %w", ErrFailedToInsert, err)
	}

	if tag.RowsAffected() == 0 {
		db.logger.Debug().
			Str("attempt_id", result.AttemptID).
			Msg("duplicate command result ignored")
	}

	return nil
}

// LatestResult returns the newest matching row.
func (db *DB) LatestResult(ctx context.Context, ip, command string, successOnly bool) (*models.CommandResult, error) {
	query := commandResultsSelection
	if successOnly {
		query += " AND success"
	}

	query += " ORDER BY time DESC LIMIT 1"

	res, err := scanCommandResult(db.pgPool.QueryRow(ctx, query, ip, command))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s %q", store.ErrResultNotFound, ip, command)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToQuery, err)
	}

	return res, nil
}

// LatestInterfaces maps the newest successful interface-brief result.
func (db *DB) LatestInterfaces(ctx context.Context, ip string) ([]models.InterfaceRecord, error) {
	return store.LatestInterfacesFrom(ctx, db, ip)
}

func scanCommandResult(row pgx.Row) (*models.CommandResult, error) {
	var (
		res    models.CommandResult
		output []byte
	)

	if err := row.Scan(
		&res.AttemptID,
		&res.DeviceIP,
		&res.Command,
		&res.IssuedAt,
		&res.RawOutput,
		&output,
		&res.Success,
		&res.Error,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(output, &res.Output); err != nil {
		return nil, fmt.Errorf("%w: output: %w", ErrFailedToScan, err)
	}

	res.IssuedAt = res.IssuedAt.UTC()

	return &res, nil
}
