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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/store"
)

const devicesSelection = `SELECT ip, username, password, device_type FROM devices`

// GetDevice looks up credentials by management address.
func (db *DB) GetDevice(ctx context.Context, ip string) (*models.DeviceCredentials, error) {
	var creds models.DeviceCredentials

	err := db.pgPool.QueryRow(ctx, devicesSelection+" WHERE ip = $1", ip).
		Scan(&creds.IP, &creds.Username, &creds.Password, &creds.DeviceType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrDeviceNotFound, ip)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: device %s: %w", ErrFailedToQuery, ip, err)
	}

	return &creds, nil
}

// ListDevices returns the whole inventory ordered by address.
func (db *DB) ListDevices(ctx context.Context) ([]models.DeviceCredentials, error) {
	rows, err := db.pgPool.Query(ctx, devicesSelection+" ORDER BY ip")
	if err != nil {
		return nil, fmt.Errorf("%w: devices: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	devices := []models.DeviceCredentials{}

	for rows.Next() {
		var creds models.DeviceCredentials
		if err := rows.Scan(&creds.IP, &creds.Username, &creds.Password, &creds.DeviceType); err != nil {
			return nil, fmt.Errorf("%w: device row: %w", ErrFailedToScan, err)
		}

		devices = append(devices, creds)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: devices: %w", ErrFailedToQuery, err)
	}

	return devices, nil
}

// AddDevice inserts a new inventory entry. An existing ip is ErrDeviceExists.
func (db *DB) AddDevice(ctx context.Context, creds *models.DeviceCredentials) error {
	if err := store.ValidateDevice(creds); err != nil {
		return err
	}

	tag, err := db.pgPool.Exec(ctx,
		`INSERT INTO devices (ip, username, password, device_type) VALUES ($1, $2, $3, $4) ON CONFLICT (ip) DO NOTHING`,
		creds.IP, creds.Username, creds.Password, creds.Platform())
	if err != nil {
		return fmt.Errorf("%w: device %s: %w", ErrFailedToInsert, creds.IP, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrDeviceExists, creds.IP)
	}

	return nil
}
