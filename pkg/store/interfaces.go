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

// Package store defines the persistence contracts of the pipeline: the
// append-only result log, its read-side queries and the device inventory.
package store

import (
	"context"
	"errors"

	"github.com/carverauto/devicejobs/pkg/models"
)

//go:generate mockgen -destination=mock_store.go -package=store github.com/carverauto/devicejobs/pkg/store Store

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceExists   = errors.New("device already exists")
	ErrResultNotFound = errors.New("result not found")
	ErrInvalidDevice  = errors.New("device ip and username are required")
	ErrNilResult      = errors.New("command result is nil")
)

// ResultWriter appends command results. A result whose attempt_id is already
// stored is ignored, so a redelivered job never produces a second document.
type ResultWriter interface {
	WriteResult(ctx context.Context, result *models.CommandResult) error
}

// ResultReader answers "current state" questions by recency.
type ResultReader interface {
	// LatestResult returns the newest result for ip and command, restricted to
	// successful attempts when successOnly is set.
	LatestResult(ctx context.Context, ip, command string, successOnly bool) (*models.CommandResult, error)
	// LatestInterfaces derives the interface view from the newest successful
	// "show ip interface brief" result. No result yields an empty slice.
	LatestInterfaces(ctx context.Context, ip string) ([]models.InterfaceRecord, error)
}

// Inventory resolves device credentials by management address.
type Inventory interface {
	GetDevice(ctx context.Context, ip string) (*models.DeviceCredentials, error)
	ListDevices(ctx context.Context) ([]models.DeviceCredentials, error)
	AddDevice(ctx context.Context, creds *models.DeviceCredentials) error
}

// Store is a complete backend.
type Store interface {
	ResultWriter
	ResultReader
	Inventory
	Close(ctx context.Context) error
}

// ValidateDevice checks the fields an inventory entry needs.
func ValidateDevice(creds *models.DeviceCredentials) error {
	if creds == nil || creds.IP == "" || creds.Username == "" {
		return ErrInvalidDevice
	}

	return nil
}

// LatestInterfacesFrom maps the newest interface-brief result onto the read
// view. ErrResultNotFound is treated as an empty inventory of interfaces.
func LatestInterfacesFrom(ctx context.Context, r ResultReader, ip string) ([]models.InterfaceRecord, error) {
	res, err := r.LatestResult(ctx, ip, models.CommandShowInterfaceBrief, true)
	if errors.Is(err, ErrResultNotFound) {
		return []models.InterfaceRecord{}, nil
	}

	if err != nil {
		return nil, err
	}

	return models.InterfaceRecordsFromOutput(res.Output), nil
}
