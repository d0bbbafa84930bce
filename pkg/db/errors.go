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
	"errors"

	"github.com/carverauto/devicejobs/pkg/models"
)

var (
	ErrFailedToQuery   = errors.New("failed to query")
	ErrFailedToInsert  = errors.New("failed to insert")
	ErrFailedToScan    = errors.New("failed to scan")
	ErrFailedOpenDB    = errors.New("failed to open database")
	ErrCNPGTLSDisabled = errors.New("cnpg tls: sslmode=disable cannot be combined with tls settings")
	ErrCNPGHostMissing = errors.New("cnpg: host is required")
	ErrCNPGDBMissing   = errors.New("cnpg: database is required")
	errCNPGTLSFiles    = errors.New("cnpg tls: cert_file, key_file, and ca_file are required")
)

// CNPGDatabase configures the Postgres connection pool.
type CNPGDatabase struct {
	Host               string            `json:"host"`
	Port               int               `json:"port"`
	Database           string            `json:"database"`
	Username           string            `json:"username"`
	Password           string            `json:"password" sensitive:"true"`
	SSLMode            string            `json:"ssl_mode"`
	ApplicationName    string            `json:"application_name"`
	ExtraRuntimeParams map[string]string `json:"runtime_params"`
	MaxConnections     int32             `json:"max_connections"`
	MinConnections     int32             `json:"min_connections"`
	MaxConnLifetime    models.Duration   `json:"max_conn_lifetime"`
	HealthCheckPeriod  models.Duration   `json:"health_check_period"`
	StatementTimeout   models.Duration   `json:"statement_timeout"`
	CertDir            string            `json:"cert_dir"`
	TLS                *models.TLSConfig `json:"tls,omitempty"`
}

// Validate checks the fields needed to dial.
func (c *CNPGDatabase) Validate() error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, ErrCNPGHostMissing)
	}

	if c.Database == "" {
		errs = append(errs, ErrCNPGDBMissing)
	}

	return errors.Join(errs...)
}
