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

package docstore

import (
	"errors"
	"time"

	"github.com/carverauto/devicejobs/pkg/models"
)

const (
	defaultDatabase       = "devicejobs"
	defaultConnectTimeout = 10 * time.Second

	outputsCollection = "outputs"
	devicesCollection = "devices"
)

var ErrURIRequired = errors.New("mongo: uri is required")

// Config selects the MongoDB deployment and database.
type Config struct {
	URI            string          `json:"uri" sensitive:"true"`
	Database       string          `json:"database"`
	ConnectTimeout models.Duration `json:"connect_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = defaultDatabase
	}

	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = models.Duration(defaultConnectTimeout)
	}
}

// Validate checks the fields needed to connect.
func (c *Config) Validate() error {
	if c.URI == "" {
		return ErrURIRequired
	}

	return nil
}
