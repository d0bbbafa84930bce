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

package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carverauto/devicejobs/pkg/config"
	"github.com/carverauto/devicejobs/pkg/executor"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/natsutil"
	"github.com/carverauto/devicejobs/pkg/storage"
)

// AckMode decides when a delivered job is acknowledged.
type AckMode string

const (
	// AckImmediate acknowledges on receipt, before any device work.
	AckImmediate AckMode = "immediate"
	// AckAfterPersist acknowledges once every result of the job is stored,
	// so a crashed worker's job is redelivered.
	AckAfterPersist AckMode = "after_persist"
)

var (
	ErrInvalidAckMode = errors.New("ack_mode must be immediate or after_persist")
	ErrInvalidJSON    = errors.New("failed to unmarshal JSON configuration")
)

// Config holds the worker process configuration.
type Config struct {
	NATS     natsutil.Config    `json:"nats"`
	AckMode  AckMode            `json:"ack_mode"`
	Executor executor.Config    `json:"executor"`
	Store    storage.Config     `json:"store"`
	Logging  *logger.Config     `json:"logging"`
	Metrics  *logger.OTelConfig `json:"metrics"`
}

// UnmarshalJSON applies defaults and normalizes TLS paths.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config

	var alias struct{ Alias }

	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}

	*c = Config(alias.Alias)

	if sec := c.NATS.Security; sec != nil && sec.CertDir != "" {
		config.NormalizeTLSPaths(&sec.TLS, sec.CertDir)
	}

	c.ApplyDefaults()

	return nil
}

// ApplyDefaults fills unset fields of every section.
func (c *Config) ApplyDefaults() {
	if c.AckMode == "" {
		c.AckMode = AckImmediate
	}

	c.NATS.ApplyDefaults()
	c.Executor.ApplyDefaults()
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	var errs []error

	switch c.AckMode {
	case AckImmediate, AckAfterPersist:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidAckMode, c.AckMode))
	}

	if err := c.NATS.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Executor.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
