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

package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/devicejobs/pkg/config"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/natsutil"
	"github.com/carverauto/devicejobs/pkg/storage"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultErrorPause = 3 * time.Second
)

var (
	ErrInvalidInterval = errors.New("interval must be positive")
	errInvalidJSON     = errors.New("failed to unmarshal JSON configuration")
)

// Config holds the scheduler process configuration.
type Config struct {
	NATS       natsutil.Config    `json:"nats"`
	Interval   models.Duration    `json:"interval"`
	ErrorPause models.Duration    `json:"error_pause"`
	Store      storage.Config     `json:"store"`
	Logging    *logger.Config     `json:"logging"`
	Metrics    *logger.OTelConfig `json:"metrics"`
}

// UnmarshalJSON applies defaults and normalizes TLS paths.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config

	var alias struct{ Alias }

	if err := json.Unmarshal(data, &alias); err != nil {
		return errors.Join(errInvalidJSON, err)
	}

	*c = Config(alias.Alias)

	if sec := c.NATS.Security; sec != nil && sec.CertDir != "" {
		config.NormalizeTLSPaths(&sec.TLS, sec.CertDir)
	}

	c.ApplyDefaults()

	return nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Interval == 0 {
		c.Interval = models.Duration(DefaultInterval)
	}

	if c.ErrorPause == 0 {
		c.ErrorPause = models.Duration(DefaultErrorPause)
	}

	c.NATS.ApplyDefaults()
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidInterval, time.Duration(c.Interval)))
	}

	if err := c.NATS.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
