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

// Package storage opens the configured result store backend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/carverauto/devicejobs/pkg/db"
	"github.com/carverauto/devicejobs/pkg/docstore"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/store"
)

const (
	BackendCNPG  = "cnpg"
	BackendMongo = "mongo"
)

var (
	ErrUnknownBackend = errors.New("unknown store backend")
	errMissingCNPG    = errors.New("store.cnpg is required for the cnpg backend")
	errMissingMongo   = errors.New("store.mongo is required for the mongo backend")
)

// Config selects a backend and carries its settings.
type Config struct {
	Backend string           `json:"backend"`
	CNPG    *db.CNPGDatabase `json:"cnpg,omitempty"`
	Mongo   *docstore.Config `json:"mongo,omitempty"`
}

// Validate checks that the selected backend is configured.
func (c *Config) Validate() error {
	switch c.backend() {
	case BackendCNPG:
		if c.CNPG == nil {
			return errMissingCNPG
		}

		return c.CNPG.Validate()
	case BackendMongo:
		if c.Mongo == nil {
			return errMissingMongo
		}

		return c.Mongo.Validate()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

func (c *Config) backend() string {
	if c.Backend == "" {
		return BackendCNPG
	}

	return c.Backend
}

// Open connects the selected backend and prepares its schema.
func Open(ctx context.Context, cfg *Config, log logger.Logger) (store.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ApplyPasswordFile(cfg); err != nil {
		return nil, err
	}

	if cfg.backend() == BackendMongo {
		s, err := docstore.New(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}

		return s, nil
	}

	s, err := db.New(ctx, cfg.CNPG, log)
	if err != nil {
		return nil, err
	}

	return s, nil
}
