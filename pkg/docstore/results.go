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
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/store"
)

// WriteResult inserts one outputs document. A duplicate attempt_id is a no-op.
func (s *Store) WriteResult(ctx context.Context, result *models.CommandResult) error {
	if result == nil {
		return store.ErrNilResult
	}

	_, err := s.outputs.InsertOne(ctx, newResultDocument(result))
	if mongo.IsDuplicateKeyError(err) {
		s.logger.Debug().
			Str("attempt_id", result.AttemptID).
			Msg("duplicate command result ignored")

		return nil
	}

	if err != nil {
		return fmt.Errorf("mongo: insert %s: %w", outputsCollection, err)
	}

	return nil
}

// LatestResult finds the newest outputs document for ip and command.
func (s *Store) LatestResult(ctx context.Context, ip, command string, successOnly bool) (*models.CommandResult, error) {
	filter := bson.D{{Key: "ip_address", Value: ip}, {Key: "command", Value: command}}
	if successOnly {
		filter = append(filter, bson.E{Key: "success", Value: true})
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "time", Value: -1}})

	var doc resultDocument

	err := s.outputs.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s %q", store.ErrResultNotFound, ip, command)
	}

	if err != nil {
		return nil, fmt.Errorf("mongo: find %s: %w", outputsCollection, err)
	}

	return doc.commandResult(), nil
}

// LatestInterfaces maps the newest successful interface-brief document.
func (s *Store) LatestInterfaces(ctx context.Context, ip string) ([]models.InterfaceRecord, error) {
	return store.LatestInterfacesFrom(ctx, s, ip)
}
