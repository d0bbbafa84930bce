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

// Package docstore is the MongoDB backend of the result store and device
// inventory. Results live in the "outputs" collection and credentials in
// "devices", one document each.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/store"
)

type decoder interface {
	Decode(v interface{}) error
}

// collection is the part of *mongo.Collection the store calls.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) decoder
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type mongoCollection struct {
	*mongo.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) decoder {
	return c.Collection.FindOne(ctx, filter, opts...)
}

// Store implements store.Store on MongoDB.
type Store struct {
	client  *mongo.Client
	outputs collection
	devices collection
	logger  logger.Logger
}

var _ store.Store = (*Store)(nil)

// New connects, pings the deployment and ensures the unique indexes.
func New(ctx context.Context, cfg *Config, log logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout.Or(defaultConnectTimeout))

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout.Or(defaultConnectTimeout))
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)

		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(cfg.Database)

	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)

		return nil, err
	}

	log.Info().Str("database", cfg.Database).Msg("connected to MongoDB")

	return &Store{
		client:  client,
		outputs: mongoCollection{db.Collection(outputsCollection)},
		devices: mongoCollection{db.Collection(devicesCollection)},
		logger:  log,
	}, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(outputsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "attempt_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "ip_address", Value: 1}, {Key: "command", Value: 1}, {Key: "time", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: %s indexes: %w", outputsCollection, err)
	}

	_, err = db.Collection(devicesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ip", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: %s indexes: %w", devicesCollection, err)
	}

	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	return s.client.Disconnect(ctx)
}
