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

// GetDevice looks up credentials by management address.
func (s *Store) GetDevice(ctx context.Context, ip string) (*models.DeviceCredentials, error) {
	var doc deviceDocument

	err := s.devices.FindOne(ctx, bson.D{{Key: "ip", Value: ip}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", store.ErrDeviceNotFound, ip)
	}

	if err != nil {
		return nil, fmt.Errorf("mongo: find device %s: %w", ip, err)
	}

	creds := doc.credentials()

	return &creds, nil
}

// ListDevices returns the inventory ordered by address.
func (s *Store) ListDevices(ctx context.Context) ([]models.DeviceCredentials, error) {
	cur, err := s.devices.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "ip", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: find %s: %w", devicesCollection, err)
	}

	var docs []deviceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode %s: %w", devicesCollection, err)
	}

	devices := make([]models.DeviceCredentials, 0, len(docs))
	for i := range docs {
		devices = append(devices, docs[i].credentials())
	}

	return devices, nil
}

// AddDevice inserts a new inventory entry; the unique ip index rejects
// duplicates with ErrDeviceExists.
func (s *Store) AddDevice(ctx context.Context, creds *models.DeviceCredentials) error {
	if err := store.ValidateDevice(creds); err != nil {
		return err
	}

	_, err := s.devices.InsertOne(ctx, newDeviceDocument(creds))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", store.ErrDeviceExists, creds.IP)
	}

	if err != nil {
		return fmt.Errorf("mongo: insert device %s: %w", creds.IP, err)
	}

	return nil
}
