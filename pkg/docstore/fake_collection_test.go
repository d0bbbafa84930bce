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

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carverauto/devicejobs/pkg/logger"
)

type fakeDecoder struct {
	err error
}

func (d fakeDecoder) Decode(interface{}) error { return d.err }

// fakeCollection keeps inserted documents in memory and enforces a unique key
// the way the real indexes do.
type fakeCollection struct {
	uniqueKey   func(doc interface{}) string
	seen        map[string]struct{}
	inserted    []interface{}
	insertErr   error
	findOneDoc  interface{}
	findOneErr  error
	filters     []interface{}
	findOneOpts []*options.FindOneOptions
	findDocs    []interface{}
	findErr     error
}

func (f *fakeCollection) InsertOne(_ context.Context, doc interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}

	if f.uniqueKey != nil {
		if f.seen == nil {
			f.seen = make(map[string]struct{})
		}

		key := f.uniqueKey(doc)
		if _, dup := f.seen[key]; dup {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
		}

		f.seen[key] = struct{}{}
	}

	f.inserted = append(f.inserted, doc)

	return &mongo.InsertOneResult{}, nil
}

func (f *fakeCollection) FindOne(_ context.Context, filter interface{}, opts ...*options.FindOneOptions) decoder {
	f.filters = append(f.filters, filter)
	f.findOneOpts = append(f.findOneOpts, opts...)

	if f.findOneErr != nil {
		return fakeDecoder{err: f.findOneErr}
	}

	if f.findOneDoc == nil {
		return fakeDecoder{err: mongo.ErrNoDocuments}
	}

	return mongo.NewSingleResultFromDocument(f.findOneDoc, nil, nil)
}

func (f *fakeCollection) Find(_ context.Context, filter interface{}, _ ...*options.FindOptions) (*mongo.Cursor, error) {
	f.filters = append(f.filters, filter)

	if f.findErr != nil {
		return nil, f.findErr
	}

	return mongo.NewCursorFromDocuments(f.findDocs, nil, nil)
}

func newTestStore(outputs, devices *fakeCollection) *Store {
	return &Store{outputs: outputs, devices: devices, logger: logger.NewTestLogger()}
}
