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

package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// Topology is the part of jetstream.JetStream used to declare the queue.
type Topology interface {
	Stream(ctx context.Context, stream string) (jetstream.Stream, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// StreamConfig is the work-queue stream carrying every job subject.
func StreamConfig(cfg *Config) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  cfg.Subjects(),
		Retention: jetstream.WorkQueuePolicy,
		Storage:   jetstream.FileStorage,
	}
}

// ConsumerConfig is the single durable pull consumer shared by all workers.
// MaxAckPending applies to the consumer as a whole, so it must be at least
// the number of workers; per-worker prefetch of one comes from Fetch(1).
func ConsumerConfig(cfg *Config) jetstream.ConsumerConfig {
	maxAckPending := cfg.MaxAckPending
	if maxAckPending == 0 {
		maxAckPending = DefaultMaxAckPending
	}

	return jetstream.ConsumerConfig{
		Durable:        cfg.ConsumerName,
		AckPolicy:      jetstream.AckExplicitPolicy,
		AckWait:        cfg.AckWait.Or(DefaultAckWait),
		MaxDeliver:     cfg.MaxDeliver,
		MaxAckPending:  maxAckPending,
		FilterSubjects: cfg.Subjects(),
	}
}

// EnsureStream looks the stream up and creates it when missing.
func EnsureStream(ctx context.Context, js Topology, cfg *Config) error {
	_, err := js.Stream(ctx, cfg.StreamName)
	if err == nil {
		return nil
	}

	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to get stream %s: %w", cfg.StreamName, err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, StreamConfig(cfg)); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}

	return nil
}

// EnsureConsumer declares the durable consumer and returns it.
func EnsureConsumer(ctx context.Context, js Topology, cfg *Config) (jetstream.Consumer, error) {
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.StreamName, ConsumerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer %s: %w", cfg.ConsumerName, err)
	}

	return consumer, nil
}

// FetchWait bounds one pull so the worker loop can observe shutdown.
const FetchWait = 5 * time.Second
