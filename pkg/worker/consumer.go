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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/natsutil"
)

const defaultFetchPause = time.Second

// pullConsumer is the part of jetstream.Consumer the loop uses.
type pullConsumer interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

type jobProcessor interface {
	Process(ctx context.Context, data []byte) error
}

// Consumer pulls one job at a time and hands it to the processor.
type Consumer struct {
	consumer   pullConsumer
	processor  jobProcessor
	ackMode    AckMode
	state      *stateTracker
	logger     logger.Logger
	fetchPause time.Duration
	// progressInterval is how often an unacknowledged job is reported as in
	// progress so the broker does not redeliver it while it still runs.
	progressInterval time.Duration
}

func newConsumer(pc pullConsumer, proc jobProcessor, mode AckMode, state *stateTracker, log logger.Logger) *Consumer {
	return &Consumer{
		consumer:         pc,
		processor:        proc,
		ackMode:          mode,
		state:            state,
		logger:           log,
		fetchPause:       defaultFetchPause,
		progressInterval: progressIntervalFor(natsutil.DefaultAckWait),
	}
}

// progressIntervalFor leaves room for two missed reports within ackWait.
func progressIntervalFor(ackWait time.Duration) time.Duration {
	return ackWait / 3
}

// isFatalFetchError reports errors after which the consumer must be rebuilt
// on a new connection.
func isFatalFetchError(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, jetstream.ErrConsumerDeleted) ||
		errors.Is(err, jetstream.ErrConsumerNotFound)
}

// ProcessMessages fetches and processes jobs until ctx is cancelled, which
// returns nil, or a fatal fetch error, which is returned.
func (c *Consumer) ProcessMessages(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		c.state.Set(StateConsuming)

		batch, err := c.consumer.Fetch(1, jetstream.FetchMaxWait(natsutil.FetchWait))
		if err != nil {
			if isFatalFetchError(err) {
				return fmt.Errorf("fetch failed: %w", err)
			}

			c.logger.Warn().Err(err).Msg("Failed to fetch job")

			if !c.pause(ctx) {
				return nil
			}

			continue
		}

		for msg := range batch.Messages() {
			c.handle(ctx, msg)
		}

		if err := batch.Error(); err != nil {
			if isFatalFetchError(err) {
				return fmt.Errorf("fetch failed: %w", err)
			}

			if !errors.Is(err, nats.ErrTimeout) {
				c.logger.Debug().Err(err).Msg("Fetch ended with error")
			}
		}
	}
}

func (c *Consumer) pause(ctx context.Context) bool {
	timer := time.NewTimer(c.fetchPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// handle runs one job to completion. Shutdown does not cancel a job in flight.
func (c *Consumer) handle(ctx context.Context, msg jetstream.Msg) {
	c.state.Set(StateProcessing)
	defer c.state.Set(StateConsuming)

	jobCtx := context.WithoutCancel(ctx)

	if c.ackMode != AckAfterPersist {
		if err := msg.Ack(); err != nil {
			c.logger.Warn().Err(err).Str("subject", msg.Subject()).Msg("Failed to ack job")
		}

		if err := c.processor.Process(jobCtx, msg.Data()); err != nil {
			c.logger.Error().Err(err).Str("subject", msg.Subject()).Msg("Job finished with errors")
		}

		return
	}

	stopProgress := c.reportProgress(msg)
	err := c.processor.Process(jobCtx, msg.Data())
	stopProgress()

	switch {
	case err == nil:
		if ackErr := msg.Ack(); ackErr != nil {
			c.logger.Warn().Err(ackErr).Str("subject", msg.Subject()).Msg("Failed to ack job")
		}
	case errors.Is(err, models.ErrMalformedJob), errors.Is(err, ErrJobPanicked):
		c.logger.Error().Err(err).Str("subject", msg.Subject()).Msg("Terminating job")

		if termErr := msg.Term(); termErr != nil {
			c.logger.Warn().Err(termErr).Msg("Failed to terminate job")
		}
	default:
		c.logger.Error().Err(err).Str("subject", msg.Subject()).Msg("Job not persisted, requesting redelivery")

		if nakErr := msg.Nak(); nakErr != nil {
			c.logger.Warn().Err(nakErr).Msg("Failed to nak job")
		}
	}
}

// reportProgress marks msg in progress every progressInterval until the
// returned function is called. The function waits for the reporter to exit.
func (c *Consumer) reportProgress(msg jetstream.Msg) func() {
	if c.progressInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)

		ticker := time.NewTicker(c.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					c.logger.Warn().Err(err).Str("subject", msg.Subject()).Msg("Failed to extend job ack deadline")
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
