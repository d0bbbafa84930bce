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
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carverauto/devicejobs/pkg/lifecycle"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/natsutil"
)

const (
	clientName        = "devicejobs-worker"
	defaultRetryDelay = 5 * time.Second
)

// Service runs the worker's consume loop under lifecycle.Run.
type Service struct {
	cfg       *Config
	processor jobProcessor
	state     *stateTracker
	logger    logger.Logger

	connectFactory func(ctx context.Context) (*nats.Conn, pullConsumer, error)
	retryDelay     time.Duration

	mu      sync.Mutex
	nc      *nats.Conn
	running lifecycle.Tracker
}

// NewService validates cfg and builds a worker around processor.
func NewService(cfg *Config, processor *Processor, log logger.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        cfg,
		processor:  processor,
		state:      newStateTracker(log),
		logger:     log,
		retryDelay: cfg.NATS.ConnectBackoff.Or(defaultRetryDelay),
	}
	s.connectFactory = s.connect

	return s, nil
}

// State returns the current loop state.
func (s *Service) State() State {
	return s.state.Load()
}

// Start connects and consumes until ctx is cancelled. A lost connection is
// re-established; running out of connect attempts returns an error wrapping
// natsutil.ErrBrokerUnavailable. Start does nothing once Stop has been called.
func (s *Service) Start(ctx context.Context) error {
	if !s.running.Enter() {
		return nil
	}
	defer s.running.Exit()
	defer s.state.Set(StateShutdown)

	for {
		s.state.Set(StateConnecting)

		nc, pc, err := s.connectFactory(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			s.state.Set(StateDisconnected)

			return err
		}

		s.setConn(nc)

		s.logger.Info().
			Str("stream_name", s.cfg.NATS.StreamName).
			Str("consumer_name", s.cfg.NATS.ConsumerName).
			Str("ack_mode", string(s.cfg.AckMode)).
			Msg("Worker consuming jobs")

		consumer := newConsumer(pc, s.processor, s.cfg.AckMode, s.state, s.logger)
		consumer.progressInterval = progressIntervalFor(s.cfg.NATS.AckWait.Or(natsutil.DefaultAckWait))
		err = consumer.ProcessMessages(ctx)

		s.closeConn()

		if err == nil {
			return nil
		}

		s.state.Set(StateDisconnected)
		s.logger.Warn().Err(err).Dur("retry_in", s.retryDelay).Msg("Consumer lost, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.retryDelay):
		}
	}
}

// Stop waits for the job in flight to finish and closes the connection.
func (s *Service) Stop(ctx context.Context) error {
	var err error

	if waitErr := s.running.Wait(ctx); waitErr != nil {
		err = fmt.Errorf("worker did not stop in time: %w", waitErr)
	}

	s.closeConn()
	s.logger.Info().Msg("Worker stopped")

	return err
}

func (s *Service) connect(ctx context.Context) (*nats.Conn, pullConsumer, error) {
	nc, err := natsutil.ConnectWithRetry(ctx, &s.cfg.NATS, clientName, s.logger)
	if err != nil {
		return nil, nil, err
	}

	js, err := natsutil.NewJetStream(nc, s.cfg.NATS.Domain)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	if err := natsutil.EnsureStream(ctx, js, &s.cfg.NATS); err != nil {
		nc.Close()
		return nil, nil, err
	}

	consumer, err := natsutil.EnsureConsumer(ctx, js, &s.cfg.NATS)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nc, consumer, nil
}

func (s *Service) setConn(nc *nats.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nc = nc
}

func (s *Service) closeConn() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
		s.nc = nil
	}
}

var _ lifecycle.Service = (*Service)(nil)
