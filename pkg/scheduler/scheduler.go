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

// Package scheduler enqueues a refresh job for every inventoried device on a
// fixed-rate timer.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/carverauto/devicejobs/pkg/lifecycle"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
)

// Enqueuer publishes refresh jobs.
type Enqueuer interface {
	EnqueueRefresh(ctx context.Context, ip string) (string, error)
}

// DeviceLister lists the inventory.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]models.DeviceCredentials, error)
}

// Scheduler runs ticks at start + k*interval. A tick that overruns its slot
// is followed immediately by the next one.
type Scheduler struct {
	devices    DeviceLister
	enqueuer   Enqueuer
	clock      clockwork.Clock
	interval   time.Duration
	errorPause time.Duration
	logger     logger.Logger
	running    lifecycle.Tracker
}

// New builds a scheduler on the real clock.
func New(cfg *Config, devices DeviceLister, enqueuer Enqueuer, log logger.Logger) *Scheduler {
	return &Scheduler{
		devices:    devices,
		enqueuer:   enqueuer,
		clock:      clockwork.NewRealClock(),
		interval:   cfg.Interval.Or(DefaultInterval),
		errorPause: cfg.ErrorPause.Or(DefaultErrorPause),
		logger:     log,
	}
}

// Start runs ticks until ctx is cancelled. It returns at once if Stop has
// already been called.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.Enter() {
		return nil
	}
	defer s.running.Exit()

	start := s.clock.Now()

	s.logger.Info().Dur("interval", s.interval).Msg("Scheduler started")

	for run := 0; ; run++ {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.tick(ctx, run); err != nil {
			s.logger.Error().Err(err).Int("run", run).Dur("pause", s.errorPause).Msg("Scheduler tick failed")

			if !s.sleep(ctx, s.errorPause) {
				return nil
			}
		}

		next := start.Add(time.Duration(run+1) * s.interval)
		if wait := next.Sub(s.clock.Now()); wait > 0 {
			if !s.sleep(ctx, wait) {
				return nil
			}
		}
	}
}

// Stop waits for the current tick to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	if err := s.running.Wait(ctx); err != nil {
		return fmt.Errorf("scheduler did not stop in time: %w", err)
	}

	s.logger.Info().Msg("Scheduler stopped")

	return nil
}

// tick enqueues one refresh per device and stops at the first failure.
func (s *Scheduler) tick(ctx context.Context, run int) error {
	devices, err := s.devices.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	s.logger.Debug().Int("run", run).Int("devices", len(devices)).Msg("Scheduling refresh")

	for i := range devices {
		jobID, err := s.enqueuer.EnqueueRefresh(ctx, devices[i].IP)
		if err != nil {
			return fmt.Errorf("failed to enqueue refresh for %s: %w", devices[i].IP, err)
		}

		s.logger.Debug().Str("job_id", jobID).Str("ip", devices[i].IP).Msg("Enqueued refresh")
	}

	return nil
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return true
	}
}

var _ lifecycle.Service = (*Scheduler)(nil)
