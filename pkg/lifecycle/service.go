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

// Package lifecycle runs long-lived services until a signal or error stops them.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/devicejobs/pkg/logger"
)

const defaultShutdownTimeout = 10 * time.Second

// Service is a component that runs until its context is cancelled.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ServerOptions configures Run.
type ServerOptions struct {
	ServiceName     string
	Service         Service
	Logger          logger.Logger
	ShutdownTimeout time.Duration
	// Signals defaults to SIGINT and SIGTERM.
	Signals []os.Signal
}

// Run starts opts.Service and blocks until ctx is cancelled, a signal arrives
// or Start returns. Stop is then called with a bounded timeout. A Start error
// other than context cancellation is returned to the caller.
func Run(ctx context.Context, opts *ServerOptions) error {
	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	sigCtx, stop := signal.NotifyContext(ctx, signals...)
	defer stop()

	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()

		opts.Logger.Info().Str("service", opts.ServiceName).Msg("Starting service")

		err := opts.Service.Start(gctx)
		if err == nil {
			return nil
		}

		// Once shutdown has been requested, whatever Start returns is a clean stop.
		if gctx.Err() != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				opts.Logger.Warn().Err(err).Str("service", opts.ServiceName).Msg("Service returned an error during shutdown")
			}

			return nil
		}

		return fmt.Errorf("%s: %w", opts.ServiceName, err)
	})

	g.Go(func() error {
		<-gctx.Done()

		timeout := opts.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		opts.Logger.Info().Str("service", opts.ServiceName).Msg("Stopping service")

		if err := opts.Service.Stop(shutdownCtx); err != nil {
			opts.Logger.Error().Err(err).Str("service", opts.ServiceName).Msg("Error while stopping service")
		}

		return nil
	})

	return g.Wait()
}
