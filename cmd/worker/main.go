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

// Package main runs the devicejobs worker: it consumes jobs from JetStream,
// executes them against devices and stores the normalized results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/carverauto/devicejobs/pkg/config"
	"github.com/carverauto/devicejobs/pkg/executor"
	"github.com/carverauto/devicejobs/pkg/lifecycle"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/storage"
	"github.com/carverauto/devicejobs/pkg/worker"
)

const serviceName = "devicejobs-worker"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/devicejobs/worker.json", "Path to worker config file")
	flag.Parse()

	ctx := context.Background()

	var cfg worker.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "worker", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "worker: failed to flush telemetry: %v\n", err)
		}
	}()

	if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{
		ServiceName: serviceName,
		OTel:        cfg.Metrics,
	}); err != nil && !errors.Is(err, logger.ErrOTelMetricsDisabled) {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	st, err := storage.Open(ctx, &cfg.Store, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	exec, err := executor.New(cfg.Executor, log)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	svc, err := worker.NewService(&cfg, worker.NewProcessor(exec, st, st, log), log)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	return lifecycle.Run(ctx, &lifecycle.ServerOptions{
		ServiceName: serviceName,
		Service:     svc,
		Logger:      log,
	})
}
