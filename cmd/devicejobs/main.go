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

// Package main is the devicejobs command-line tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/carverauto/devicejobs/pkg/cli"
	"github.com/carverauto/devicejobs/pkg/config"
	"github.com/carverauto/devicejobs/pkg/lifecycle"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/producer"
	"github.com/carverauto/devicejobs/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "devicejobs: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cmd, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		cli.PrintUsage(os.Stderr)
		return err
	}

	if cmd.Help {
		cli.PrintUsage(os.Stdout)
		return nil
	}

	ctx := context.Background()

	var cfg cli.Config
	if err := config.NewConfig(nil).LoadAndValidate(ctx, cmd.ConfigFile, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = logger.DefaultConfig()
		logConfig.Level = "warn"
		logConfig.Output = "stderr"
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "cli", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	if cmd.SubCmd == cli.SubCmdEnqueue {
		prod := producer.New(&cfg.NATS, log)
		defer prod.Close()

		return cli.RunEnqueue(ctx, cmd, prod, os.Stdout)
	}

	st, err := storage.Open(ctx, &cfg.Store, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	defer func() { _ = st.Close(context.Background()) }()

	if cmd.SubCmd == cli.SubCmdDevice {
		return cli.RunDevice(ctx, cmd, st, os.Stdout)
	}

	return cli.RunResults(ctx, cmd, st, os.Stdout)
}
