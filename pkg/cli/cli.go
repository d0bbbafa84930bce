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

// Package cli implements the devicejobs command: enqueueing jobs, managing
// the device inventory and reading results.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/store"
)

// Subcommands.
const (
	SubCmdEnqueue = "enqueue"
	SubCmdDevice  = "device"
	SubCmdResults = "results"
)

// Actions per subcommand.
const (
	actionRefresh    = "refresh"
	actionPing       = "ping"
	actionUpdate     = "update"
	actionAdd        = "add"
	actionList       = "list"
	actionLatest     = "latest"
	actionInterfaces = "interfaces"
)

const defaultConfigPath = "/etc/devicejobs/devicejobs.json"

// SubcommandHandler defines the interface for parsing subcommand flags.
type SubcommandHandler interface {
	Parse(args []string, cfg *CmdConfig) error
}

// Enqueuer publishes jobs.
type Enqueuer interface {
	EnqueueRefresh(ctx context.Context, ip string) (string, error)
	EnqueuePing(ctx context.Context, ip, target string) (string, error)
	EnqueueInterfaceUpdate(ctx context.Context, ip string, updates []models.InterfaceUpdate) (string, error)
}

// splitAction takes the leading action word off args.
func splitAction(args []string, valid ...string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: one of %s", errMissingAction, strings.Join(valid, ", "))
	}

	for _, v := range valid {
		if args[0] == v {
			return v, args[1:], nil
		}
	}

	return "", nil, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownAction, args[0], strings.Join(valid, ", "))
}

func newFlagSet(name string, cfg *CmdConfig) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.ConfigFile, "config", defaultConfigPath, "path to devicejobs config file")
	fs.StringVar(&cfg.IP, "ip", "", "device management address")

	return fs
}

// EnqueueHandler handles flags for the enqueue subcommand.
type EnqueueHandler struct{}

// Parse processes the command-line arguments for enqueue refresh|ping|update.
func (EnqueueHandler) Parse(args []string, cfg *CmdConfig) error {
	action, rest, err := splitAction(args, actionRefresh, actionPing, actionUpdate)
	if err != nil {
		return err
	}

	cfg.Action = action

	fs := newFlagSet("enqueue "+action, cfg)
	target := fs.String("target", "", "address to ping from the device")
	set := fs.String("set", "", "interface states, e.g. Gi0/1=down,Gi0/2=up")

	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("parsing enqueue flags: %w", err)
	}

	if cfg.IP == "" {
		return errMissingIP
	}

	switch action {
	case actionPing:
		if *target == "" {
			return errMissingTarget
		}

		cfg.TargetIP = *target
	case actionUpdate:
		if *set == "" {
			return errMissingUpdates
		}

		cfg.Updates, err = parseUpdates(*set)
		if err != nil {
			return err
		}
	}

	return nil
}

// parseUpdates reads "name=state" pairs separated by commas.
func parseUpdates(raw string) ([]models.InterfaceUpdate, error) {
	var updates []models.InterfaceUpdate

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, state, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidUpdate, pair)
		}

		switch strings.ToLower(strings.TrimSpace(state)) {
		case "up", "enable", "enabled", "true", "no-shutdown":
			updates = append(updates, models.NewInterfaceUpdate(name, true))
		case "down", "disable", "disabled", "false", "shutdown":
			updates = append(updates, models.NewInterfaceUpdate(name, false))
		default:
			return nil, fmt.Errorf("%w: %q", errInvalidUpdate, pair)
		}
	}

	if len(updates) == 0 {
		return nil, errMissingUpdates
	}

	return updates, nil
}

// DeviceHandler handles flags for the device subcommand.
type DeviceHandler struct{}

// Parse processes the command-line arguments for device add|list.
func (DeviceHandler) Parse(args []string, cfg *CmdConfig) error {
	action, rest, err := splitAction(args, actionAdd, actionList)
	if err != nil {
		return err
	}

	cfg.Action = action

	fs := newFlagSet("device "+action, cfg)
	fs.StringVar(&cfg.Username, "username", "", "login username")
	fs.StringVar(&cfg.Password, "password", "", "login password")
	fs.StringVar(&cfg.DeviceType, "device-type", "", "device type: router, switch or a platform name")

	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("parsing device flags: %w", err)
	}

	if action == actionAdd {
		if cfg.IP == "" {
			return errMissingIP
		}

		if cfg.Username == "" {
			return errMissingUsername
		}
	}

	return nil
}

// ResultsHandler handles flags for the results subcommand.
type ResultsHandler struct{}

// Parse processes the command-line arguments for results latest|interfaces.
func (ResultsHandler) Parse(args []string, cfg *CmdConfig) error {
	action, rest, err := splitAction(args, actionLatest, actionInterfaces)
	if err != nil {
		return err
	}

	cfg.Action = action

	fs := newFlagSet("results "+action, cfg)
	fs.StringVar(&cfg.Command, "command", models.CommandShowVersion, "command whose latest result to show")
	fs.BoolVar(&cfg.All, "all", false, "include failed attempts")

	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("parsing results flags: %w", err)
	}

	if cfg.IP == "" {
		return errMissingIP
	}

	return nil
}

// ParseFlags parses the subcommand and its flags from args, which exclude
// the program name.
func ParseFlags(args []string) (*CmdConfig, error) {
	cfg := &CmdConfig{Args: args, ConfigFile: defaultConfigPath}

	if len(args) == 0 {
		cfg.Help = true
		return cfg, nil
	}

	cfg.SubCmd = args[0]

	switch cfg.SubCmd {
	case "help", "-h", "-help", "--help":
		cfg.Help = true
		return cfg, nil
	}

	subcommands := map[string]SubcommandHandler{
		SubCmdEnqueue: EnqueueHandler{},
		SubCmdDevice:  DeviceHandler{},
		SubCmdResults: ResultsHandler{},
	}

	handler, exists := subcommands[cfg.SubCmd]
	if !exists {
		return cfg, fmt.Errorf("%w: %s", ErrUnknownSubcommand, cfg.SubCmd)
	}

	if err := handler.Parse(args[1:], cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// RunEnqueue publishes the job described by cfg and prints its id.
func RunEnqueue(ctx context.Context, cfg *CmdConfig, enq Enqueuer, out io.Writer) error {
	var (
		jobID string
		err   error
	)

	switch cfg.Action {
	case actionRefresh:
		jobID, err = enq.EnqueueRefresh(ctx, cfg.IP)
	case actionPing:
		jobID, err = enq.EnqueuePing(ctx, cfg.IP, cfg.TargetIP)
	case actionUpdate:
		jobID, err = enq.EnqueueInterfaceUpdate(ctx, cfg.IP, cfg.Updates)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, cfg.Action)
	}

	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", cfg.Action, err)
	}

	styles := newOutputStyles()
	_, err = fmt.Fprintf(out, "%s %s job %s for %s\n",
		styles.success.Render("queued"), cfg.Action, jobID, cfg.IP)

	return err
}

// RunDevice adds a device or lists the inventory grouped by type.
func RunDevice(ctx context.Context, cfg *CmdConfig, inv store.Inventory, out io.Writer) error {
	switch cfg.Action {
	case actionAdd:
		creds := &models.DeviceCredentials{
			IP:         cfg.IP,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DeviceType: cfg.DeviceType,
		}

		if err := inv.AddDevice(ctx, creds); err != nil {
			return fmt.Errorf("failed to add device %s: %w", cfg.IP, err)
		}

		_, err := fmt.Fprintf(out, "%s device %s (%s)\n",
			newOutputStyles().success.Render("added"), creds.IP, creds.Platform())

		return err
	case actionList:
		devices, err := inv.ListDevices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}

		_, err = io.WriteString(out, renderDeviceGroups(models.GroupDevices(devices)))

		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, cfg.Action)
	}
}

// RunResults prints the latest result for a command or the interface view.
func RunResults(ctx context.Context, cfg *CmdConfig, reader store.ResultReader, out io.Writer) error {
	switch cfg.Action {
	case actionLatest:
		res, err := reader.LatestResult(ctx, cfg.IP, cfg.Command, !cfg.All)
		if err != nil {
			return fmt.Errorf("failed to read latest %q for %s: %w", cfg.Command, cfg.IP, err)
		}

		_, err = io.WriteString(out, renderResult(res))

		return err
	case actionInterfaces:
		records, err := reader.LatestInterfaces(ctx, cfg.IP)
		if err != nil {
			return fmt.Errorf("failed to read interfaces for %s: %w", cfg.IP, err)
		}

		_, err = io.WriteString(out, renderInterfaces(cfg.IP, records))

		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, cfg.Action)
	}
}
