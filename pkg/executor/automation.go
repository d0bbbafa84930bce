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

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/normalizer"
)

const (
	inventoryGroup         = "routers"
	playbookShowVersion    = "show_version.yml"
	playbookInterfaceBrief = "show_ip_interface_brief.yml"
	playbookRunningConfig  = "show_running_config.yml"
	playbookPing           = "ping.yml"
	playbookInterfaceState = "set_interface_state.yml"
	playbookRunCommand     = "run_command.yml"
	nonZeroExitMessage     = "ansible-playbook returned non-zero exit code"

	// processWaitDelay bounds how long Run waits for output pipes held open
	// by descendants after the process group is killed.
	processWaitDelay = 3 * time.Second
)

// CommandRunner starts a process and collects its exit code and output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args, env []string) (exitCode int, stdout, stderr string, err error)
}

// ExecRunner runs processes with os/exec. The process gets its own process
// group and the whole group is killed when ctx ends.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args, env []string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = env
	cmd.WaitDelay = processWaitDelay
	killProcessGroup(cmd)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
	}

	if err != nil {
		return -1, stdout.String(), stderr.String(), err
	}

	return 0, stdout.String(), stderr.String(), nil
}

// AutomationExecutor runs one ansible-playbook per command against a
// temporary single-host inventory.
type AutomationExecutor struct {
	cfg    Config
	runner CommandRunner
	logger logger.Logger
}

func NewAutomationExecutor(cfg Config, log logger.Logger) *AutomationExecutor {
	return &AutomationExecutor{cfg: cfg, runner: ExecRunner{}, logger: log}
}

// WithRunner replaces the process runner.
func (e *AutomationExecutor) WithRunner(r CommandRunner) *AutomationExecutor {
	e.runner = r
	return e
}

func (e *AutomationExecutor) Run(ctx context.Context, creds *models.DeviceCredentials, commands []string) []Result {
	if len(commands) == 0 {
		return nil
	}

	inventory, cleanup, err := e.writeInventory(creds)
	if err != nil {
		return failAll(commands, err)
	}
	defer cleanup()

	results := make([]Result, 0, len(commands))

	for _, command := range commands {
		playbook, vars := playbookFor(command)
		started := time.Now()

		res := e.runPlaybook(ctx, command, inventory, playbook, vars)
		res.Started = started
		results = append(results, res)
	}

	return results
}

func (e *AutomationExecutor) ApplyInterfaceState(
	ctx context.Context, creds *models.DeviceCredentials, updates []models.InterfaceUpdate) Result {
	command := models.InterfaceStateCommand(updates)

	inventory, cleanup, err := e.writeInventory(creds)
	if err != nil {
		return Result{Command: command, Err: err}
	}
	defer cleanup()

	return e.runPlaybook(ctx, command, inventory, playbookInterfaceState, map[string]interface{}{"updates": updates})
}

func (e *AutomationExecutor) runPlaybook(
	ctx context.Context, command, inventory, playbook string, vars map[string]interface{}) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Command: command, Err: newCommandError(ErrCommandFailed, fmt.Sprintf("automation run panicked: %v", r))}
		}
	}()

	timeout := time.Duration(e.cfg.Automation.Timeout)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args, err := e.playbookArgs(playbook, inventory, vars)
	if err != nil {
		return Result{Command: command, Err: newCommandError(ErrCommandFailed, err.Error())}
	}

	start := time.Now()
	code, stdout, stderr, runErr := e.runner.Run(runCtx, e.cfg.Automation.Binary, args, automationEnv())

	e.logger.Debug().
		Str("command", command).
		Str("playbook", playbook).
		Int("exit_code", code).
		Dur("elapsed", time.Since(start)).
		Msg("Automation run finished")

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{Command: command, Output: stdout,
			Err: newCommandError(ErrCommandTimeout, fmt.Sprintf("%s timed out after %s", playbook, timeout))}
	}

	if runErr != nil {
		return Result{Command: command, Output: stdout, Err: newCommandError(ErrCommandFailed, runErr.Error())}
	}

	if code != 0 {
		return Result{Command: command, Output: stdout, Err: newCommandError(ErrCommandFailed, firstNonEmpty(stderr, stdout, nonZeroExitMessage))}
	}

	decoded := normalizer.DecodeAutomationOutput(stdout)
	if decoded == "" {
		decoded = firstNonEmpty(strings.TrimSpace(stdout), strings.TrimSpace(stderr))
	}

	return Result{Command: command, Output: decoded}
}

func (e *AutomationExecutor) playbookArgs(playbook, inventory string, vars map[string]interface{}) ([]string, error) {
	args := []string{
		filepath.Join(e.cfg.Automation.PlaybookDir, playbook),
		"-i", inventory,
		"-e", "ansible_python_interpreter=" + e.cfg.Automation.PythonInterpreter,
	}

	if len(vars) > 0 {
		extra, err := json.Marshal(vars)
		if err != nil {
			return nil, fmt.Errorf("encode extra vars: %w", err)
		}

		args = append(args, "-e", string(extra))
	}

	return append(args, "-vvv"), nil
}

// playbookFor maps a device command onto a playbook and its extra vars.
func playbookFor(command string) (string, map[string]interface{}) {
	c := strings.TrimSpace(command)

	switch {
	case c == models.CommandShowVersion:
		return playbookShowVersion, nil
	case c == models.CommandShowInterfaceBrief:
		return playbookInterfaceBrief, nil
	case c == models.CommandShowRunningConfig:
		return playbookRunningConfig, nil
	case strings.HasPrefix(c, models.CommandPingPrefix):
		return playbookPing, map[string]interface{}{"target_ip": strings.TrimSpace(strings.TrimPrefix(c, models.CommandPingPrefix))}
	default:
		return playbookRunCommand, map[string]interface{}{"command": c}
	}
}

type inventoryHost struct {
	AnsibleHost       string `yaml:"ansible_host"`
	AnsibleUser       string `yaml:"ansible_user"`
	AnsiblePassword   string `yaml:"ansible_password"`
	AnsibleNetworkOS  string `yaml:"ansible_network_os"`
	AnsibleConnection string `yaml:"ansible_connection"`
}

type inventoryGroupDoc struct {
	Hosts map[string]inventoryHost `yaml:"hosts"`
}

type inventoryDoc struct {
	All struct {
		Children map[string]inventoryGroupDoc `yaml:"children"`
	} `yaml:"all"`
}

func buildInventory(creds *models.DeviceCredentials) ([]byte, error) {
	var doc inventoryDoc

	doc.All.Children = map[string]inventoryGroupDoc{
		inventoryGroup: {
			Hosts: map[string]inventoryHost{
				creds.IP: {
					AnsibleHost:       creds.IP,
					AnsibleUser:       creds.Username,
					AnsiblePassword:   creds.Password,
					AnsibleNetworkOS:  networkOS(creds.Platform()),
					AnsibleConnection: "network_cli",
				},
			},
		},
	}

	return yaml.Marshal(&doc)
}

func networkOS(platform string) string {
	switch strings.ToLower(platform) {
	case "cisco_nxos":
		return "cisco.nxos.nxos"
	case "arista_eos":
		return "arista.eos.eos"
	case "juniper_junos":
		return "junipernetworks.junos.junos"
	default:
		return "cisco.ios.ios"
	}
}

// writeInventory materializes the per-call inventory. cleanup removes it and
// must run on every path.
func (e *AutomationExecutor) writeInventory(creds *models.DeviceCredentials) (string, func(), error) {
	data, err := buildInventory(creds)
	if err != nil {
		return "", nil, newCommandError(ErrCommandFailed, fmt.Sprintf("build inventory: %v", err))
	}

	f, err := os.CreateTemp(e.cfg.Automation.InventoryDir, "inventory_*.yml")
	if err != nil {
		return "", nil, newCommandError(ErrCommandFailed, fmt.Sprintf("create inventory: %v", err))
	}

	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove inventory file")
		}
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()

		return "", nil, newCommandError(ErrCommandFailed, fmt.Sprintf("write inventory: %v", err))
	}

	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, newCommandError(ErrCommandFailed, fmt.Sprintf("close inventory: %v", err))
	}

	return path, cleanup, nil
}

func automationEnv() []string {
	env := os.Environ()

	defaults := map[string]string{
		"ANSIBLE_STDOUT_CALLBACK":      "json",
		"ANSIBLE_DEPRECATION_WARNINGS": "False",
		"ANSIBLE_HOST_KEY_CHECKING":    "False",
	}

	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			env = append(env, key+"="+value)
		}
	}

	return env
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}
