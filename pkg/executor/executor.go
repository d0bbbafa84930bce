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

// Package executor runs device commands either over an interactive SSH
// session or through an ansible-playbook run.
package executor

import (
	"errors"
	"fmt"
	"time"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
)

var (
	ErrDeviceConnectivity = errors.New("device connectivity error")
	ErrCommandTimeout     = errors.New("command timed out")
	ErrCommandFailed      = errors.New("command failed")
	ErrUnknownStrategy    = errors.New("unknown executor strategy")
	errInvalidPort        = errors.New("port must be between 1 and 65535")
)

// Strategy selects an Executor implementation.
type Strategy string

const (
	StrategySession    Strategy = "session"
	StrategyAutomation Strategy = "automation"
)

const (
	defaultSSHPort            = 22
	defaultConnectTimeout     = 10 * time.Second
	defaultCommandTimeout     = 30 * time.Second
	defaultAutomationTimeout  = 120 * time.Second
	defaultAutomationBinary   = "ansible-playbook"
	defaultPythonInterpreter  = "/usr/local/bin/python3"
	defaultAutomationPlaybook = "playbooks"
)

// Result is the outcome of one command. Output holds whatever the device or
// automation run printed, even when Err is set.
type Result struct {
	Command string
	Output  string
	Err     error
	// Started is when the command was sent. Zero when it was never attempted.
	Started time.Time
}

// OK reports whether the command succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// CommandError carries the diagnostic text captured for a failed command.
// Error returns the diagnostic verbatim; errors.Is matches Kind.
type CommandError struct {
	Kind       error
	Diagnostic string
}

func (e *CommandError) Error() string {
	if e.Diagnostic == "" {
		return e.Kind.Error()
	}

	return e.Diagnostic
}

func (e *CommandError) Unwrap() error {
	return e.Kind
}

func newCommandError(kind error, diag string) error {
	return &CommandError{Kind: kind, Diagnostic: diag}
}

// Config selects and tunes the executor.
type Config struct {
	Strategy       Strategy         `json:"strategy"`
	Port           int              `json:"port"`
	ConnectTimeout models.Duration  `json:"connect_timeout"`
	CommandTimeout models.Duration  `json:"command_timeout"`
	KnownHostsFile string           `json:"known_hosts_file"`
	Automation     AutomationConfig `json:"automation"`
}

// AutomationConfig tunes the ansible-playbook strategy.
type AutomationConfig struct {
	Binary            string          `json:"binary"`
	PlaybookDir       string          `json:"playbook_dir"`
	InventoryDir      string          `json:"inventory_dir"`
	Timeout           models.Duration `json:"timeout"`
	PythonInterpreter string          `json:"python_interpreter"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyAutomation
	}

	if c.Port == 0 {
		c.Port = defaultSSHPort
	}

	c.ConnectTimeout = models.Duration(c.ConnectTimeout.Or(defaultConnectTimeout))
	c.CommandTimeout = models.Duration(c.CommandTimeout.Or(defaultCommandTimeout))
	c.Automation.Timeout = models.Duration(c.Automation.Timeout.Or(defaultAutomationTimeout))

	if c.Automation.Binary == "" {
		c.Automation.Binary = defaultAutomationBinary
	}

	if c.Automation.PlaybookDir == "" {
		c.Automation.PlaybookDir = defaultAutomationPlaybook
	}

	if c.Automation.PythonInterpreter == "" {
		c.Automation.PythonInterpreter = defaultPythonInterpreter
	}
}

// Validate checks the strategy and port.
func (c *Config) Validate() error {
	var errs []error

	switch c.Strategy {
	case StrategySession, StrategyAutomation, "":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy))
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, errInvalidPort)
	}

	return errors.Join(errs...)
}

// New builds the executor selected by cfg.Strategy.
func New(cfg Config, log logger.Logger) (Executor, error) {
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Strategy {
	case StrategySession:
		return NewSessionExecutor(cfg, log)
	case StrategyAutomation:
		return NewAutomationExecutor(cfg, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}

// failAll reports the same error for every command.
func failAll(commands []string, err error) []Result {
	results := make([]Result, 0, len(commands))
	for _, c := range commands {
		results = append(results, Result{Command: c, Err: err})
	}

	return results
}

// interfaceConfigLines renders the configuration lines for updates.
func interfaceConfigLines(updates []models.InterfaceUpdate) []string {
	lines := make([]string, 0, len(updates)*3)

	for _, u := range updates {
		state := "shutdown"
		if u.IsEnabled() {
			state = "no shutdown"
		}

		lines = append(lines, "interface "+u.Name, state, "exit")
	}

	return lines
}
