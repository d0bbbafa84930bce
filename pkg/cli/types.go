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

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/natsutil"
	"github.com/carverauto/devicejobs/pkg/storage"
)

// CmdConfig holds the parsed subcommand, action and flags.
type CmdConfig struct {
	SubCmd     string
	Action     string
	ConfigFile string
	Help       bool
	IP         string
	TargetIP   string
	Updates    []models.InterfaceUpdate
	Username   string
	Password   string
	DeviceType string
	Command    string
	All        bool
	Args       []string
}

// Config is the devicejobs CLI configuration file: the broker for enqueue
// and the store for device and results.
type Config struct {
	NATS    natsutil.Config `json:"nats"`
	Store   storage.Config  `json:"store"`
	Logging *logger.Config  `json:"logging"`
}

// ApplyDefaults fills broker defaults.
func (c *Config) ApplyDefaults() {
	c.NATS.ApplyDefaults()
}

// outputStyles defines styles for rendered output
type outputStyles struct {
	heading, success, failure, muted lipgloss.Style
}
