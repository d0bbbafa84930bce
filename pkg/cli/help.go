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
	"fmt"
	"io"
)

// PrintUsage writes the help message to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `devicejobs: queue device jobs and inspect their results
Usage:
  devicejobs enqueue refresh|ping|update [options]
  devicejobs device add|list [options]
  devicejobs results latest|interfaces [options]

Common options:
  -config string      path to devicejobs config file (default "/etc/devicejobs/devicejobs.json")
  -ip string          device management address

Options for enqueue:
  -target string      address to ping from the device (ping)
  -set string         interface states, e.g. Gi0/1=down,Gi0/2=up (update)

Options for device add:
  -username string    login username
  -password string    login password
  -device-type string router, switch or a platform name (default platform "cisco_ios")

Options for results:
  -command string     command whose latest result to show (default "show version")
  -all                include failed attempts

Examples:
  # Collect show version, interfaces and running config
  devicejobs enqueue refresh -ip 10.0.0.1

  # Ping from a router
  devicejobs enqueue ping -ip 10.0.0.1 -target 8.8.8.8

  # Shut one interface and enable another
  devicejobs enqueue update -ip 10.0.0.1 -set Gi0/1=down,Gi0/2=up

  # Register a switch
  devicejobs device add -ip 10.0.0.2 -username admin -password secret -device-type switch

  # Show the newest interface view
  devicejobs results interfaces -ip 10.0.0.1
`)
}
