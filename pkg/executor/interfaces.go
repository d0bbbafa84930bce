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
	"context"

	"github.com/carverauto/devicejobs/pkg/models"
)

//go:generate mockgen -destination=mock_executor.go -package=executor github.com/carverauto/devicejobs/pkg/executor Executor

// Executor runs commands against one device. Implementations never return an
// error or panic to the caller: failures are reported per command in
// Result.Err, and any session or temporary file is released before returning.
type Executor interface {
	// Run issues read-only commands in order and returns one Result per command.
	Run(ctx context.Context, creds *models.DeviceCredentials, commands []string) []Result
	// ApplyInterfaceState applies administrative state changes as one
	// configuration step.
	ApplyInterfaceState(ctx context.Context, creds *models.DeviceCredentials, updates []models.InterfaceUpdate) Result
}
