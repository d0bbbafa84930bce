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
	"errors"
)

var (
	ErrUnknownSubcommand = errors.New("unknown subcommand")
	ErrUnknownAction     = errors.New("unknown action")

	errMissingAction   = errors.New("an action is required")
	errMissingIP       = errors.New("-ip is required")
	errMissingTarget   = errors.New("-target is required for ping")
	errMissingUpdates  = errors.New("-set is required for update")
	errInvalidUpdate   = errors.New("invalid interface state, expected name=up or name=down")
	errMissingUsername = errors.New("-username is required")
)
