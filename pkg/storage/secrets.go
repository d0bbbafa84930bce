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

package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// PasswordFileEnv names a mounted secret holding the CNPG password.
const PasswordFileEnv = "CNPG_PASSWORD_FILE"

var ErrPasswordFileEmpty = errors.New("CNPG password file is empty")

// ApplyPasswordFile fills an empty CNPG password from the file named by
// CNPG_PASSWORD_FILE. A configured password or an unset variable is left alone.
func ApplyPasswordFile(cfg *Config) error {
	if cfg == nil || cfg.CNPG == nil || cfg.CNPG.Password != "" {
		return nil
	}

	path := os.Getenv(PasswordFileEnv)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CNPG password file: %w", err)
	}

	pwd := strings.TrimSpace(string(data))
	if pwd == "" {
		return fmt.Errorf("%w: %s", ErrPasswordFileEmpty, path)
	}

	cfg.CNPG.Password = pwd

	return nil
}
