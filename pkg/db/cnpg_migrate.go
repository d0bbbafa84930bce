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

package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/carverauto/devicejobs/pkg/logger"
)

const cnpgMigrationsTable = "cnpg_schema_migrations"

//go:embed cnpg/migrations/*.sql
var cnpgMigrationsFS embed.FS

// RunCNPGMigrations applies every embedded .up.sql file not yet recorded in
// the tracking table, in file name order.
func RunCNPGMigrations(ctx context.Context, q querier, log logger.Logger) error {
	if q == nil {
		return nil
	}

	if _, err := q.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, cnpgMigrationsTable)); err != nil {
		return fmt.Errorf("cnpg migrations: create tracking table: %w", err)
	}

	applied, err := appliedVersions(ctx, q)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(cnpgMigrationsFS, "cnpg/migrations")
	if err != nil {
		return fmt.Errorf("cnpg migrations: read embedded migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	for _, name := range filenames {
		version := extractVersion(name)
		if _, ok := applied[version]; ok {
			continue
		}

		log.Info().Str("migration", name).Msg("applying CNPG migration")

		content, err := cnpgMigrationsFS.ReadFile("cnpg/migrations/" + name)
		if err != nil {
			return fmt.Errorf("cnpg migrations: read %s: %w", name, err)
		}

		for idx, stmt := range splitSQLStatements(string(content)) {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("cnpg migrations: statement %d in %s failed: %w", idx+1, name, err)
			}
		}

		if _, err := q.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, cnpgMigrationsTable), version); err != nil {
			return fmt.Errorf("cnpg migrations: record %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("CNPG migration complete")
	}

	return nil
}

func appliedVersions(ctx context.Context, q querier) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, cnpgMigrationsTable))
	if err != nil {
		return nil, fmt.Errorf("cnpg migrations: list applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("cnpg migrations: scan applied version: %w", err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cnpg migrations: iterate applied versions: %w", err)
	}

	return applied, nil
}

// splitSQLStatements splits on semicolons outside quotes, dropping "--"
// comments and empty statements.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
		inComment  bool
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}

		current.Reset()
	}

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case inComment:
			if ch == '\n' {
				inComment = false

				current.WriteByte(ch)
			}
		case !inQuote && ch == '-' && i+1 < len(content) && content[i+1] == '-':
			inComment = true
			i++
		case ch == '\'':
			inQuote = !inQuote

			current.WriteByte(ch)
		case ch == ';' && !inQuote:
			flush()
		default:
			current.WriteByte(ch)
		}
	}

	flush()

	return statements
}

func extractVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")

	return version
}
