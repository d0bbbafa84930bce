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
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records statements and replays canned rows.
type fakeQuerier struct {
	execs    []execCall
	execTag  func(sql string) pgconn.CommandTag
	execErr  error
	queries  []execCall
	row      *fakeRow
	rows     *fakeRows
	queryErr error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})

	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}

	if f.execTag != nil {
		return f.execTag(sql), nil
	}

	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, execCall{sql: sql, args: args})

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	if f.rows == nil {
		return &fakeRows{}, nil
	}

	return f.rows, nil
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})

	if f.row == nil {
		return &fakeRow{err: pgx.ErrNoRows}
	}

	return f.row
}

func (f *fakeQuerier) execsMatching(fragment string) []execCall {
	var out []execCall

	for _, e := range f.execs {
		if strings.Contains(e.sql, fragment) {
			out = append(out, e)
		}
	}

	return out
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	scanInto(dest, r.values)

	return nil
}

type fakeRows struct {
	data [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}

	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	scanInto(dest, r.data[r.idx-1])

	return nil
}

func scanInto(dest, values []any) {
	for i := range dest {
		target := reflect.ValueOf(dest[i]).Elem()

		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))

			continue
		}

		target.Set(reflect.ValueOf(values[i]))
	}
}
