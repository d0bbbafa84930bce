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
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/store"
)

func TestWriteResult(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	db := newWithQuerier(q, logger.NewTestLogger())

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	res := models.NewFailedResult("j-1:ping 8.8.8.8", "10.0.0.1", "ping 8.8.8.8", issued, "", models.TextOutput(""), "unreachable")

	require.NoError(t, db.WriteResult(context.Background(), res))
	require.Len(t, q.execs, 1)

	call := q.execs[0]
	assert.Contains(t, call.sql, "ON CONFLICT (attempt_id) DO NOTHING")
	require.Len(t, call.args, 8)
	assert.Equal(t, "j-1:ping 8.8.8.8", call.args[0])
	assert.Equal(t, issued.UTC(), call.args[3])
	assert.JSONEq(t, `""`, string(call.args[5].([]byte)))
	assert.Equal(t, false, call.args[6])
	assert.Equal(t, "unreachable", *(call.args[7].(*string)))
}

func TestWriteResultDuplicateIgnored(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{execTag: func(string) pgconn.CommandTag { return pgconn.NewCommandTag("INSERT 0 0") }}
	db := newWithQuerier(q, logger.NewTestLogger())

	res := models.NewSuccessResult("j-1:show version", "10.0.0.1", "show version", time.Now(), "raw", models.TextOutput("raw"))

	require.NoError(t, db.WriteResult(context.Background(), res))
	require.NoError(t, db.WriteResult(context.Background(), res))
}

func TestWriteResultErrors(t *testing.T) {
	t.Parallel()

	db := newWithQuerier(&fakeQuerier{}, logger.NewTestLogger())
	require.ErrorIs(t, db.WriteResult(context.Background(), nil), store.ErrNilResult)

	failing := newWithQuerier(&fakeQuerier{execErr: errors.New("conn reset")}, logger.NewTestLogger())
	res := models.NewSuccessResult("a", "10.0.0.1", "show version", time.Now(), "", models.TextOutput(""))
	require.ErrorIs(t, failing.WriteResult(context.Background(), res), ErrFailedToInsert)
}

func TestLatestResult(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	q := &fakeQuerier{row: &fakeRow{values: []any{
		"j-2:show ip interface brief",
		"10.0.0.1",
		models.CommandShowInterfaceBrief,
		issued,
		"raw",
		[]byte(`[{"name":"Gi0/0","ip_address":"10.0.0.1","status":"up","proto":"up"}]`),
		true,
		nil,
	}}}
	db := newWithQuerier(q, logger.NewTestLogger())

	res, err := db.LatestResult(context.Background(), "10.0.0.1", models.CommandShowInterfaceBrief, true)
	require.NoError(t, err)

	assert.Equal(t, issued, res.IssuedAt)
	assert.True(t, res.Success)
	assert.Nil(t, res.Error)
	require.True(t, res.Output.Structured())
	assert.Equal(t, "Gi0/0", res.Output.Records[0]["name"])

	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0].sql, "AND success ORDER BY time DESC LIMIT 1")
	assert.Equal(t, []any{"10.0.0.1", models.CommandShowInterfaceBrief}, q.queries[0].args)
}

func TestLatestResultAnyOutcome(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	db := newWithQuerier(q, logger.NewTestLogger())

	_, err := db.LatestResult(context.Background(), "10.0.0.1", "show version", false)
	require.ErrorIs(t, err, store.ErrResultNotFound)
	assert.NotContains(t, q.queries[0].sql, "AND success")
}

func TestLatestResultQueryError(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: &fakeRow{err: errors.New("timeout")}}
	db := newWithQuerier(q, logger.NewTestLogger())

	_, err := db.LatestResult(context.Background(), "10.0.0.1", "show version", true)
	require.ErrorIs(t, err, ErrFailedToQuery)
}

func TestLatestInterfacesWithoutResults(t *testing.T) {
	t.Parallel()

	db := newWithQuerier(&fakeQuerier{}, logger.NewTestLogger())

	records, err := db.LatestInterfaces(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetDevice(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{row: &fakeRow{values: []any{"10.0.0.1", "admin", "secret", "cisco_ios"}}}
	db := newWithQuerier(q, logger.NewTestLogger())

	creds, err := db.GetDevice(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "admin", creds.Username)
	assert.Equal(t, "secret", creds.Password)

	missing := newWithQuerier(&fakeQuerier{}, logger.NewTestLogger())
	_, err = missing.GetDevice(context.Background(), "10.0.0.9")
	require.ErrorIs(t, err, store.ErrDeviceNotFound)

	broken := newWithQuerier(&fakeQuerier{row: &fakeRow{err: pgx.ErrTxClosed}}, logger.NewTestLogger())
	_, err = broken.GetDevice(context.Background(), "10.0.0.1")
	require.ErrorIs(t, err, ErrFailedToQuery)
	require.NotErrorIs(t, err, store.ErrDeviceNotFound)
}

func TestListDevices(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{rows: &fakeRows{data: [][]any{
		{"10.0.0.1", "admin", "a", "router"},
		{"10.0.0.2", "admin", "b", "switch"},
	}}}
	db := newWithQuerier(q, logger.NewTestLogger())

	devices, err := db.ListDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "10.0.0.2", devices[1].IP)
	assert.Contains(t, q.queries[0].sql, "ORDER BY ip")

	empty := newWithQuerier(&fakeQuerier{}, logger.NewTestLogger())
	devices, err = empty.ListDevices(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, devices)
	assert.Empty(t, devices)
}

func TestAddDevice(t *testing.T) {
	t.Parallel()

	q := &fakeQuerier{}
	db := newWithQuerier(q, logger.NewTestLogger())

	require.NoError(t, db.AddDevice(context.Background(), &models.DeviceCredentials{IP: "10.0.0.1", Username: "admin", Password: "x"}))
	require.Len(t, q.execs, 1)
	assert.Equal(t, models.DefaultDeviceType, q.execs[0].args[3])

	dup := newWithQuerier(&fakeQuerier{execTag: func(string) pgconn.CommandTag {
		return pgconn.NewCommandTag("INSERT 0 0")
	}}, logger.NewTestLogger())
	err := dup.AddDevice(context.Background(), &models.DeviceCredentials{IP: "10.0.0.1", Username: "admin"})
	require.ErrorIs(t, err, store.ErrDeviceExists)

	require.ErrorIs(t, db.AddDevice(context.Background(), &models.DeviceCredentials{}), store.ErrInvalidDevice)
}
