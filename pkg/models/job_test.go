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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		wantErr bool
		check   func(t *testing.T, job *Job)
	}{
		{
			name:    "ping",
			payload: `{"job_type":"ping","ip":"10.0.0.1","target_ip":"8.8.8.8"}`,
			check: func(t *testing.T, job *Job) {
				t.Helper()
				assert.Equal(t, JobTypePing, job.JobType)
				assert.Equal(t, "8.8.8.8", job.TargetIP)
			},
		},
		{
			name:    "refresh",
			payload: `{"job_type":"refresh","ip":"10.0.0.1"}`,
		},
		{
			name:    "interface update",
			payload: `{"job_type":"update_interface_state","ip":"10.0.0.1","updates":[{"name":"Gi0/1","enabled":false}]}`,
			check: func(t *testing.T, job *Job) {
				t.Helper()
				require.Len(t, job.Updates, 1)
				assert.False(t, job.Updates[0].IsEnabled())
				assert.NotNil(t, job.Updates[0].Enabled)
			},
		},
		{name: "empty payload", payload: ``, wantErr: true},
		{name: "not json", payload: `job please`, wantErr: true},
		{name: "unknown type", payload: `{"job_type":"reboot","ip":"10.0.0.1"}`, wantErr: true},
		{name: "missing ip", payload: `{"job_type":"refresh"}`, wantErr: true},
		{name: "ping without target", payload: `{"job_type":"ping","ip":"10.0.0.1"}`, wantErr: true},
		{name: "update without updates", payload: `{"job_type":"update_interface_state","ip":"10.0.0.1"}`, wantErr: true},
		{
			name:    "update without enabled",
			payload: `{"job_type":"update_interface_state","ip":"10.0.0.1","updates":[{"name":"Gi0/1"}]}`,
			wantErr: true,
		},
		{
			name:    "update without name",
			payload: `{"job_type":"update_interface_state","ip":"10.0.0.1","updates":[{"enabled":true}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			job, err := DecodeJob([]byte(tt.payload))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedJob)
				assert.Nil(t, job)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, job)
			}
		})
	}
}

func TestJobSubject(t *testing.T) {
	t.Parallel()

	job := Job{JobType: JobTypeUpdateInterfaceState}

	assert.Equal(t, "jobs.update_interface_state", job.Subject("jobs"))
	assert.Equal(t, "update_interface_state", job.Subject(""))
}

func TestJobWireFormat(t *testing.T) {
	t.Parallel()

	job := Job{
		JobType: JobTypeUpdateInterfaceState,
		IP:      "10.0.0.1",
		Updates: []InterfaceUpdate{NewInterfaceUpdate("Gi0/1", true)},
	}

	data, err := json.Marshal(job)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"job_type":"update_interface_state","ip":"10.0.0.1","updates":[{"name":"Gi0/1","enabled":true}]}`,
		string(data))
}

func TestCommandOutputJSON(t *testing.T) {
	t.Parallel()

	text, err := json.Marshal(TextOutput("hostname R1"))
	require.NoError(t, err)
	assert.JSONEq(t, `"hostname R1"`, string(text))

	rows, err := json.Marshal(RecordsOutput([]Record{{"name": "Gi0/1"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Gi0/1"}]`, string(rows))

	var decoded CommandOutput
	require.NoError(t, json.Unmarshal(rows, &decoded))
	assert.True(t, decoded.Structured())
	assert.Equal(t, "Gi0/1", decoded.Records[0]["name"])

	require.NoError(t, json.Unmarshal(text, &decoded))
	assert.False(t, decoded.Structured())
	assert.Equal(t, "hostname R1", decoded.Text)
}

func TestCommandResultDocument(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	res := NewFailedResult("job:ping 8.8.8.8", "10.0.0.1", "ping 8.8.8.8", issued, "", TextOutput(""), "")

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "2025-03-01T11:00:00Z", doc["time"])
	assert.Equal(t, false, doc["success"])
	assert.Equal(t, "command failed", doc["error"])
	assert.Equal(t, "10.0.0.1", doc["ip_address"])

	ok := NewSuccessResult("a", "10.0.0.1", "show version", issued, "raw", TextOutput("raw"))
	data, err = json.Marshal(ok)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Nil(t, doc["error"])
}

func TestGroupDevices(t *testing.T) {
	t.Parallel()

	groups := GroupDevices([]DeviceCredentials{
		{IP: "10.0.0.1", DeviceType: "router"},
		{IP: "10.0.0.2", DeviceType: "Switch"},
		{IP: "10.0.0.3", DeviceType: "cisco_ios"},
	})

	require.Len(t, groups.Routers, 1)
	require.Len(t, groups.Switches, 1)
	require.Len(t, groups.Others, 1)
	assert.Equal(t, "10.0.0.3", groups.Others[0].IP)
}

func TestInterfaceRecordsFromOutput(t *testing.T) {
	t.Parallel()

	out := RecordsOutput([]Record{
		InterfaceRow{Name: "Gi0/0", IPAddress: "10.0.0.1", Status: "up", Proto: "up"}.Record(),
		InterfaceRow{Name: "Gi0/1", IPAddress: "unassigned", Status: "administratively down", Proto: "down"}.Record(),
	})

	records := InterfaceRecordsFromOutput(out)
	require.Len(t, records, 2)
	assert.True(t, records[0].Enabled)
	assert.False(t, records[1].Enabled)
	assert.Equal(t, "", records[0].VRF)

	assert.Empty(t, InterfaceRecordsFromOutput(TextOutput("no rows")))
}

func TestCredentialsStringHidesPassword(t *testing.T) {
	t.Parallel()

	c := DeviceCredentials{IP: "10.0.0.1", Username: "admin", Password: "s3cret"}

	assert.NotContains(t, c.String(), "s3cret")
	assert.Equal(t, DefaultDeviceType, c.Platform())
}
