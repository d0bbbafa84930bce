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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Commands issued by the pipeline.
const (
	CommandShowVersion        = "show version"
	CommandShowInterfaceBrief = "show ip interface brief"
	CommandShowRunningConfig  = "show running-config"
	CommandPingPrefix         = "ping "
	CommandConfigureIfState   = "configure interface-state"
)

// RefreshCommands is the read-only command set run for a refresh job.
func RefreshCommands() []string {
	return []string{CommandShowVersion, CommandShowInterfaceBrief, CommandShowRunningConfig}
}

// PingCommand returns the device command used to test reachability of target.
func PingCommand(target string) string {
	return CommandPingPrefix + target
}

// InterfaceStateCommand names the configuration step of an interface update
// job, for example "configure interface-state Gi0/1,Gi0/2".
func InterfaceStateCommand(updates []InterfaceUpdate) string {
	names := make([]string, 0, len(updates))
	for _, u := range updates {
		names = append(names, u.Name)
	}

	return CommandConfigureIfState + " " + strings.Join(names, ",")
}

// Record is one structured row of normalized command output.
type Record map[string]interface{}

// CommandOutput holds either cleaned text or structured records. It encodes as
// a bare JSON string or a bare JSON array.
type CommandOutput struct {
	Text    string
	Records []Record
}

// TextOutput wraps cleaned text.
func TextOutput(text string) CommandOutput {
	return CommandOutput{Text: text}
}

// RecordsOutput wraps structured records. A nil slice is stored as empty.
func RecordsOutput(records []Record) CommandOutput {
	if records == nil {
		records = []Record{}
	}

	return CommandOutput{Records: records}
}

// Structured reports whether the output carries records rather than text.
func (o CommandOutput) Structured() bool {
	return o.Records != nil
}

// Value returns the string or record slice, for encoders that take any.
func (o CommandOutput) Value() interface{} {
	if o.Structured() {
		return o.Records
	}

	return o.Text
}

// Empty reports whether there is nothing usable in the output.
func (o CommandOutput) Empty() bool {
	if o.Structured() {
		return len(o.Records) == 0
	}

	return o.Text == ""
}

func (o CommandOutput) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value())
}

func (o *CommandOutput) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)

	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*o = CommandOutput{}
	case trimmed[0] == '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return fmt.Errorf("decode output records: %w", err)
		}

		*o = RecordsOutput(records)
	default:
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("decode output text: %w", err)
		}

		*o = TextOutput(text)
	}

	return nil
}

// CommandResult is the immutable record of one command execution attempt.
type CommandResult struct {
	AttemptID string        `json:"attempt_id"`
	DeviceIP  string        `json:"ip_address"`
	Command   string        `json:"command"`
	IssuedAt  time.Time     `json:"time"`
	RawOutput string        `json:"raw_output"`
	Output    CommandOutput `json:"output"`
	Success   bool          `json:"success"`
	Error     *string       `json:"error"`
}

// AttemptID derives the idempotency key for one command of one job delivery.
func AttemptID(jobID, command string) string {
	return jobID + ":" + command
}

// NewSuccessResult builds a successful result stamped with issuedAt in UTC.
func NewSuccessResult(attemptID, ip, command string, issuedAt time.Time, raw string, out CommandOutput) *CommandResult {
	return &CommandResult{
		AttemptID: attemptID,
		DeviceIP:  ip,
		Command:   command,
		IssuedAt:  issuedAt.UTC(),
		RawOutput: raw,
		Output:    out,
		Success:   true,
	}
}

// NewFailedResult builds a failed result carrying the diagnostic text.
func NewFailedResult(attemptID, ip, command string, issuedAt time.Time, raw string, out CommandOutput, diag string) *CommandResult {
	if diag == "" {
		diag = "command failed"
	}

	return &CommandResult{
		AttemptID: attemptID,
		DeviceIP:  ip,
		Command:   command,
		IssuedAt:  issuedAt.UTC(),
		RawOutput: raw,
		Output:    out,
		Success:   false,
		Error:     &diag,
	}
}

// ErrorText returns the error string or "" when the result succeeded.
func (r *CommandResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}

	return *r.Error
}
