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
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType identifies the action a worker performs for a job. It doubles as the
// routing key the job is published under.
type JobType string

const (
	JobTypeRefresh              JobType = "refresh"
	JobTypeUpdateInterfaceState JobType = "update_interface_state"
	JobTypePing                 JobType = "ping"
)

var (
	ErrMalformedJob      = errors.New("malformed job")
	errUnknownJobType    = errors.New("unknown job_type")
	errMissingIP         = errors.New("ip is required")
	errMissingUpdates    = errors.New("updates are required for update_interface_state")
	errMissingIfaceName  = errors.New("interface update is missing name")
	errMissingIfaceState = errors.New("interface update is missing enabled")
	errMissingTargetIP   = errors.New("target_ip is required for ping")
)

// JobTypes returns every job type the pipeline routes.
func JobTypes() []JobType {
	return []JobType{JobTypeRefresh, JobTypeUpdateInterfaceState, JobTypePing}
}

// Valid reports whether t is a routed job type.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeRefresh, JobTypeUpdateInterfaceState, JobTypePing:
		return true
	default:
		return false
	}
}

// InterfaceUpdate is a requested administrative state change for one interface.
// Enabled is a pointer so a missing field can be told apart from false.
type InterfaceUpdate struct {
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

// NewInterfaceUpdate builds an update with the enabled flag set.
func NewInterfaceUpdate(name string, enabled bool) InterfaceUpdate {
	return InterfaceUpdate{Name: name, Enabled: &enabled}
}

// IsEnabled returns the requested state; a nil flag reads as disabled.
func (u InterfaceUpdate) IsEnabled() bool {
	return u.Enabled != nil && *u.Enabled
}

// Job is the broker payload describing one unit of device work.
type Job struct {
	JobID      string            `json:"job_id,omitempty"`
	JobType    JobType           `json:"job_type"`
	IP         string            `json:"ip"`
	Updates    []InterfaceUpdate `json:"updates,omitempty"`
	TargetIP   string            `json:"target_ip,omitempty"`
	EnqueuedAt *time.Time        `json:"enqueued_at,omitempty"`
}

// Validate checks the fields required by the job's type.
func (j *Job) Validate() error {
	if !j.JobType.Valid() {
		return fmt.Errorf("%w: %w %q", ErrMalformedJob, errUnknownJobType, j.JobType)
	}

	if strings.TrimSpace(j.IP) == "" {
		return fmt.Errorf("%w: %w", ErrMalformedJob, errMissingIP)
	}

	switch j.JobType {
	case JobTypeUpdateInterfaceState:
		if len(j.Updates) == 0 {
			return fmt.Errorf("%w: %w", ErrMalformedJob, errMissingUpdates)
		}

		for i, u := range j.Updates {
			if strings.TrimSpace(u.Name) == "" {
				return fmt.Errorf("%w: updates[%d]: %w", ErrMalformedJob, i, errMissingIfaceName)
			}

			if u.Enabled == nil {
				return fmt.Errorf("%w: updates[%d]: %w", ErrMalformedJob, i, errMissingIfaceState)
			}
		}
	case JobTypePing:
		if strings.TrimSpace(j.TargetIP) == "" {
			return fmt.Errorf("%w: %w", ErrMalformedJob, errMissingTargetIP)
		}
	case JobTypeRefresh:
	}

	return nil
}

// Subject returns the broker subject for the job under the given prefix.
func (j *Job) Subject(prefix string) string {
	return SubjectFor(prefix, j.JobType)
}

// SubjectFor joins a subject prefix and a job type routing key.
func SubjectFor(prefix string, t JobType) string {
	if prefix == "" {
		return string(t)
	}

	return prefix + "." + string(t)
}

// DecodeJob unmarshals and validates a broker payload. Any failure wraps
// ErrMalformedJob.
func DecodeJob(data []byte) (*Job, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedJob)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedJob, err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}
