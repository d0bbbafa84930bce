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

// Package natsutil holds the broker plumbing shared by the producer, worker
// and scheduler: configuration, bounded connect retry and the JetStream
// topology the job queue lives on.
package natsutil

import (
	"errors"
	"time"

	"github.com/carverauto/devicejobs/pkg/models"
)

const (
	DefaultStreamName      = "jobs"
	DefaultSubjectPrefix   = "jobs"
	DefaultConsumerName    = "router_jobs"
	DefaultConnectAttempts = 10
	DefaultConnectBackoff  = 5 * time.Second
	DefaultAckWait         = 30 * time.Second
	DefaultMaxDeliver      = 5

	// DefaultMaxAckPending caps unacknowledged jobs across all workers bound
	// to the durable consumer. Each worker fetches one job at a time.
	DefaultMaxAckPending = 64
)

var (
	ErrMissingNATSURL       = errors.New("nats_url is required")
	ErrInvalidAttempts      = errors.New("connect_attempts must be positive")
	ErrInvalidMaxDeliver    = errors.New("max_deliver must be -1 or positive")
	ErrInvalidMaxAckPending = errors.New("max_ack_pending must be -1 or positive")
	errMissingStreamName    = errors.New("stream_name is required")
	errMissingConsumerName  = errors.New("consumer_name is required")
)

// Config describes the broker endpoint and the job queue topology.
type Config struct {
	URL             string                 `json:"nats_url"`
	Domain          string                 `json:"domain"`
	StreamName      string                 `json:"stream_name"`
	SubjectPrefix   string                 `json:"subject_prefix"`
	ConsumerName    string                 `json:"consumer_name"`
	ConnectAttempts int                    `json:"connect_attempts"`
	ConnectBackoff  models.Duration        `json:"connect_backoff"`
	AckWait         models.Duration        `json:"ack_wait"`
	MaxDeliver      int                    `json:"max_deliver"`
	MaxAckPending   int                    `json:"max_ack_pending"`
	Security        *models.SecurityConfig `json:"security"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}

	if c.SubjectPrefix == "" {
		c.SubjectPrefix = DefaultSubjectPrefix
	}

	if c.ConsumerName == "" {
		c.ConsumerName = DefaultConsumerName
	}

	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = DefaultConnectAttempts
	}

	if c.ConnectBackoff <= 0 {
		c.ConnectBackoff = models.Duration(DefaultConnectBackoff)
	}

	if c.AckWait <= 0 {
		c.AckWait = models.Duration(DefaultAckWait)
	}

	if c.MaxDeliver == 0 {
		c.MaxDeliver = DefaultMaxDeliver
	}

	if c.MaxAckPending == 0 {
		c.MaxAckPending = DefaultMaxAckPending
	}
}

// Validate checks the configuration for required fields.
func (c *Config) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, ErrMissingNATSURL)
	}

	if c.StreamName == "" {
		errs = append(errs, errMissingStreamName)
	}

	if c.ConsumerName == "" {
		errs = append(errs, errMissingConsumerName)
	}

	if c.ConnectAttempts < 1 {
		errs = append(errs, ErrInvalidAttempts)
	}

	if c.MaxDeliver < -1 || c.MaxDeliver == 0 {
		errs = append(errs, ErrInvalidMaxDeliver)
	}

	if c.MaxAckPending < -1 || c.MaxAckPending == 0 {
		errs = append(errs, ErrInvalidMaxAckPending)
	}

	return errors.Join(errs...)
}

// Subject returns the routing subject for a job type.
func (c *Config) Subject(t models.JobType) string {
	return models.SubjectFor(c.SubjectPrefix, t)
}

// Subjects lists the subjects of every routed job type.
func (c *Config) Subjects() []string {
	types := models.JobTypes()
	subjects := make([]string, 0, len(types))

	for _, t := range types {
		subjects = append(subjects, c.Subject(t))
	}

	return subjects
}
