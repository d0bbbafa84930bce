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

// Package producer enqueues device jobs on the broker. Publishing is a core
// NATS publish: a call returns once the payload is handed to the connection,
// without waiting for a broker acknowledgement. The job stream is declared on
// every new connection so jobs published before any worker has started are
// retained.
package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/natsutil"
)

// conn is the part of *nats.Conn the producer needs.
type conn interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
	Close()
}

type dialFunc func() (conn, error)

// topologyFunc opens the stream management API on a connection.
type topologyFunc func(c conn) (natsutil.Topology, error)

var errNotJetStreamConn = errors.New("connection does not support JetStream")

// Producer publishes jobs, dialing lazily whenever the connection is missing
// or no longer connected.
type Producer struct {
	cfg      *natsutil.Config
	dial     dialFunc
	topology topologyFunc
	logger   logger.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.Mutex
	conn     conn
	declared bool
}

// New builds a producer. No connection is made until the first enqueue.
func New(cfg *natsutil.Config, log logger.Logger) *Producer {
	cfg.ApplyDefaults()

	return newProducer(cfg, log, func() (conn, error) {
		return natsutil.Connect(cfg, "devicejobs-producer", log)
	})
}

// NewWithConn reuses an existing connection, redialing if it drops.
func NewWithConn(cfg *natsutil.Config, nc *nats.Conn, log logger.Logger) *Producer {
	p := New(cfg, log)
	if nc != nil {
		p.conn = nc
	}

	return p
}

func newProducer(cfg *natsutil.Config, log logger.Logger, dial dialFunc) *Producer {
	return &Producer{
		cfg:  cfg,
		dial: dial,
		topology: func(c conn) (natsutil.Topology, error) {
			nc, ok := c.(*nats.Conn)
			if !ok {
				return nil, errNotJetStreamConn
			}

			return natsutil.NewJetStream(nc, cfg.Domain)
		},
		logger: log,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// EnqueueRefresh queues a read-only refresh of one device.
func (p *Producer) EnqueueRefresh(ctx context.Context, ip string) (string, error) {
	return p.publish(ctx, &models.Job{JobType: models.JobTypeRefresh, IP: ip})
}

// EnqueuePing queues a reachability test from the device to target.
func (p *Producer) EnqueuePing(ctx context.Context, ip, target string) (string, error) {
	return p.publish(ctx, &models.Job{JobType: models.JobTypePing, IP: ip, TargetIP: target})
}

// EnqueueInterfaceUpdate queues administrative state changes for interfaces.
func (p *Producer) EnqueueInterfaceUpdate(ctx context.Context, ip string, updates []models.InterfaceUpdate) (string, error) {
	return p.publish(ctx, &models.Job{JobType: models.JobTypeUpdateInterfaceState, IP: ip, Updates: updates})
}

// publish validates the job, stamps its id and enqueue time, and hands it to
// the connection. Two identical calls publish two jobs.
func (p *Producer) publish(ctx context.Context, job *models.Job) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := p.now().UTC()
	job.JobID = p.newID()
	job.EnqueuedAt = &now

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}

	nc, err := p.connection(ctx)
	if err != nil {
		return "", err
	}

	subject := p.cfg.Subject(job.JobType)

	if err := nc.Publish(subject, payload); err != nil {
		return "", fmt.Errorf("%w: publish %s: %w", natsutil.ErrBrokerUnavailable, subject, err)
	}

	p.logger.Debug().
		Str("job_id", job.JobID).
		Str("job_type", string(job.JobType)).
		Str("ip", job.IP).
		Str("subject", subject).
		Msg("job enqueued")

	return job.JobID, nil
}

// connection returns a live connection, dialing when needed, and makes sure
// the job stream exists before the first publish on it.
func (p *Producer) connection(ctx context.Context) (conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsConnected() {
		p.conn.Close()
		p.conn = nil
	}

	if p.conn == nil {
		nc, err := p.dial()
		if err != nil {
			p.logger.Warn().Err(err).Msg("producer could not reach broker")

			if errors.Is(err, natsutil.ErrBrokerUnavailable) {
				return nil, err
			}

			return nil, fmt.Errorf("%w: %w", natsutil.ErrBrokerUnavailable, err)
		}

		p.conn = nc
		p.declared = false
	}

	if !p.declared {
		if err := p.declareStream(ctx); err != nil {
			p.logger.Warn().Err(err).Str("stream", p.cfg.StreamName).Msg("producer could not declare job stream")

			return nil, fmt.Errorf("%w: %w", natsutil.ErrBrokerUnavailable, err)
		}

		p.declared = true
	}

	return p.conn, nil
}

func (p *Producer) declareStream(ctx context.Context) error {
	js, err := p.topology(p.conn)
	if err != nil {
		return err
	}

	return natsutil.EnsureStream(ctx, js, p.cfg)
}

// Close drops the connection if one is open.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.declared = false
	}
}
