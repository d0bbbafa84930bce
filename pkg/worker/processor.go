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

package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/devicejobs/pkg/executor"
	"github.com/carverauto/devicejobs/pkg/logger"
	"github.com/carverauto/devicejobs/pkg/models"
	"github.com/carverauto/devicejobs/pkg/normalizer"
	"github.com/carverauto/devicejobs/pkg/store"
)

var (
	// ErrJobPanicked is returned when processing a job panicked.
	ErrJobPanicked = errors.New("job processing panicked")
	// ErrPersistResult is returned when a command result could not be stored.
	ErrPersistResult = errors.New("failed to persist command result")

	errUnreachable    = errors.New("unreachable")
	errNoSuccessRate  = errors.New("ping output has no success rate")
	errDeviceLookup   = errors.New("device lookup failed")
	errMissingCommand = errors.New("executor returned no result")
)

// Processor turns one job payload into persisted command results.
type Processor struct {
	exec      executor.Executor
	inventory store.Inventory
	results   store.ResultWriter
	metrics   *jobMetrics
	logger    logger.Logger
	now       func() time.Time
	newID     func() string
}

// NewProcessor builds a processor that records metrics on the global meter provider.
func NewProcessor(exec executor.Executor, inventory store.Inventory, results store.ResultWriter, log logger.Logger) *Processor {
	return &Processor{
		exec:      exec,
		inventory: inventory,
		results:   results,
		metrics:   newJobMetrics(nil),
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Process decodes data, runs the job against its device and stores one result
// per executed command. Malformed payloads return an error wrapping
// models.ErrMalformedJob and have no side effects. A panic is recovered and
// returned as ErrJobPanicked. Device failures are stored as failed results and
// are not errors; only persistence failures are.
func (p *Processor) Process(ctx context.Context, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while processing job")

			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()

	job, err := models.DecodeJob(data)
	if err != nil {
		p.metrics.jobDropped(ctx)
		p.logger.Warn().Err(err).Int("payload_bytes", len(data)).Msg("Dropping malformed job")

		return err
	}

	if job.JobID == "" {
		job.JobID = p.newID()
	}

	p.metrics.jobReceived(ctx, string(job.JobType))

	p.logger.Info().
		Str("job_id", job.JobID).
		Str("job_type", string(job.JobType)).
		Str("ip", job.IP).
		Msg("Processing job")

	results := p.execute(ctx, job)

	return p.persist(ctx, job, results)
}

// plannedCommands lists the commands a job produces results for, in order.
func plannedCommands(job *models.Job) []string {
	switch job.JobType {
	case models.JobTypeRefresh:
		return models.RefreshCommands()
	case models.JobTypeUpdateInterfaceState:
		return []string{models.InterfaceStateCommand(job.Updates), models.CommandShowInterfaceBrief}
	case models.JobTypePing:
		return []string{models.PingCommand(job.TargetIP)}
	default:
		return nil
	}
}

func (p *Processor) execute(ctx context.Context, job *models.Job) []*models.CommandResult {
	creds, err := p.inventory.GetDevice(ctx, job.IP)
	if err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.JobID).Str("ip", job.IP).Msg("Device lookup failed")

		return p.lookupFailure(job, err)
	}

	switch job.JobType {
	case models.JobTypeRefresh:
		return p.refresh(ctx, job, creds)
	case models.JobTypeUpdateInterfaceState:
		return p.updateInterfaceState(ctx, job, creds)
	case models.JobTypePing:
		return []*models.CommandResult{p.ping(ctx, job, creds)}
	default:
		return nil
	}
}

func (p *Processor) lookupFailure(job *models.Job, cause error) []*models.CommandResult {
	issued := p.now()
	diag := fmt.Errorf("%w for %s: %w", errDeviceLookup, job.IP, cause).Error()

	commands := plannedCommands(job)
	results := make([]*models.CommandResult, 0, len(commands))

	for _, cmd := range commands {
		results = append(results, models.NewFailedResult(
			models.AttemptID(job.JobID, cmd), job.IP, cmd, issued, "", models.TextOutput(""), diag))
	}

	return results
}

func (p *Processor) refresh(ctx context.Context, job *models.Job, creds *models.DeviceCredentials) []*models.CommandResult {
	return p.run(ctx, job, creds, models.RefreshCommands())
}

func (p *Processor) updateInterfaceState(
	ctx context.Context, job *models.Job, creds *models.DeviceCredentials) []*models.CommandResult {
	issued := p.now()
	applied := p.exec.ApplyInterfaceState(ctx, creds, job.Updates)
	applied.Command = models.InterfaceStateCommand(job.Updates)

	results := []*models.CommandResult{p.toResult(job, issued, applied)}

	return append(results, p.run(ctx, job, creds, []string{models.CommandShowInterfaceBrief})...)
}

func (p *Processor) ping(ctx context.Context, job *models.Job, creds *models.DeviceCredentials) *models.CommandResult {
	cmd := models.PingCommand(job.TargetIP)
	issued := p.now()
	res := p.runOne(ctx, creds, cmd)

	if res.OK() {
		rate, ok := normalizer.PingSuccessRate(res.Output)

		switch {
		case !ok:
			res.Err = fmt.Errorf("target %s: %w", job.TargetIP, errNoSuccessRate)
		case rate == 0:
			res.Err = fmt.Errorf("target %s %w: success rate 0 percent", job.TargetIP, errUnreachable)
		}
	}

	return p.toResult(job, issued, res)
}

func (p *Processor) run(
	ctx context.Context, job *models.Job, creds *models.DeviceCredentials, commands []string) []*models.CommandResult {
	outs := p.exec.Run(ctx, creds, commands)

	results := make([]*models.CommandResult, 0, len(commands))

	for i, cmd := range commands {
		res := executor.Result{Command: cmd, Err: errMissingCommand}
		if i < len(outs) {
			res = outs[i]
			res.Command = cmd
		}

		issued := res.Started
		if issued.IsZero() {
			issued = p.now()
		}

		results = append(results, p.toResult(job, issued, res))
	}

	return results
}

func (p *Processor) runOne(ctx context.Context, creds *models.DeviceCredentials, cmd string) executor.Result {
	outs := p.exec.Run(ctx, creds, []string{cmd})
	if len(outs) == 0 {
		return executor.Result{Command: cmd, Err: errMissingCommand}
	}

	res := outs[0]
	res.Command = cmd

	return res
}

func (*Processor) toResult(job *models.Job, issued time.Time, res executor.Result) *models.CommandResult {
	attempt := models.AttemptID(job.JobID, res.Command)

	if !res.OK() {
		return models.NewFailedResult(attempt, job.IP, res.Command, issued, res.Output,
			models.TextOutput(strings.TrimSpace(res.Output)), res.Err.Error())
	}

	return models.NewSuccessResult(attempt, job.IP, res.Command, issued, res.Output,
		normalizer.Normalize(res.Command, res.Output))
}

func (p *Processor) persist(ctx context.Context, job *models.Job, results []*models.CommandResult) error {
	var errs []error

	for _, res := range results {
		if err := p.results.WriteResult(ctx, res); err != nil {
			p.logger.Error().
				Err(err).
				Str("job_id", job.JobID).
				Str("attempt_id", res.AttemptID).
				Msg("Failed to persist command result")

			errs = append(errs, fmt.Errorf("%w %s: %w", ErrPersistResult, res.AttemptID, err))

			continue
		}

		p.metrics.resultPersisted(ctx, res.Success)

		if !res.Success {
			p.logger.Warn().
				Str("job_id", job.JobID).
				Str("ip", res.DeviceIP).
				Str("command", res.Command).
				Str("error", res.ErrorText()).
				Msg("Command failed")
		}
	}

	return errors.Join(errs...)
}
