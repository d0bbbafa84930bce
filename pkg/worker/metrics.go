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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	workerMeterName = "devicejobs.worker"

	metricJobsReceivedName     = "devicejobs_worker_jobs_received"
	metricJobsDroppedName      = "devicejobs_worker_jobs_dropped"
	metricResultsPersistedName = "devicejobs_worker_results_persisted"
)

// jobMetrics counts jobs and results. A nil *jobMetrics records nothing.
type jobMetrics struct {
	received  metric.Int64Counter
	dropped   metric.Int64Counter
	persisted metric.Int64Counter
}

func newJobMetrics(meter metric.Meter) *jobMetrics {
	if meter == nil {
		meter = otel.Meter(workerMeterName)
	}

	m := &jobMetrics{}

	var err error

	m.received, err = meter.Int64Counter(
		metricJobsReceivedName,
		metric.WithDescription("Jobs delivered to the worker, by job type"),
	)
	if err != nil {
		otel.Handle(err)
		return nil
	}

	m.dropped, err = meter.Int64Counter(
		metricJobsDroppedName,
		metric.WithDescription("Jobs dropped before dispatch because the payload was malformed"),
	)
	if err != nil {
		otel.Handle(err)
		return nil
	}

	m.persisted, err = meter.Int64Counter(
		metricResultsPersistedName,
		metric.WithDescription("Command results written to the result store, by outcome"),
	)
	if err != nil {
		otel.Handle(err)
		return nil
	}

	return m
}

func (m *jobMetrics) jobReceived(ctx context.Context, jobType string) {
	if m == nil {
		return
	}

	m.received.Add(ctx, 1, metric.WithAttributes(attribute.String("job_type", jobType)))
}

func (m *jobMetrics) jobDropped(ctx context.Context) {
	if m == nil {
		return
	}

	m.dropped.Add(ctx, 1)
}

func (m *jobMetrics) resultPersisted(ctx context.Context, success bool) {
	if m == nil {
		return
	}

	m.persisted.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
