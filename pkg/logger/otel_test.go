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

package logger

import (
	"context"
	"strings"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTelConfig(t *testing.T) {
	config := DefaultOTelConfig()

	assert.NotEmpty(t, config.ServiceName)
	assert.Equal(t, Duration(5*time.Second), config.BatchTimeout)
}

func TestOTelWriter_Disabled(t *testing.T) {
	writer, err := NewOTelWriter(context.Background(), OTelConfig{Enabled: false})

	require.ErrorIs(t, err, ErrOTelLoggingDisabled)
	assert.Nil(t, writer)
}

func TestOTelWriter_NoEndpoint(t *testing.T) {
	writer, err := NewOTelWriter(context.Background(), OTelConfig{Enabled: true})

	require.ErrorIs(t, err, ErrOTelEndpointRequired)
	assert.Nil(t, writer)
}

func TestInitializeMetricsDisabled(t *testing.T) {
	provider, err := InitializeMetrics(context.Background(), MetricsConfig{})

	require.ErrorIs(t, err, ErrOTelMetricsDisabled)
	assert.Nil(t, provider)
}

func TestMapZerologLevelToOTel(t *testing.T) {
	tests := map[string]otellog.Severity{
		"trace":   otellog.SeverityTrace,
		"debug":   otellog.SeverityDebug,
		"info":    otellog.SeverityInfo,
		"WARN":    otellog.SeverityWarn,
		"warning": otellog.SeverityWarn,
		"error":   otellog.SeverityError,
		"fatal":   otellog.SeverityFatal,
		"panic":   otellog.SeverityFatal,
		"other":   otellog.SeverityInfo,
	}

	for level, want := range tests {
		assert.Equal(t, want, mapZerologLevelToOTel(level), level)
	}
}

func TestBuildRecord(t *testing.T) {
	line := `{"level":"error","time":"2025-03-01T12:00:00Z","message":"job failed","component":"worker","job_id":"j-1","attempt":2}`

	record, scope, ok := buildRecord([]byte(line))
	require.True(t, ok)

	assert.Equal(t, "worker", scope)
	assert.Equal(t, otellog.SeverityError, record.Severity())
	assert.Equal(t, "job failed", record.Body().AsString())
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), record.Timestamp().UTC())

	attrs := map[string]string{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})

	assert.Equal(t, map[string]string{"job_id": "j-1", "attempt": "2"}, attrs)
}

func TestBuildRecordRejectsGarbage(t *testing.T) {
	_, _, ok := buildRecord([]byte("not json"))
	assert.False(t, ok)

	_, scope, ok := buildRecord([]byte(`{"message":"m"}`))
	require.True(t, ok)
	assert.Equal(t, defaultLoggerScope, scope)
}

func TestTruncateString(t *testing.T) {
	long := strings.Repeat("é", maxAttributeValueLength)

	out := truncateString(long, maxAttributeValueLength)
	assert.LessOrEqual(t, len(out), maxAttributeValueLength)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Equal(t, "short", truncateString("short", maxAttributeValueLength))
}
