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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicejobs/pkg/db"
	"github.com/carverauto/devicejobs/pkg/executor"
	"github.com/carverauto/devicejobs/pkg/natsutil"
	"github.com/carverauto/devicejobs/pkg/storage"
)

func TestConfigUnmarshalAppliesDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config

	require.NoError(t, json.Unmarshal([]byte(`{
		"nats": {
			"nats_url": "tls://nats:4222",
			"security": {"mode": "mtls", "cert_dir": "/etc/devicejobs/certs", "tls": {"cert_file": "worker.pem", "key_file": "worker-key.pem", "ca_file": "root.pem"}}
		},
		"executor": {"strategy": "session", "command_timeout": "45s"},
		"store": {"backend": "cnpg", "cnpg": {"host": "cnpg-rw", "database": "devicejobs"}}
	}`), &cfg))

	assert.Equal(t, AckImmediate, cfg.AckMode)
	assert.Equal(t, natsutil.DefaultStreamName, cfg.NATS.StreamName)
	assert.Equal(t, natsutil.DefaultConsumerName, cfg.NATS.ConsumerName)
	assert.Equal(t, natsutil.DefaultConnectAttempts, cfg.NATS.ConnectAttempts)
	assert.Equal(t, executor.StrategySession, cfg.Executor.Strategy)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.Executor.CommandTimeout))
	assert.Equal(t, "/etc/devicejobs/certs/worker.pem", cfg.NATS.Security.TLS.CertFile)
	assert.Equal(t, "/etc/devicejobs/certs/root.pem", cfg.NATS.Security.TLS.CAFile)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := &Config{
			NATS:  natsutil.Config{URL: "nats://nats:4222"},
			Store: storage.Config{CNPG: &db.CNPGDatabase{Host: "cnpg-rw", Database: "devicejobs"}},
		}
		cfg.ApplyDefaults()

		return cfg
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.AckMode = "sometimes"
	require.ErrorIs(t, cfg.Validate(), ErrInvalidAckMode)

	cfg = valid()
	cfg.AckMode = AckAfterPersist
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.NATS.URL = ""
	cfg.Store.Backend = "sqlite"
	err := cfg.Validate()
	require.ErrorIs(t, err, natsutil.ErrMissingNATSURL)
	require.ErrorIs(t, err, storage.ErrUnknownBackend)

	cfg = valid()
	cfg.Executor.Strategy = "telnet"
	require.ErrorIs(t, cfg.Validate(), executor.ErrUnknownStrategy)
}
