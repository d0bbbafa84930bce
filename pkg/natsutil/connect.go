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

package natsutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/devicejobs/pkg/logger"
)

// ErrBrokerUnavailable is returned when no broker connection can be made.
var ErrBrokerUnavailable = errors.New("broker unavailable")

// Options builds the connection options: client name, mTLS when configured
// and logging connection handlers.
func Options(cfg *Config, name string, log logger.Logger) ([]nats.Option, error) {
	opts := []nats.Option{nats.Name(name)}

	if cfg.Security != nil && cfg.Security.Mode != "" && cfg.Security.Mode != "none" {
		tlsConf, err := TLSConfig(cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts,
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)

	return opts, nil
}

// Connect dials the broker once.
func Connect(cfg *Config, name string, log logger.Logger) (*nats.Conn, error) {
	opts, err := Options(cfg, name, log)
	if err != nil {
		return nil, err
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}

	return nc, nil
}

// ConnectWithRetry dials up to cfg.ConnectAttempts times with a fixed pause
// of cfg.ConnectBackoff between attempts. Exhaustion wraps ErrBrokerUnavailable.
func ConnectWithRetry(ctx context.Context, cfg *Config, name string, log logger.Logger) (*nats.Conn, error) {
	return Retry(ctx, cfg.ConnectAttempts, cfg.ConnectBackoff.Or(DefaultConnectBackoff), log, func() (*nats.Conn, error) {
		return Connect(cfg, name, log)
	})
}

// Retry runs op until it succeeds, attempts are used up or ctx ends.
func Retry[T any](ctx context.Context, attempts int, pause time.Duration, log logger.Logger, op func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++

		return op()
	}

	notify := func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("retry_in", next).
			Msg("broker connection failed")
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(pause)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		if errors.Is(err, ErrBrokerUnavailable) {
			return result, err
		}

		return result, fmt.Errorf("%w: %w", ErrBrokerUnavailable, err)
	}

	return result, nil
}

// NewJetStream opens a JetStream context, scoped to the domain when set.
func NewJetStream(nc *nats.Conn, domain string) (jetstream.JetStream, error) {
	if domain != "" {
		js, err := jetstream.NewWithDomain(nc, domain)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", domain, err)
		}

		return js, nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return js, nil
}
