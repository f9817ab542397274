/*
 * Copyright 2025 Playit Cloud.
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

package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/playit-cloud/playit-agent-go/pkg/apiclient"
	"github.com/playit-cloud/playit-agent-go/pkg/logger"
	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

const (
	initialFetchBackoff    = 500 * time.Millisecond
	maxFetchBackoff        = 10 * time.Second
	initialFetchMaxElapsed = time.Minute
)

// rundataAPI is the slice of the API client the loop needs.
type rundataAPI interface {
	RunData(ctx context.Context) (*models.AgentRunData, error)
}

// ConnectionLoop is the default connection task: it establishes the
// agent session against the playit API and then polls rundata at the
// configured interval, publishing every transition it observes. Retry
// policy is internal; the controller only sees terminal failures.
type ConnectionLoop struct {
	api      rundataAPI
	interval time.Duration
	session  string
	logger   logger.Logger
	lastCode models.StatusCode
}

// NewConnectionLoopRunner is the default RunnerFactory.
func NewConnectionLoopRunner(cfg *models.AgentConfig, log logger.Logger) Runner {
	return &ConnectionLoop{
		api:      apiclient.NewClient(cfg.APIURL, cfg.SecretKey, log),
		interval: cfg.PollInterval(),
		session:  uuid.NewString(),
		logger:   log,
		lastCode: models.StatusConnecting,
	}
}

// Run blocks until ctx is cancelled or the session fails terminally.
// Cancellation is acknowledged at every poll tick, bounded by the
// configured interval.
func (l *ConnectionLoop) Run(ctx context.Context, publish StatusPublisher) error {
	l.logger.Info().Str("session_id", l.session).Msg("Connection task starting")

	data, err := l.fetchInitialRunData(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, apiclient.ErrCredentialRejected) {
			return apiclient.ErrCredentialRejected
		}

		return fmt.Errorf("failed to load run data: %w", err)
	}

	l.publishRunData(publish, data)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Str("session_id", l.session).Msg("Connection task stopping")
			return nil

		case <-ticker.C:
			data, err := l.api.RunData(ctx)
			switch {
			case err == nil:
				l.publishRunData(publish, data)
			case ctx.Err() != nil:
				l.logger.Info().Str("session_id", l.session).Msg("Connection task stopping")
				return nil
			case errors.Is(err, apiclient.ErrCredentialRejected):
				return apiclient.ErrCredentialRejected
			default:
				l.transition(publish, models.Status{Code: models.StatusDisconnected})
				l.logger.Warn().Err(err).Msg("Run data poll failed, will retry")
			}
		}
	}
}

// fetchInitialRunData retries the first rundata fetch with exponential
// backoff. Credential rejection is permanent; anything else is retried
// until the elapsed budget runs out.
func (l *ConnectionLoop) fetchInitialRunData(ctx context.Context) (*models.AgentRunData, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialFetchBackoff
	bo.MaxInterval = maxFetchBackoff

	operation := func() (*models.AgentRunData, error) {
		data, err := l.api.RunData(ctx)
		if err != nil {
			if errors.Is(err, apiclient.ErrCredentialRejected) {
				return nil, backoff.Permanent(err)
			}

			l.logger.Warn().Err(err).Msg("Initial run data fetch failed, retrying")

			return nil, err
		}

		return data, nil
	}

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxElapsedTime(initialFetchMaxElapsed))
}

// publishRunData maps a rundata response onto a status transition: an
// enabled tunnel means Connected at its address, none means
// Disconnected.
func (l *ConnectionLoop) publishRunData(publish StatusPublisher, data *models.AgentRunData) {
	if addr, ok := data.ActiveTunnelAddress(); ok {
		l.transition(publish, models.Status{Code: models.StatusConnected, LastAddress: addr})
		return
	}

	l.transition(publish, models.Status{Code: models.StatusDisconnected})
}

// transition publishes a status and logs state entries: info for a new
// state, warn when an established tunnel is lost.
func (l *ConnectionLoop) transition(publish StatusPublisher, status models.Status) {
	publish(status)

	if status.Code == l.lastCode {
		return
	}

	event := l.logger.Info()
	if status.Code == models.StatusDisconnected && l.lastCode == models.StatusConnected {
		event = l.logger.Warn()
	}

	event.
		Str("session_id", l.session).
		Str("state", status.Code.String()).
		Str("address", status.LastAddress).
		Msg("Agent state changed")

	l.lastCode = status.Code
}
