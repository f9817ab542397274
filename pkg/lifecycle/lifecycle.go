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

// Package lifecycle wires logging and signal handling for host binaries
// that embed the agent controller.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playit-cloud/playit-agent-go/pkg/agent"
	"github.com/playit-cloud/playit-agent-go/pkg/logger"
)

// statusLogInterval is how often Run reports the agent status snapshot.
const statusLogInterval = 30 * time.Second

// CreateComponentLogger creates a logger tagged with a component field.
func CreateComponentLogger(component string, config *logger.Config) (logger.Logger, error) {
	base, err := logger.New(config)
	if err != nil {
		return nil, err
	}

	zlog := base.WithComponent(component)

	return logger.FromZerolog(zlog), nil
}

// Run starts the controller and blocks until the context is cancelled or
// a termination signal arrives, then stops the agent cleanly. While
// running it periodically logs the status snapshot.
func Run(ctx context.Context, ctrl *agent.Controller, log logger.Logger) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctrl.Start(); err != nil {
		return err
	}

	ticker := time.NewTicker(statusLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sigCtx.Done():
			log.Info().Msg("Shutdown signal received, stopping agent")
			ctrl.Stop()

			return nil

		case <-ticker.C:
			status := ctrl.Status()
			log.Debug().
				Str("state", status.Code.String()).
				Str("address", status.LastAddress).
				Str("last_error", status.LastError).
				Msg("Agent status")
		}
	}
}
