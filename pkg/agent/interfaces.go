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

	"github.com/playit-cloud/playit-agent-go/pkg/logger"
	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

// StatusPublisher stores a status transition in the controller's status
// cell. Publishes from a superseded task are discarded.
type StatusPublisher func(status models.Status)

// Runner is the background connection task owned by the controller. Run
// blocks until the context is cancelled (clean stop, returns nil) or the
// task fails terminally (returns the failure). All transient recovery is
// internal to the runner.
type Runner interface {
	Run(ctx context.Context, publish StatusPublisher) error
}

// RunnerFactory builds the connection task for an accepted
// configuration. The controller calls it once per Start.
type RunnerFactory func(cfg *models.AgentConfig, log logger.Logger) Runner
