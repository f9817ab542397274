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

// Package agent owns the lifecycle of a single embedded playit agent:
// configuration, the background connection task, and the status
// snapshot exposed to hosts.
package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playit-cloud/playit-agent-go/pkg/config"
	"github.com/playit-cloud/playit-agent-go/pkg/logger"
	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

var (
	// ErrNotInitialized indicates Start was called before a successful Init.
	ErrNotInitialized = errors.New("agent not initialized")
	// ErrAgentRunning indicates Init was called while the connection task is live.
	ErrAgentRunning = errors.New("agent must be stopped before init")
)

// defaultStopGracePeriod bounds how long Stop waits for the connection
// task to acknowledge cancellation before declaring a fatal internal
// error.
const defaultStopGracePeriod = 5 * time.Second

// connHandle is the controller's sole reference to the live background
// task. Its existence is the single source of truth for "started".
type connHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	epoch  uint64
}

// Controller serializes Init/Start/Stop/Status against concurrent
// callers. All methods are safe to call from any goroutine in any
// order; none of them panics.
type Controller struct {
	mu      sync.Mutex
	cfg     *models.AgentConfig
	handle  *connHandle
	factory RunnerFactory
	grace   time.Duration
	logger  logger.Logger
	status  statusCell
}

// Option customizes controller construction.
type Option func(*Controller)

// WithRunnerFactory replaces the default connection-loop factory.
func WithRunnerFactory(factory RunnerFactory) Option {
	return func(c *Controller) {
		c.factory = factory
	}
}

// WithStopGracePeriod overrides how long Stop waits for the task to
// unwind.
func WithStopGracePeriod(grace time.Duration) Option {
	return func(c *Controller) {
		c.grace = grace
	}
}

// NewController creates a stopped, uninitialized controller.
func NewController(log logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		factory: NewConnectionLoopRunner,
		grace:   defaultStopGracePeriod,
		logger:  log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Init validates and stores the configuration and resets status to
// Stopped. It fails with ErrAgentRunning while the connection task is
// live; configuration errors leave any previously accepted
// configuration untouched.
func (c *Controller) Init(cfg *models.AgentConfig) error {
	if cfg == nil {
		return config.ErrSecretRequired
	}

	candidate := cfg.Clone()
	if err := config.Validate(candidate); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return ErrAgentRunning
	}

	c.cfg = candidate
	c.status.set(models.Status{Code: models.StatusStopped})

	c.logger.Info().
		Str("api_url", candidate.APIURL).
		Int64("poll_interval_ms", candidate.PollIntervalMS).
		Msg("Agent configuration accepted")

	return nil
}

// Start spawns the connection task. It returns ErrNotInitialized when no
// configuration has been accepted and succeeds as a no-op when the task
// is already live. It does not wait for the task to reach Connected.
func (c *Controller) Start() error {
	c.mu.Lock()

	if c.handle != nil {
		c.mu.Unlock()
		c.logger.Debug().Msg("Start ignored, agent already running")

		return nil
	}

	if c.cfg == nil {
		c.mu.Unlock()
		return ErrNotInitialized
	}

	epoch := c.status.set(models.Status{Code: models.StatusConnecting})

	ctx, cancel := context.WithCancel(context.Background())
	handle := &connHandle{
		cancel: cancel,
		done:   make(chan struct{}),
		epoch:  epoch,
	}
	c.handle = handle

	runner := c.factory(c.cfg, c.logger)
	c.mu.Unlock()

	c.logger.Info().Msg("Agent starting")

	go c.runTask(ctx, handle, runner)

	return nil
}

// runTask drives the connection task to completion and releases the
// handle. A terminal failure is published as Error; the released handle
// means a later Start may spawn a fresh task without an explicit Stop.
func (c *Controller) runTask(ctx context.Context, handle *connHandle, runner Runner) {
	defer close(handle.done)

	publish := func(status models.Status) {
		c.status.publish(handle.epoch, status)
	}

	err := runner.Run(ctx, publish)

	c.mu.Lock()
	if c.handle == handle {
		c.handle = nil
	}
	c.mu.Unlock()

	if err != nil && ctx.Err() == nil {
		c.logger.Error().Err(err).Msg("Connection task failed")
		c.status.publish(handle.epoch, models.Status{
			Code:      models.StatusError,
			LastError: err.Error(),
		})
	}
}

// Stop cancels the connection task, waits for it to unwind, and resets
// status to Stopped. It never fails and is idempotent. If the task does
// not acknowledge cancellation within the grace period the violation is
// surfaced as a distinguished Error status rather than silently
// swallowed.
func (c *Controller) Stop() {
	c.mu.Lock()
	handle := c.handle
	c.handle = nil

	if handle == nil {
		// Already stopped (or terminally failed and auto-released).
		c.status.set(models.Status{Code: models.StatusStopped})
		c.mu.Unlock()

		return
	}
	c.mu.Unlock()

	handle.cancel()

	select {
	case <-handle.done:
		c.setFinalStatus(models.Status{Code: models.StatusStopped})
		c.logger.Info().Msg("Agent stopped")
	case <-time.After(c.grace):
		c.logger.Error().
			Dur("grace", c.grace).
			Msg("Connection task did not acknowledge cancellation within grace period")
		c.setFinalStatus(models.Status{
			Code:      models.StatusError,
			LastError: "connection task failed to stop within grace period",
		})
	}
}

// setFinalStatus records the outcome of a Stop unless a concurrent Start
// has already installed a fresh task; in that case the newer task owns
// the status cell.
func (c *Controller) setFinalStatus(status models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		c.status.set(status)
	}
}

// Status returns an independent copy of the current status. It never
// blocks on network I/O.
func (c *Controller) Status() models.Status {
	return c.status.snapshot()
}

// Running reports whether a connection task is currently live.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.handle != nil
}
