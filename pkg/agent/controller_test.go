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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playit-cloud/playit-agent-go/pkg/apiclient"
	"github.com/playit-cloud/playit-agent-go/pkg/config"
	"github.com/playit-cloud/playit-agent-go/pkg/logger"
	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

// fakeRunner runs a caller-supplied function as the connection task.
type fakeRunner struct {
	run func(ctx context.Context, publish StatusPublisher) error
}

func (f *fakeRunner) Run(ctx context.Context, publish StatusPublisher) error {
	return f.run(ctx, publish)
}

var _ Runner = (*fakeRunner)(nil)

// blockingFactory counts Start invocations and hands out runners that
// block until their context is cancelled.
type blockingFactory struct {
	calls   atomic.Int64
	mu      sync.Mutex
	configs []*models.AgentConfig
}

func (f *blockingFactory) factory(cfg *models.AgentConfig, _ logger.Logger) Runner {
	f.calls.Add(1)

	f.mu.Lock()
	f.configs = append(f.configs, cfg)
	f.mu.Unlock()

	return &fakeRunner{run: func(ctx context.Context, _ StatusPublisher) error {
		<-ctx.Done()
		return nil
	}}
}

func (f *blockingFactory) seenConfigs() []*models.AgentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*models.AgentConfig(nil), f.configs...)
}

func validConfig() *models.AgentConfig {
	return &models.AgentConfig{SecretKey: "abc"}
}

func TestInitThenStatusStopped(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(validConfig()))

	status := ctrl.Status()
	assert.Equal(t, models.StatusStopped, status.Code)
	assert.Empty(t, status.LastError)
	assert.Empty(t, status.LastAddress)
}

func TestInitAppliesDefaults(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	configs := factory.seenConfigs()
	require.Len(t, configs, 1)
	assert.Equal(t, config.DefaultAPIURL, configs[0].APIURL)
	assert.Equal(t, int64(config.DefaultPollIntervalMS), configs[0].PollIntervalMS)
}

func TestInitEmptySecretKeepsPriorConfig(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(&models.AgentConfig{SecretKey: "abc", APIURL: "https://first.example.com"}))

	err := ctrl.Init(&models.AgentConfig{SecretKey: "   "})
	require.ErrorIs(t, err, config.ErrSecretRequired)

	// The earlier configuration still drives Start.
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	configs := factory.seenConfigs()
	require.Len(t, configs, 1)
	assert.Equal(t, "https://first.example.com", configs[0].APIURL)
}

func TestInitDoesNotMutateCallerConfig(t *testing.T) {
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory((&blockingFactory{}).factory))

	caller := &models.AgentConfig{SecretKey: "  abc  "}
	require.NoError(t, ctrl.Init(caller))

	assert.Equal(t, "  abc  ", caller.SecretKey)
}

func TestInitWhileRunningRejected(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	err := ctrl.Init(validConfig())
	require.ErrorIs(t, err, ErrAgentRunning)
}

func TestStartBeforeInit(t *testing.T) {
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory((&blockingFactory{}).factory))

	require.ErrorIs(t, ctrl.Start(), ErrNotInitialized)
	assert.Equal(t, models.StatusStopped, ctrl.Status().Code)
}

func TestDoubleStartSingleTask(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	assert.Equal(t, int64(1), factory.calls.Load())
	assert.Equal(t, models.StatusConnecting, ctrl.Status().Code)
}

func TestConcurrentStartSingleTask(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(validConfig()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			assert.NoError(t, ctrl.Start())
		}()
	}

	wg.Wait()
	defer ctrl.Stop()

	assert.Equal(t, int64(1), factory.calls.Load())
}

func TestStopIdempotent(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	// Stop before anything else is a harmless no-op.
	ctrl.Stop()
	assert.Equal(t, models.StatusStopped, ctrl.Status().Code)

	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())

	ctrl.Stop()
	ctrl.Stop()

	status := ctrl.Status()
	assert.Equal(t, models.StatusStopped, status.Code)
	assert.Empty(t, status.LastError)
	assert.False(t, ctrl.Running())
}

func TestStartStopStartReusesConfig(t *testing.T) {
	factory := &blockingFactory{}
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory.factory))

	require.NoError(t, ctrl.Init(&models.AgentConfig{SecretKey: "abc", PollIntervalMS: 750}))

	require.NoError(t, ctrl.Start())
	ctrl.Stop()
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	assert.Equal(t, models.StatusConnecting, ctrl.Status().Code)

	configs := factory.seenConfigs()
	require.Len(t, configs, 2)
	assert.Equal(t, configs[0], configs[1])
	assert.Equal(t, int64(750), configs[1].PollIntervalMS)
}

func TestTaskTransitionsReachStatus(t *testing.T) {
	started := make(chan StatusPublisher, 1)
	factory := func(_ *models.AgentConfig, _ logger.Logger) Runner {
		return &fakeRunner{run: func(ctx context.Context, publish StatusPublisher) error {
			started <- publish
			<-ctx.Done()
			return nil
		}}
	}

	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory))
	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())
	defer ctrl.Stop()

	publish := <-started
	publish(models.Status{Code: models.StatusConnected, LastAddress: "play.example.gg:25565"})

	status := ctrl.Status()
	assert.Equal(t, models.StatusConnected, status.Code)
	assert.Equal(t, "play.example.gg:25565", status.LastAddress)

	// Transient loss keeps the last-known address and carries no error.
	publish(models.Status{Code: models.StatusDisconnected})

	status = ctrl.Status()
	assert.Equal(t, models.StatusDisconnected, status.Code)
	assert.Equal(t, "play.example.gg:25565", status.LastAddress)
	assert.Empty(t, status.LastError)
}

func TestTerminalErrorAutoReleasesHandle(t *testing.T) {
	var calls atomic.Int64

	factory := func(_ *models.AgentConfig, _ logger.Logger) Runner {
		return &fakeRunner{run: func(_ context.Context, _ StatusPublisher) error {
			calls.Add(1)
			return apiclient.ErrCredentialRejected
		}}
	}

	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory))
	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())

	require.Eventually(t, func() bool {
		status := ctrl.Status()
		return status.Code == models.StatusError && !ctrl.Running()
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "credential rejected", ctrl.Status().LastError)

	// The handle was released, so a new Start spawns a fresh task
	// without an explicit Stop.
	require.NoError(t, ctrl.Start())

	require.Eventually(t, func() bool {
		return calls.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestStalePublishIgnoredAfterStop(t *testing.T) {
	started := make(chan StatusPublisher, 1)
	factory := func(_ *models.AgentConfig, _ logger.Logger) Runner {
		return &fakeRunner{run: func(ctx context.Context, publish StatusPublisher) error {
			started <- publish
			<-ctx.Done()
			return nil
		}}
	}

	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory(factory))
	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())

	publish := <-started
	ctrl.Stop()

	// A publish from the superseded task must not disturb the snapshot.
	publish(models.Status{Code: models.StatusConnected, LastAddress: "stale.example.gg:1"})

	status := ctrl.Status()
	assert.Equal(t, models.StatusStopped, status.Code)
	assert.Empty(t, status.LastAddress)
}

func TestStopGraceViolationSurfaced(t *testing.T) {
	release := make(chan struct{})
	factory := func(_ *models.AgentConfig, _ logger.Logger) Runner {
		return &fakeRunner{run: func(_ context.Context, _ StatusPublisher) error {
			// Ignores cancellation until released.
			<-release
			return nil
		}}
	}

	ctrl := NewController(
		logger.NewTestLogger(),
		WithRunnerFactory(factory),
		WithStopGracePeriod(20*time.Millisecond),
	)
	require.NoError(t, ctrl.Init(validConfig()))
	require.NoError(t, ctrl.Start())

	done := make(chan struct{})
	go func() {
		ctrl.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the grace period")
	}

	status := ctrl.Status()
	assert.Equal(t, models.StatusError, status.Code)
	assert.Contains(t, status.LastError, "failed to stop")

	close(release)
}

func TestStatusReturnsIndependentCopy(t *testing.T) {
	ctrl := NewController(logger.NewTestLogger(), WithRunnerFactory((&blockingFactory{}).factory))
	require.NoError(t, ctrl.Init(validConfig()))

	first := ctrl.Status()
	first.Code = models.StatusError
	first.LastError = "mutated by caller"

	assert.Equal(t, models.StatusStopped, ctrl.Status().Code)
	assert.Empty(t, ctrl.Status().LastError)
}
