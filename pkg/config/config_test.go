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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

func TestParseAgentConfigDefaults(t *testing.T) {
	cfg, err := ParseAgentConfig([]byte(`{"secret_key":"abc"}`))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.SecretKey)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, int64(DefaultPollIntervalMS), cfg.PollIntervalMS)
}

func TestParseAgentConfigExplicitFields(t *testing.T) {
	cfg, err := ParseAgentConfig([]byte(`{
		"secret_key": "abc",
		"api_url": "https://api.example.com",
		"poll_interval_ms": 500
	}`))
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Equal(t, int64(500), cfg.PollIntervalMS)
}

func TestParseAgentConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "malformed json",
			input:   `{"secret_key":`,
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "missing secret",
			input:   `{}`,
			wantErr: ErrSecretRequired,
		},
		{
			name:    "whitespace secret",
			input:   `{"secret_key":"   "}`,
			wantErr: ErrSecretRequired,
		},
		{
			name:    "relative api url",
			input:   `{"secret_key":"abc","api_url":"api.playit.gg"}`,
			wantErr: ErrInvalidAPIURL,
		},
		{
			name:    "scheme only api url",
			input:   `{"secret_key":"abc","api_url":"https://"}`,
			wantErr: ErrInvalidAPIURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAgentConfig([]byte(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateTrimsSecret(t *testing.T) {
	cfg := &models.AgentConfig{SecretKey: "  abc  "}
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "abc", cfg.SecretKey)
}

func TestValidatePollIntervalFallback(t *testing.T) {
	for _, interval := range []int64{0, -250} {
		cfg := &models.AgentConfig{SecretKey: "abc", PollIntervalMS: interval}
		require.NoError(t, Validate(cfg))

		assert.Equal(t, int64(DefaultPollIntervalMS), cfg.PollIntervalMS)
	}
}

func TestLoadHostConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	payload := `{
		"agent": {"secret_key": "abc", "poll_interval_ms": 1000},
		"logging": {"level": "debug"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	cfg, err := LoadHostConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Agent.SecretKey)
	assert.Equal(t, int64(1000), cfg.Agent.PollIntervalMS)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadHostConfigMissingFile(t *testing.T) {
	_, err := LoadHostConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestLoadHostConfigInvalidAgent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"agent":{}}`), 0o600))

	_, err := LoadHostConfig(path)
	require.ErrorIs(t, err, ErrSecretRequired)
}
