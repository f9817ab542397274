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

// Package config parses and validates agent configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

const (
	// DefaultAPIURL is the playit API endpoint used when the
	// configuration does not name one.
	DefaultAPIURL = "https://api.playit.gg"

	// DefaultPollIntervalMS is the rundata poll interval applied when
	// the configuration omits one or supplies a non-positive value.
	DefaultPollIntervalMS = 3000
)

var (
	ErrInvalidJSON    = errors.New("agent config is not valid JSON")
	ErrSecretRequired = errors.New("secret_key is required")
	ErrInvalidAPIURL  = errors.New("api_url must be a well-formed absolute URL")
)

// ParseAgentConfig unmarshals and validates an agent configuration
// document, applying defaults for the optional fields.
func ParseAgentConfig(data []byte) (*models.AgentConfig, error) {
	var cfg models.AgentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate normalizes cfg in place and reports the first violation.
// The secret is trimmed before the emptiness check; the endpoint, when
// present, must parse as an absolute URL; a missing or non-positive
// poll interval falls back to the default rather than failing.
func Validate(cfg *models.AgentConfig) error {
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	if cfg.SecretKey == "" {
		return ErrSecretRequired
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	parsed, err := url.Parse(cfg.APIURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, cfg.APIURL)
	}

	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = DefaultPollIntervalMS
	}

	return nil
}
