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

package models

import "time"

// AgentConfig is the configuration accepted by the controller's Init.
// It is immutable once accepted: a later Init replaces it wholesale.
type AgentConfig struct {
	SecretKey      string `json:"secret_key"`
	APIURL         string `json:"api_url,omitempty"`
	PollIntervalMS int64  `json:"poll_interval_ms,omitempty"`
}

// PollInterval returns the rundata poll interval as a duration.
func (c *AgentConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Clone returns an independent copy of the configuration.
func (c *AgentConfig) Clone() *AgentConfig {
	if c == nil {
		return nil
	}

	cp := *c

	return &cp
}
