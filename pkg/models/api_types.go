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

// AgentRunData is the agents/rundata response payload. It describes the
// account's tunnels as the API currently sees them.
type AgentRunData struct {
	AgentID       string        `json:"agent_id"`
	AgentType     string        `json:"agent_type,omitempty"`
	AccountStatus string        `json:"account_status,omitempty"`
	Tunnels       []AgentTunnel `json:"tunnels"`
}

// AgentTunnel is a single tunnel entry from rundata. A tunnel with a
// non-nil DisabledReason is not serving traffic.
type AgentTunnel struct {
	ID             string  `json:"id"`
	Name           string  `json:"name,omitempty"`
	Proto          string  `json:"proto,omitempty"`
	Port           uint16  `json:"port,omitempty"`
	LocalIP        string  `json:"local_ip,omitempty"`
	LocalPort      uint16  `json:"local_port,omitempty"`
	DisplayAddress string  `json:"display_address"`
	DisabledReason *string `json:"disabled_reason,omitempty"`
}

// ActiveTunnelAddress returns the display address of the first enabled
// tunnel, if any.
func (d *AgentRunData) ActiveTunnelAddress() (string, bool) {
	for i := range d.Tunnels {
		t := &d.Tunnels[i]
		if t.DisabledReason == nil && t.DisplayAddress != "" {
			return t.DisplayAddress, true
		}
	}

	return "", false
}
