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

// StatusCode is the lifecycle discriminant published by the agent.
// The numeric values are part of the embedding ABI and must not change.
type StatusCode int32

const (
	StatusStopped StatusCode = iota
	StatusConnecting
	StatusConnected
	StatusDisconnected
	StatusError
)

func (c StatusCode) String() string {
	switch c {
	case StatusStopped:
		return "stopped"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the agent lifecycle state. It is a value type:
// callers receive independent copies and never hold references into
// controller-internal memory.
//
// LastAddress is set once a tunnel address has been observed for the
// current session. LastError is non-empty only while Code is StatusError.
type Status struct {
	Code        StatusCode `json:"code"`
	LastAddress string     `json:"last_address,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}
