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
	"sync"

	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

// statusCell holds the authoritative status snapshot. Writes from the
// background task carry the epoch they were started under; a publish
// whose epoch has been superseded is discarded, so readers observe a
// prefix-consistent sequence from the single active task.
type statusCell struct {
	mu     sync.RWMutex
	epoch  uint64
	status models.Status
}

// snapshot returns an independent copy of the current status.
func (s *statusCell) snapshot() models.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// set is the controller-owned write path: it replaces the snapshot
// wholesale, supersedes all outstanding task epochs, and returns the new
// epoch.
func (s *statusCell) set(status models.Status) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.status = status

	return s.epoch
}

// publish is the task-owned write path. The write is dropped if epoch is
// no longer current. The session's last-known address survives
// transitions that do not supply one, so a Disconnected or Error
// snapshot still reports where the tunnel last lived. last_error never
// carries forward: any non-Error transition clears it.
func (s *statusCell) publish(epoch uint64, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return
	}

	if status.LastAddress == "" {
		status.LastAddress = s.status.LastAddress
	}

	s.status = status
}
