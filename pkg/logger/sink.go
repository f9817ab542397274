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

package logger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Numeric severity codes delivered to a registered sink. These values are
// part of the embedding ABI.
const (
	LevelTrace int32 = -1
	LevelDebug int32 = 0
	LevelInfo  int32 = 1
	LevelWarn  int32 = 2
	LevelError int32 = 3
)

// Sink receives one formatted log line per emitted event, on the
// goroutine where the event originated.
type Sink func(level int32, message string)

// The registry holds at most one sink. Last registration wins; a nil
// sink unregisters. Replacement is atomic with respect to emitters: an
// emitter sees either the old or the new registration in full.
var (
	sinkMu sync.RWMutex
	sinkFn Sink
)

// SetSink registers the process-wide log sink, replacing any previous
// registration. Pass nil to unregister.
func SetSink(fn Sink) {
	sinkMu.Lock()
	sinkFn = fn
	sinkMu.Unlock()
}

// activeSink snapshots the current registration. The returned sink is
// invoked outside the lock so a sink that logs cannot deadlock the
// registry.
func activeSink() Sink {
	sinkMu.RLock()
	fn := sinkFn
	sinkMu.RUnlock()

	return fn
}

// SinkWriter is a zerolog LevelWriter that forwards each event to the
// registered sink. Events emitted while no sink is registered are
// dropped; delivery is synchronous on the emitting goroutine.
type SinkWriter struct{}

func (w *SinkWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.InfoLevel, p)
}

func (w *SinkWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	fn := activeSink()
	if fn == nil {
		return len(p), nil
	}

	fn(levelCode(level), formatSinkLine(p))

	return len(p), nil
}

func levelCode(level zerolog.Level) int32 {
	switch level {
	case zerolog.TraceLevel:
		return LevelTrace
	case zerolog.DebugLevel:
		return LevelDebug
	case zerolog.InfoLevel, zerolog.NoLevel:
		return LevelInfo
	case zerolog.WarnLevel:
		return LevelWarn
	default:
		return LevelError
	}
}

// formatSinkLine turns one zerolog JSON line into "message k=v ..." text,
// dropping the level and timestamp fields the sink already has or does
// not need. Unparseable input is passed through verbatim.
func formatSinkLine(p []byte) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return strings.TrimRight(string(p), "\n")
	}

	message, _ := fields[zerolog.MessageFieldName].(string)
	delete(fields, zerolog.MessageFieldName)
	delete(fields, zerolog.LevelFieldName)
	delete(fields, zerolog.TimestampFieldName)

	if len(fields) == 0 {
		return message
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}

	if message == "" {
		return strings.Join(parts, " ")
	}

	return message + " " + strings.Join(parts, " ")
}
