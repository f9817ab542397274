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

// Package logger provides JSON structured logging using zerolog and owns
// the process-wide log sink registry used by embedding hosts.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// DefaultConfig returns the logger configuration used when a host
// provides none.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Output: "stdout",
	}
}

// zerologLogger implements the Logger interface without global state.
type zerologLogger struct {
	logger zerolog.Logger
}

// New creates a logger that writes to the configured console stream and,
// in parallel, to the process-wide sink registry. Events reach a
// registered sink regardless of which host wiring created the logger.
func New(config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var console io.Writer = os.Stdout
	if config.Output == "stderr" {
		console = os.Stderr
	}

	level := zerolog.InfoLevel
	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	zerolog.TimeFieldFormat = timeFormat

	output := zerolog.MultiLevelWriter(console, &SinkWriter{})

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{logger: zlog}, nil
}

// NewSinkLogger creates a logger whose only destination is the sink
// registry. Used by the C boundary, where the host owns all output and
// console writes would be noise.
func NewSinkLogger() Logger {
	zlog := zerolog.New(&SinkWriter{}).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{logger: zlog}
}

// FromZerolog wraps an existing zerolog logger, typically one derived
// via WithComponent.
func FromZerolog(zlog zerolog.Logger) Logger {
	return &zerologLogger{logger: zlog}
}

func (l *zerologLogger) Trace() *zerolog.Event {
	return l.logger.Trace()
}

func (l *zerologLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

func (l *zerologLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *zerologLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *zerologLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *zerologLogger) With() zerolog.Context {
	return l.logger.With()
}

func (l *zerologLogger) WithComponent(component string) zerolog.Logger {
	return l.logger.With().Str("component", component).Logger()
}

func (l *zerologLogger) SetLevel(level zerolog.Level) {
	l.logger = l.logger.Level(level)
}

func (l *zerologLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
	} else {
		l.SetLevel(zerolog.InfoLevel)
	}
}
