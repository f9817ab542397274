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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/playit-cloud/playit-agent-go/pkg/agent"
	"github.com/playit-cloud/playit-agent-go/pkg/config"
	"github.com/playit-cloud/playit-agent-go/pkg/lifecycle"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/playit/agent.json", "Path to agent config file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.LoadHostConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	agentLogger, err := lifecycle.CreateComponentLogger("agent", cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctrl := agent.NewController(agentLogger)
	if err := ctrl.Init(&cfg.Agent); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	return lifecycle.Run(ctx, ctrl, agentLogger)
}
