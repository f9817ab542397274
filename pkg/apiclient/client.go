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

// Package apiclient talks to the playit API over HTTPS.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/playit-cloud/playit-agent-go/pkg/logger"
	"github.com/playit-cloud/playit-agent-go/pkg/models"
)

var (
	// ErrCredentialRejected indicates the API refused the agent secret.
	// This failure is terminal: retrying with the same secret cannot
	// succeed.
	ErrCredentialRejected = errors.New("credential rejected")
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxErrorBodyBytes     = 4 << 10

	rundataPath = "/agents/rundata"
)

// APIError is a non-auth API failure carrying the HTTP status and a
// bounded slice of the response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed with status %d: %s", e.Status, e.Body)
}

// Client is an HTTP client for the playit API. Safe for concurrent use.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates an API client for the given endpoint and agent
// secret.
func NewClient(baseURL, secret string, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     secret,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     log,
	}
}

// RunData fetches the agent's current run data: account status and the
// tunnel set with their public addresses.
func (c *Client) RunData(ctx context.Context) (*models.AgentRunData, error) {
	var data models.AgentRunData
	if err := c.post(ctx, rundataPath, struct{}{}, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "agent-key "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.Error().Int("status", resp.StatusCode).Str("path", path).Msg("API rejected agent credentials")
		return ErrCredentialRejected
	default:
		trimmed, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(trimmed))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}

	return nil
}
