// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PopularModels is the static catalog of commonly used gateway models.
// Shown by list-models without touching the network.
var PopularModels = []string{
	"deepseek/deepseek-v3.2-exp",
	"openai/gpt-4-turbo",
	"openai/gpt-4",
	"openai/gpt-3.5-turbo",
	"anthropic/claude-3-opus",
	"anthropic/claude-3-sonnet",
	"anthropic/claude-3-haiku",
	"google/gemini-pro",
	"meta-llama/llama-3-70b",
	"mistralai/mixtral-8x7b",
}

// ModelInfo describes a model advertised by the gateway.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	ContextSize int    `json:"context_length,omitempty"`
}

// modelsResponse is the wire structure for the /models endpoint.
type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}

// ListModels retrieves the live model list from the gateway's /models
// endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	url := c.baseURL + "/models"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var modelsResp modelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}
	return modelsResp.Data, nil
}
