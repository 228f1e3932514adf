// json_output.go - JSON output support for aigw commands.
//
// Every command that accepts --json emits exactly one well-formed
// document on stdout; human-readable chatter goes to stderr.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package cli

import (
	"encoding/json"
	"os"
	"time"

	"github.com/jeranaias/aigw/internal/gateway"
)

// JSONResponse is the standardized response format for all commands.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Error:     nil,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Data:      nil,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Print outputs the JSON response to stdout.
func (r *JSONResponse) Print() error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// ChatData represents the data returned by the chat command. Content
// is byte-identical to what text mode prints for the same response.
// Usage is omitted for streamed responses, matching text mode where no
// usage summary is available mid-stream.
type ChatData struct {
	Model        string         `json:"model"`
	Content      string         `json:"content"`
	Usage        *gateway.Usage `json:"usage,omitempty"`
	FinishReason string         `json:"finish_reason,omitempty"`
	Stream       bool           `json:"stream,omitempty"`
	DurationMs   int64          `json:"duration_ms,omitempty"`
}

// ModelsData represents the data returned by the list-models command.
type ModelsData struct {
	Models []gateway.ModelInfo `json:"models"`
	Source string              `json:"source"` // "catalog" or "remote"
}

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// ConfigShowData represents the data returned by config show.
// The API key is never echoed, only whether one is configured.
type ConfigShowData struct {
	APIKeySet      bool    `json:"api_key_configured"`
	BaseURL        string  `json:"base_url"`
	MaxRetries     int     `json:"max_retries"`
	DefaultModel   string  `json:"default_model"`
	SystemPrompt   string  `json:"system_prompt,omitempty"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	HistoryEnabled bool    `json:"history_enabled"`
	ConfigPath     string  `json:"config_path"`
}

// HistoryData represents the data returned by history show.
type HistoryData struct {
	Exchanges []HistoryEntry `json:"exchanges"`
	Total     int            `json:"total"`
}

// HistoryEntry is one recorded exchange in history output.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	TotalTokens  int       `json:"total_tokens"`
	FinishReason string    `json:"finish_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryClearData represents the data returned by history clear.
type HistoryClearData struct {
	Deleted int64 `json:"deleted"`
}
