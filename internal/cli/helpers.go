// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared wiring for aigw commands: settings resolution,
// gateway client construction, and the exchange log.
//
// Settings precedence is flag > environment > config file > default.
// The environment and file layers are applied by config.Load; the flag
// layer is applied here.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/aigw/internal/chat"
	"github.com/jeranaias/aigw/internal/config"
	"github.com/jeranaias/aigw/internal/gateway"
	"github.com/jeranaias/aigw/internal/history"

	"github.com/google/uuid"
)

// resolveConfig loads the configuration and applies command-line
// overrides on top of it.
func resolveConfig(args Args) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if args.APIKey != "" {
		cfg.Gateway.APIKey = args.APIKey
	}
	if args.BaseURL != "" {
		cfg.Gateway.BaseURL = args.BaseURL
	}
	if args.Model != "" {
		cfg.Chat.DefaultModel = args.Model
	}
	if args.System != "" {
		cfg.Chat.SystemPrompt = args.System
	}
	if args.Temperature >= 0 {
		cfg.Chat.Temperature = args.Temperature
	}
	if args.MaxTokens > 0 {
		cfg.Chat.MaxTokens = args.MaxTokens
	}

	return cfg, nil
}

// newGatewayClient builds a gateway client from resolved settings.
// Fails before any network activity when no API key is available.
func newGatewayClient(cfg *config.Config) (*gateway.Client, error) {
	if cfg.Gateway.APIKey == "" {
		return nil, ErrMissingAPIKey()
	}

	client := gateway.NewClient(cfg.Gateway.APIKey)
	if cfg.Gateway.BaseURL != "" {
		client = client.WithBaseURL(cfg.Gateway.BaseURL)
	}
	if cfg.Gateway.MaxRetries > 0 {
		client = client.WithMaxRetries(cfg.Gateway.MaxRetries)
	}

	return client, nil
}

// sessionOptions maps resolved settings to session request parameters.
func sessionOptions(cfg *config.Config) chat.Options {
	return chat.Options{
		Model:       cfg.Chat.DefaultModel,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}
}

// openHistory opens the exchange log when history is enabled.
// Returns (nil, nil) when disabled; a broken store degrades to a
// warning rather than failing the chat itself.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, err
	}

	return history.Open(path)
}

// recordExchange appends a completed exchange to the store, if any.
// Only successful exchanges reach this point.
func recordExchange(ctx context.Context, store *history.Store, sessionID string, ex *chat.Exchange) {
	if store == nil || ex == nil {
		return
	}

	_, err := store.Append(ctx, &history.Exchange{
		SessionID:        sessionID,
		Model:            ex.Model,
		Prompt:           ex.Prompt,
		Response:         ex.Response,
		PromptTokens:     ex.Usage.PromptTokens,
		CompletionTokens: ex.Usage.CompletionTokens,
		TotalTokens:      ex.Usage.TotalTokens,
		FinishReason:     ex.FinishReason,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to record exchange: %v\n",
			WarningStyle.Render("Warning:"), err)
	}
}

// newSessionID generates an identifier shared by all exchanges of one
// CLI invocation.
func newSessionID() string {
	return uuid.NewString()
}
