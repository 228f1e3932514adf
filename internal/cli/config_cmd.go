// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command handler for the aigw CLI.
//
// Handles "aigw config" with show / set / path subcommands. Keys use
// dot notation over the config sections, e.g. chat.default_model,
// gateway.base_url. The API key value is never echoed.
//
// Examples:
//   aigw config show
//   aigw config set chat.default_model openai/gpt-4-turbo
//   aigw config set chat.temperature 0.9
//   aigw config path
package cli

import (
	"fmt"

	"github.com/jeranaias/aigw/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "set":
		return handleConfigSet(args)
	case "path":
		return handleConfigPath(args)
	default:
		return fmt.Errorf("unknown config subcommand: %s (expected show, set, or path)", args.Subcommand)
	}
}

func handleConfigShow(args Args) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("config", err).Print()
		}
		return err
	}

	path, err := config.ConfigPathTOML()
	if err != nil {
		path = ""
	}

	if args.JSON {
		return NewJSONResponse("config", ConfigShowData{
			APIKeySet:      cfg.Gateway.APIKey != "",
			BaseURL:        cfg.Gateway.BaseURL,
			MaxRetries:     cfg.Gateway.MaxRetries,
			DefaultModel:   cfg.Chat.DefaultModel,
			SystemPrompt:   cfg.Chat.SystemPrompt,
			Temperature:    cfg.Chat.Temperature,
			MaxTokens:      cfg.Chat.MaxTokens,
			HistoryEnabled: cfg.History.Enabled,
			ConfigPath:     path,
		}).Print()
	}

	keyStatus := WarningStyle.Render("not set")
	if cfg.Gateway.APIKey != "" {
		keyStatus = SuccessStyle.Render("configured")
	}

	fmt.Println(TitleStyle.Render("aigw configuration"))
	fmt.Printf("  %s %s\n", LabelStyle.Render("gateway.api_key:"), keyStatus)
	fmt.Printf("  %s %s\n", LabelStyle.Render("gateway.base_url:"), ValueStyle.Render(cfg.Gateway.BaseURL))
	fmt.Printf("  %s %d\n", LabelStyle.Render("gateway.max_retries:"), cfg.Gateway.MaxRetries)
	fmt.Printf("  %s %s\n", LabelStyle.Render("chat.default_model:"), ValueStyle.Render(cfg.Chat.DefaultModel))
	if cfg.Chat.SystemPrompt != "" {
		fmt.Printf("  %s %s\n", LabelStyle.Render("chat.system_prompt:"), ValueStyle.Render(cfg.Chat.SystemPrompt))
	}
	fmt.Printf("  %s %.2f\n", LabelStyle.Render("chat.temperature:"), cfg.Chat.Temperature)
	fmt.Printf("  %s %d\n", LabelStyle.Render("chat.max_tokens:"), cfg.Chat.MaxTokens)
	fmt.Printf("  %s %t\n", LabelStyle.Render("history.enabled:"), cfg.History.Enabled)
	if path != "" {
		fmt.Printf("  %s %s\n", LabelStyle.Render("config file:"), DimStyle.Render(path))
	}

	return nil
}

func handleConfigSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return fmt.Errorf("usage: aigw config set <key> <value>")
	}

	// Load the file layer only: saving a Load() result would persist
	// values picked up from the environment, leaking the API key into
	// the config file.
	cfg, err := config.LoadFile()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return fmt.Errorf("failed to set %s: %w", args.ConfigKey, err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", args.ConfigKey, err)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Printf("%s %s = %s\n",
		SuccessStyle.Render("[OK]"), args.ConfigKey, args.ConfigVal)

	return nil
}

func handleConfigPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Print()
	}

	fmt.Println(path)
	return nil
}
