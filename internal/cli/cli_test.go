// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution.
//
// This test file covers argument parsing and command dispatch for the
// user-facing commands: chat, interactive, list-models, config, history.
package cli

import (
	"encoding/json"
	"strings"
	"testing"
)

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"show", "--limit", "5"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "5" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "5")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"show", "--model=openai/gpt-4"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model") != "openai/gpt-4" {
					t.Errorf("Flag(model) = %q, want %q", p.Flag("model"), "openai/gpt-4")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"show", "--json"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("json") {
					t.Error("BoolFlag(json) should be true")
				}
			},
		},
		{
			name:    "explicit boolean value",
			args:    []string{"show", "--stream=false"},
			wantSub: "show",
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("stream") {
					t.Error("BoolFlag(stream) should be false")
				}
			},
		},
		{
			name:    "multiple positional args",
			args:    []string{"tell", "me", "a", "story"},
			wantSub: "tell",
			validate: func(t *testing.T, p *ArgParser) {
				if p.PositionalCount() != 4 {
					t.Errorf("PositionalCount() = %d, want 4", p.PositionalCount())
				}
				joined := strings.Join(p.PositionalFrom(0), " ")
				if joined != "tell me a story" {
					t.Errorf("PositionalFrom(0) joined = %q, want %q", joined, "tell me a story")
				}
			},
		},
		{
			name:    "mixed flags and positional",
			args:    []string{"--model", "openai/gpt-4-turbo", "Hello", "world"},
			wantSub: "Hello",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model") != "openai/gpt-4-turbo" {
					t.Errorf("Flag(model) = %q, want %q", p.Flag("model"), "openai/gpt-4-turbo")
				}
				if p.Positional(1) != "world" {
					t.Errorf("Positional(1) = %q, want %q", p.Positional(1), "world")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			if parser.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", parser.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, parser)
			}
		})
	}
}

func TestArgParser_FlagIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		flagName   string
		defaultVal int
		want       int
	}{
		{
			name:       "flag present",
			args:       []string{"chat", "--max-tokens", "256"},
			flagName:   "max-tokens",
			defaultVal: 0,
			want:       256,
		},
		{
			name:       "flag missing uses default",
			args:       []string{"chat"},
			flagName:   "max-tokens",
			defaultVal: 0,
			want:       0,
		},
		{
			name:       "invalid int uses default",
			args:       []string{"chat", "--max-tokens", "abc"},
			flagName:   "max-tokens",
			defaultVal: 7,
			want:       7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewArgParser(tt.args)
			got := parser.FlagIntOrDefault(tt.flagName, tt.defaultVal)
			if got != tt.want {
				t.Errorf("FlagIntOrDefault(%q, %d) = %d, want %d", tt.flagName, tt.defaultVal, got, tt.want)
			}
		})
	}
}

func TestArgParser_FlagFloatOrDefault(t *testing.T) {
	parser := NewArgParser([]string{"chat", "--temperature", "0.9"})
	if got := parser.FlagFloatOrDefault("temperature", 0.7); got != 0.9 {
		t.Errorf("FlagFloatOrDefault(temperature) = %v, want 0.9", got)
	}
	if got := parser.FlagFloatOrDefault("missing", 0.7); got != 0.7 {
		t.Errorf("FlagFloatOrDefault(missing) = %v, want 0.7", got)
	}

	bad := NewArgParser([]string{"chat", "--temperature", "hot"})
	if got := bad.FlagFloatOrDefault("temperature", 0.7); got != 0.7 {
		t.Errorf("FlagFloatOrDefault(invalid) = %v, want 0.7", got)
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	parser := NewArgParser([]string{"chat", "--stream", "--limit", "5"})

	if !parser.HasFlag("stream") {
		t.Error("HasFlag(stream) should be true")
	}
	if !parser.HasFlag("limit") {
		t.Error("HasFlag(limit) should be true")
	}
	if parser.HasFlag("nonexistent") {
		t.Error("HasFlag(nonexistent) should be false")
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	parser := NewArgParser([]string{})
	if parser.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", parser.Subcommand())
	}
	if parser.PositionalCount() != 0 {
		t.Errorf("PositionalCount() = %d, want 0", parser.PositionalCount())
	}
}

// =============================================================================
// PARSE BOOL STRING TESTS
// =============================================================================

func TestParseBoolString(t *testing.T) {
	trueValues := []string{"true", "TRUE", "yes", "y", "1", "on"}
	falseValues := []string{"false", "FALSE", "no", "n", "0", "off"}

	for _, v := range trueValues {
		t.Run("true_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if !got {
				t.Errorf("ParseBoolString(%q) = false, want true", v)
			}
		})
	}

	for _, v := range falseValues {
		t.Run("false_"+v, func(t *testing.T) {
			got, err := ParseBoolString(v)
			if err != nil {
				t.Errorf("ParseBoolString(%q) error = %v", v, err)
			}
			if got {
				t.Errorf("ParseBoolString(%q) = true, want false", v)
			}
		})
	}

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseBoolString("maybe")
		if err == nil {
			t.Error("ParseBoolString(maybe) should error")
		}
	})
}

// =============================================================================
// COMMAND DISPATCH TESTS (Parse)
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name        string
		argv        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{
			name:        "chat with prompt",
			argv:        []string{"chat", "What", "is", "Go?"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Prompt != "What is Go?" {
					t.Errorf("Prompt = %q, want %q", a.Prompt, "What is Go?")
				}
			},
		},
		{
			name:        "chat with model flag",
			argv:        []string{"chat", "--model", "openai/gpt-4-turbo", "Hello"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Model != "openai/gpt-4-turbo" {
					t.Errorf("Model = %q, want %q", a.Model, "openai/gpt-4-turbo")
				}
				if a.Prompt != "Hello" {
					t.Errorf("Prompt = %q, want %q", a.Prompt, "Hello")
				}
			},
		},
		{
			name:        "chat with stream and temperature",
			argv:        []string{"chat", "--stream", "--temperature", "0.2", "Hi"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if !a.Stream {
					t.Error("Stream should be true")
				}
				if a.Temperature != 0.2 {
					t.Errorf("Temperature = %v, want 0.2", a.Temperature)
				}
			},
		},
		{
			name:        "chat temperature defaults to unset",
			argv:        []string{"chat", "Hi"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Temperature != -1 {
					t.Errorf("Temperature = %v, want -1 (unset)", a.Temperature)
				}
			},
		},
		{
			name:        "chat with max tokens and json",
			argv:        []string{"chat", "--max-tokens", "128", "--json", "Hi"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.MaxTokens != 128 {
					t.Errorf("MaxTokens = %d, want 128", a.MaxTokens)
				}
				if !a.JSON {
					t.Error("JSON should be true")
				}
			},
		},
		{
			name:        "global api key and base url",
			argv:        []string{"--api-key", "sk-test", "--base-url", "https://example.com/v1", "chat", "Hi"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.APIKey != "sk-test" {
					t.Errorf("APIKey = %q, want %q", a.APIKey, "sk-test")
				}
				if a.BaseURL != "https://example.com/v1" {
					t.Errorf("BaseURL = %q, want %q", a.BaseURL, "https://example.com/v1")
				}
			},
		},
		{
			name:        "interactive",
			argv:        []string{"interactive"},
			wantCommand: CmdInteractive,
		},
		{
			name:        "interactive with system prompt",
			argv:        []string{"interactive", "--system", "Be brief"},
			wantCommand: CmdInteractive,
			validate: func(t *testing.T, a Args) {
				if a.System != "Be brief" {
					t.Errorf("System = %q, want %q", a.System, "Be brief")
				}
			},
		},
		{
			name:        "list-models",
			argv:        []string{"list-models"},
			wantCommand: CmdListModels,
		},
		{
			name:        "list-models remote",
			argv:        []string{"list-models", "--remote"},
			wantCommand: CmdListModels,
			validate: func(t *testing.T, a Args) {
				if !a.Remote {
					t.Error("Remote should be true")
				}
			},
		},
		{
			name:        "config set",
			argv:        []string{"config", "set", "chat.default_model", "openai/gpt-4"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "set" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "set")
				}
				if a.ConfigKey != "chat.default_model" {
					t.Errorf("ConfigKey = %q, want %q", a.ConfigKey, "chat.default_model")
				}
				if a.ConfigVal != "openai/gpt-4" {
					t.Errorf("ConfigVal = %q, want %q", a.ConfigVal, "openai/gpt-4")
				}
			},
		},
		{
			name:        "history clear with confirm",
			argv:        []string{"history", "clear", "--confirm"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if a.Subcommand != "clear" {
					t.Errorf("Subcommand = %q, want %q", a.Subcommand, "clear")
				}
				if !a.Confirm {
					t.Error("Confirm should be true")
				}
			},
		},
		{
			name:        "history default limit",
			argv:        []string{"history", "show"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if a.Limit != 20 {
					t.Errorf("Limit = %d, want 20", a.Limit)
				}
			},
		},
		{
			name:        "version",
			argv:        []string{"version"},
			wantCommand: CmdVersion,
		},
		{
			name:        "help",
			argv:        []string{"help"},
			wantCommand: CmdHelp,
		},
		{
			name:        "no args shows help",
			argv:        []string{},
			wantCommand: CmdHelp,
		},
		{
			name:        "bare prompt falls through to chat",
			argv:        []string{"Explain", "goroutines"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Prompt != "Explain goroutines" {
					t.Errorf("Prompt = %q, want %q", a.Prompt, "Explain goroutines")
				}
				if !a.PromptProvided {
					t.Error("PromptProvided should be true")
				}
			},
		},
		{
			name:        "chat with explicit empty prompt",
			argv:        []string{"chat", ""},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.Prompt != "" {
					t.Errorf("Prompt = %q, want empty", a.Prompt)
				}
				if !a.PromptProvided {
					t.Error("PromptProvided should be true for an explicit empty argument")
				}
			},
		},
		{
			name:        "chat without prompt",
			argv:        []string{"chat"},
			wantCommand: CmdChat,
			validate: func(t *testing.T, a Args) {
				if a.PromptProvided {
					t.Error("PromptProvided should be false with no positional args")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.argv)

			if cmd != tt.wantCommand {
				t.Errorf("Command = %v, want %v", cmd, tt.wantCommand)
			}

			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

// =============================================================================
// JSON OUTPUT TESTS
// =============================================================================

func TestJSONResponse_Shape(t *testing.T) {
	resp := NewJSONResponse("chat", ChatData{
		Model:   "deepseek/deepseek-v3.2-exp",
		Content: "hello",
	})

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	if decoded["success"] != true {
		t.Error("success should be true")
	}
	if decoded["error"] != nil {
		t.Errorf("error = %v, want null", decoded["error"])
	}
	if decoded["command"] != "chat" {
		t.Errorf("command = %v, want chat", decoded["command"])
	}

	data, ok := decoded["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %T", decoded["data"])
	}
	if data["content"] != "hello" {
		t.Errorf("data.content = %v, want hello", data["content"])
	}
	if _, present := data["usage"]; present {
		t.Error("usage should be omitted when nil")
	}
}

func TestJSONErrorResponse(t *testing.T) {
	resp := NewJSONErrorResponse("chat", ErrMissingAPIKey())

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	if decoded["success"] != false {
		t.Error("success should be false")
	}
	errMsg, _ := decoded["error"].(string)
	if !strings.Contains(errMsg, "AI_GATEWAY_API_KEY") {
		t.Errorf("error = %q, want mention of AI_GATEWAY_API_KEY", errMsg)
	}
}

// =============================================================================
// EXIT CODE TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	if GetExitCode(nil) != ExitSuccess {
		t.Error("nil error should map to ExitSuccess")
	}
	if GetExitCode(ErrMissingAPIKey()) != ExitError {
		t.Error("missing key should map to ExitError")
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkArgParser_Simple(b *testing.B) {
	args := []string{"chat", "What is Go?"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}

func BenchmarkArgParser_Complex(b *testing.B) {
	args := []string{"chat", "--stream", "--model", "openai/gpt-4-turbo", "--temperature", "0.2", "--max-tokens", "256", "Tell me a story"}
	for i := 0; i < b.N; i++ {
		NewArgParser(args)
	}
}
