// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and dispatch for aigw.
package cli

import (
	"fmt"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdInteractive
	CmdListModels
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	APIKey  string // --api-key (overrides env and config file)
	BaseURL string // --base-url (overrides env and config file)
	Quiet   bool
	NoColor bool
	JSON    bool

	// Command-specific
	Prompt string
	// PromptProvided distinguishes an explicit empty prompt argument
	// from no argument at all.
	PromptProvided bool
	Model          string
	System         string
	Temperature    float64 // -1 = not set on the command line
	MaxTokens      int     // 0 = gateway default
	Stream         bool
	Remote         bool
	Limit          int
	Confirm        bool
	Subcommand     string
	ConfigKey      string
	ConfigVal      string

	// Raw args remaining after global flag parsing
	Raw []string
}

const usageText = `aigw - command-line client for the AI Gateway

Sends chat completions to an OpenAI-compatible gateway, either as a
single prompt or an interactive session, with streamed or batched
responses.

Usage:
  aigw chat "prompt"         Send a single prompt
  aigw interactive           Start an interactive chat session
  aigw list-models           List available models
  aigw config [show|set|path]  Configuration management
  aigw history [show|clear]  Exchange history
  aigw version               Show version information
  aigw help                  Show this help

Chat Options:
  aigw chat "prompt"
    -m, --model NAME         Model to use (default from config)
    -s, --system TEXT        System prompt
    -t, --temperature T      Sampling temperature 0.0-2.0 (default: 0.7)
    --max-tokens N           Cap completion length (default: gateway decides)
    --stream                 Stream the response as plain text while it
                             is generated (markdown rendering applies to
                             batched responses only)
    --json                   Output response as a single JSON document

Interactive Options:
  aigw interactive
    -m, --model NAME         Model to use
    -s, --system TEXT        System prompt
    -t, --temperature T      Sampling temperature
  In-session: type your message and press Enter. 'exit'/'quit' ends the
  session, 'clear' resets history. Slash commands: /help /clear /model
  /history /quit

Model Listing:
  aigw list-models
    --remote                 Query the gateway /models endpoint
    --json                   Output as JSON

Configuration:
  aigw config show           Show current configuration
  aigw config set KEY VALUE  Set a value (e.g. chat.default_model)
  aigw config path           Print the config file location

History:
  aigw history show          Show recent exchanges
    --limit N                Show last N exchanges (default: 20)
    --json                   Output as JSON
  aigw history clear --confirm  Delete all recorded exchanges

Global Flags:
  --api-key KEY              API key (overrides AI_GATEWAY_API_KEY)
  --base-url URL             Gateway base URL (overrides AI_GATEWAY_BASE_URL)
  -q, --quiet                Minimal output
  --no-color                 Disable colored output
  --json                     Machine-readable output

Environment:
  AI_GATEWAY_API_KEY         API key (required unless --api-key given)
  AI_GATEWAY_BASE_URL        Gateway base URL (optional)
  AIGW_MODEL                 Default model override
  AIGW_SYSTEM_PROMPT         Default system prompt

Examples:
  aigw chat "What is the capital of France?"
  aigw chat "Tell me a story" --stream
  aigw chat "Explain quantum computing" --model openai/gpt-4-turbo
  aigw chat "Hello" --json
  aigw interactive --system "You are a helpful assistant"
  aigw list-models --remote
  aigw history show --limit 5

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("aigw version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}
	PrintVersion()
	return nil
}

// Parse parses command-line arguments and returns the command and args.
// argv is os.Args[1:].
func Parse(argv []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdHelp, parsedArgs
	}

	head := remaining[0]
	cmd := strings.ToLower(head)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "interactive", "i":
		parseSessionArgs(&parsedArgs, remaining)
		return CmdInteractive, parsedArgs

	case "list-models", "models":
		parser := NewArgParser(remaining)
		parsedArgs.Remote = parser.BoolFlag("remote")
		if parser.BoolFlag("json") {
			parsedArgs.JSON = true
		}
		return CmdListModels, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "history":
		parseHistoryArgs(&parsedArgs, remaining)
		return CmdHistory, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command: treat it as a bare prompt for chat, so that
		// `aigw "hello"` works the way people expect.
		parsedArgs.Raw = append([]string{head}, remaining...)
		parseChatArgs(&parsedArgs, parsedArgs.Raw)
		return CmdChat, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	parsedArgs := Args{Temperature: -1}

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--no-color":
			parsedArgs.NoColor = true
		case "--json":
			parsedArgs.JSON = true
		case "--api-key":
			if i+1 < len(args) {
				i++
				parsedArgs.APIKey = args[i]
			}
		case "--base-url":
			if i+1 < len(args) {
				i++
				parsedArgs.BaseURL = args[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--api-key="):
				parsedArgs.APIKey = strings.TrimPrefix(arg, "--api-key=")
			case strings.HasPrefix(arg, "--base-url="):
				parsedArgs.BaseURL = strings.TrimPrefix(arg, "--base-url=")
			default:
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseChatArgs parses chat command specific arguments. Positional
// arguments are joined into the prompt.
func parseChatArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)

	args.Model = firstNonEmpty(parser.Flag("model"), parser.Flag("m"))
	args.System = firstNonEmpty(parser.Flag("system"), parser.Flag("s"))
	args.Temperature = tempFlag(parser, args.Temperature)
	args.MaxTokens = parser.FlagIntOrDefault("max-tokens", 0)
	args.Stream = parser.BoolFlag("stream")
	if parser.BoolFlag("json") {
		args.JSON = true
	}
	args.Prompt = JoinPositionalArgs(parser, 0)
	args.PromptProvided = parser.PositionalCount() > 0
}

// parseSessionArgs parses interactive command specific arguments.
func parseSessionArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)

	args.Model = firstNonEmpty(parser.Flag("model"), parser.Flag("m"))
	args.System = firstNonEmpty(parser.Flag("system"), parser.Flag("s"))
	args.Temperature = tempFlag(parser, args.Temperature)
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = parser.Subcommand()
	args.ConfigKey = parser.Positional(1)
	args.ConfigVal = parser.Positional(2)
	if parser.BoolFlag("json") {
		args.JSON = true
	}
}

// parseHistoryArgs parses history command specific arguments.
func parseHistoryArgs(args *Args, remaining []string) {
	parser := NewArgParser(remaining)
	args.Subcommand = parser.Subcommand()
	args.Limit = parser.FlagIntOrDefault("limit", 20)
	args.Confirm = parser.BoolFlag("confirm")
	if parser.BoolFlag("json") {
		args.JSON = true
	}
}

// tempFlag reads -t/--temperature, keeping the current value when absent.
func tempFlag(parser *ArgParser, current float64) float64 {
	if v := parser.Flag("temperature"); v != "" {
		return parser.FlagFloatOrDefault("temperature", current)
	}
	if v := parser.Flag("t"); v != "" {
		return parser.FlagFloatOrDefault("t", current)
	}
	return current
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
