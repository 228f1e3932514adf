// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat_cmd.go - Single-shot chat command handler for the aigw CLI.
//
// Handles "aigw chat" which sends one prompt to the gateway and prints
// the response, batched or streamed, as text or JSON.
//
// Command: chat [prompt]
//
// Examples:
//   aigw chat "What is the capital of France?"
//   aigw chat "Tell me a story" --stream
//   aigw chat "Explain quantum computing" --model openai/gpt-4-turbo
//   aigw chat "Hello" --json
//   echo "What is Go?" | aigw chat
//
// Flags:
//   -m, --model NAME     Model to use (overrides config)
//   -s, --system TEXT    System prompt
//   -t, --temperature T  Sampling temperature
//   --max-tokens N       Cap completion length
//   --stream             Stream the response
//   --json               Output response as JSON
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/aigw/internal/chat"
	"github.com/jeranaias/aigw/internal/gateway"
)

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args Args) error {
	prompt := args.Prompt
	promptGiven := args.PromptProvided

	// Piped stdin can carry the prompt: echo "question" | aigw chat
	if !promptGiven && StdinIsPipe() {
		reader := bufio.NewReader(os.Stdin)
		data, err := io.ReadAll(reader)
		if err == nil && len(data) > 0 {
			prompt = strings.TrimSpace(string(data))
			promptGiven = true
			if !args.Quiet && !args.JSON {
				fmt.Fprintf(os.Stderr, "%s Read prompt from stdin (%d bytes)\n",
					DimStyle.Render("[+]"), len(data))
			}
		}
	}

	// An explicitly supplied empty string is a valid prompt; only the
	// absence of any prompt is an error.
	if !promptGiven {
		err := fmt.Errorf("no prompt provided. Usage: aigw chat \"your prompt\"")
		if args.JSON {
			NewJSONErrorResponse("chat", err).Print()
		}
		return err
	}

	cfg, err := resolveConfig(args)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("chat", err).Print()
		}
		return err
	}

	client, err := newGatewayClient(cfg)
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("chat", err).Print()
		}
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s history unavailable: %v\n",
			WarningStyle.Render("Warning:"), err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	session := chat.NewSession(client, sessionOptions(cfg))
	if cfg.Chat.SystemPrompt != "" {
		session.SetSystemPrompt(cfg.Chat.SystemPrompt)
	}

	ctx := context.Background()
	start := time.Now()

	var ex *chat.Exchange
	if args.Stream {
		ex, err = streamExchange(ctx, session, prompt, args)
	} else {
		ex, err = session.Send(ctx, prompt)
	}
	duration := time.Since(start)

	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("chat", err).Print()
		}
		return err
	}

	recordExchange(ctx, store, newSessionID(), ex)

	if args.JSON {
		data := ChatData{
			Model:      ex.Model,
			Content:    ex.Response,
			Stream:     args.Stream,
			DurationMs: duration.Milliseconds(),
		}
		// Streaming carries no usage accounting, matching text mode
		// where no token summary is printed mid-stream.
		if !args.Stream {
			usage := ex.Usage
			data.Usage = &usage
			data.FinishReason = ex.FinishReason
		}
		return NewJSONResponse("chat", data).Print()
	}

	if !args.Stream {
		printResponse(ex.Response)
	}

	if !args.Quiet {
		printExchangeSummary(ex, args.Stream, duration)
	}

	return nil
}

// streamExchange runs a streamed exchange, forwarding fragments to
// stdout the moment they arrive. Markdown rendering is reserved for
// batched responses; a stream that waited for completion would defeat
// its purpose.
func streamExchange(ctx context.Context, session *chat.Session, prompt string, args Args) (*chat.Exchange, error) {
	echo := !args.JSON

	if echo {
		fmt.Print("Response: ")
	}

	ex, err := session.SendStream(ctx, prompt, func(chunk gateway.StreamChunk) {
		if echo {
			fmt.Print(chunk.GetContent())
		}
	})

	if echo {
		fmt.Println()
	}

	return ex, err
}

// printResponse prints a batched response: markdown-rendered on a TTY,
// plain "Response: ..." otherwise.
func printResponse(content string) {
	if IsStdoutTTY() {
		displayResponse(content)
		fmt.Println()
	} else {
		fmt.Printf("Response: %s\n", content)
	}
}

// printExchangeSummary writes the model and token summary to stderr.
// Streamed exchanges carry no usage accounting.
func printExchangeSummary(ex *chat.Exchange, streamed bool, duration time.Duration) {
	fmt.Fprintln(os.Stderr, RenderSeparator(45))
	fmt.Fprintf(os.Stderr, "%s %s\n",
		LabelStyle.Render("Model:"),
		ValueStyle.Render(ex.Model))

	if !streamed {
		fmt.Fprintf(os.Stderr, "%s %d (prompt: %d, completion: %d)\n",
			LabelStyle.Render("Tokens used:"),
			ex.Usage.TotalTokens,
			ex.Usage.PromptTokens,
			ex.Usage.CompletionTokens)
	}

	fmt.Fprintf(os.Stderr, "%s %s\n",
		LabelStyle.Render("Time:"),
		duration.Round(time.Millisecond))
}
