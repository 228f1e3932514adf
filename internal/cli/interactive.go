// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// interactive.go - Interactive chat command handler for the aigw CLI.
//
// Handles "aigw interactive", a REPL around a chat session: line
// editing and on-disk input history via liner, streamed responses,
// and control keywords.
//
// Command: interactive
//
// Examples:
//   aigw interactive
//   aigw interactive --model openai/gpt-4-turbo
//   aigw interactive --system "You are a helpful assistant"
//
// In-session:
//   exit, quit          End the session
//   clear               Clear conversation history (keeps the system prompt)
//   /help, /h           Show available commands
//   /clear, /c          Same as clear
//   /model [name]       Show or switch model
//   /history            Show conversation history
//   /quit, /q           Same as exit
//   Ctrl+C, Ctrl+D      End the session
package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	"github.com/jeranaias/aigw/internal/chat"
	"github.com/jeranaias/aigw/internal/config"
	"github.com/jeranaias/aigw/internal/gateway"
	"github.com/jeranaias/aigw/internal/history"
	"github.com/jeranaias/aigw/internal/model"
	"github.com/jeranaias/aigw/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// InputReader provides line editing and persisted input history for
// the interactive session.
type InputReader struct {
	line        *liner.State
	historyFile string
}

// NewInputReader creates an InputReader with history loaded from the
// config directory.
func NewInputReader() *InputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "input_history")

	r := &InputReader{
		line:        line,
		historyFile: historyFile,
	}
	r.loadHistory()

	return r
}

func (r *InputReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Non-empty
// input is appended to the navigable history.
func (r *InputReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}

	return input, nil
}

// saveHistory persists input history atomically with owner-only
// permissions.
func (r *InputReader) saveHistory() {
	var buf bytes.Buffer
	if _, err := r.line.WriteHistory(&buf); err != nil {
		return
	}
	util.AtomicWriteFileWithDir(r.historyFile, buf.Bytes(), 0600, 0700)
}

// Close saves history and releases the terminal.
func (r *InputReader) Close() {
	r.saveHistory()
	r.line.Close()
}

// =============================================================================
// INTERRUPT HANDLING
// =============================================================================

// inflightCancel tracks the cancel func of the exchange currently in
// flight so the signal handler can abort it. Abort only takes effect
// while an exchange is running.
type inflightCancel struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

func (c *inflightCancel) set(fn context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = fn
}

func (c *inflightCancel) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
}

// abort cancels the in-flight exchange, if any.
func (c *inflightCancel) abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.stopped = true
	}
}

// wasAborted reports whether an exchange was ended by a signal.
func (c *inflightCancel) wasAborted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// =============================================================================
// INTERACTIVE HANDLER
// =============================================================================

// HandleInteractiveCommand handles the "interactive" command.
// A graceful end of session (exit/quit/Ctrl+D/Ctrl+C) returns nil.
func HandleInteractiveCommand(args Args) error {
	cfg, err := resolveConfig(args)
	if err != nil {
		return err
	}

	client, err := newGatewayClient(cfg)
	if err != nil {
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

	if !args.Quiet {
		printWelcome(session)
	}

	reader := NewInputReader()
	defer reader.Close()

	// Ctrl+C during an in-flight exchange cancels the request; the
	// session then winds down with the usual farewell instead of the
	// process dying mid-stream.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var inflight inflightCancel
	go func() {
		for range sigCh {
			inflight.abort()
		}
	}()

	sessionID := newSessionID()
	ctx := context.Background()

	for {
		input, err := reader.ReadInput(PromptStyle.Render("You: "))
		if err != nil {
			// Ctrl+C (ErrPromptAborted) or Ctrl+D (EOF) end the session.
			fmt.Println()
			sayGoodbye()
			return nil
		}

		switch chat.ParseInput(input) {
		case chat.DirectiveSkip:
			continue

		case chat.DirectiveExit:
			sayGoodbye()
			return nil

		case chat.DirectiveClear:
			session.Clear()
			fmt.Println(SuccessStyle.Render("Chat history cleared."))
			fmt.Println()
			continue
		}

		input = strings.TrimSpace(input)

		if strings.HasPrefix(input, "/") {
			keepGoing := handleSlashCommand(input, session)
			if !keepGoing {
				sayGoodbye()
				return nil
			}
			continue
		}

		// Failed exchanges are reported and leave history untouched;
		// the loop keeps going. An interrupt mid-exchange ends the
		// session with the usual farewell.
		if err := runExchange(ctx, session, store, sessionID, input, &inflight); err != nil {
			if inflight.wasAborted() {
				fmt.Println()
				sayGoodbye()
				return nil
			}
			fmt.Fprintf(os.Stderr, "\n%s %v\n",
				ErrorStyle.Render("Error:"), err)
		}
	}
}

// runExchange streams one prompt/response round trip, forwarding
// fragments to the terminal as they arrive. The exchange context is
// registered with the interrupt watcher so Ctrl+C aborts it.
func runExchange(ctx context.Context, session *chat.Session, store *history.Store, sessionID, input string, inflight *inflightCancel) error {
	ctx, cancel := context.WithCancel(ctx)
	inflight.set(cancel)
	defer func() {
		inflight.clear()
		cancel()
	}()

	fmt.Print(AssistantStyle.Render("Assistant: "))

	ex, err := session.SendStream(ctx, input, func(chunk gateway.StreamChunk) {
		fmt.Print(chunk.GetContent())
	})
	if err != nil {
		fmt.Println()
		return err
	}

	fmt.Println()
	fmt.Println()

	recordExchange(ctx, store, sessionID, ex)
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands. Returns false when the
// session should end.
func handleSlashCommand(cmd string, session *chat.Session) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printSessionHelp()

	case "/clear", "/c":
		session.Clear()
		fmt.Println(SuccessStyle.Render("Chat history cleared."))
		fmt.Println()

	case "/model", "/m":
		if len(rest) == 0 {
			fmt.Printf("%s %s\n",
				LabelStyle.Render("Current model:"),
				ValueStyle.Render(session.Model()))
		} else {
			session.SetModel(rest[0])
			fmt.Printf("%s Switched to model: %s\n",
				SuccessStyle.Render("[OK]"), rest[0])
		}

	case "/history":
		printConversation(session.Conversation())

	case "/quit", "/q", "/exit":
		return false

	default:
		fmt.Fprintf(os.Stderr, "%s unknown command: %s (type /help for commands)\n",
			ErrorStyle.Render("Error:"), command)
	}

	return true
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(session *chat.Session) {
	fmt.Println(TitleStyle.Render(fmt.Sprintf("AI Gateway Interactive Chat (Model: %s)", session.Model())))
	fmt.Println(DimStyle.Render("Type 'exit' or 'quit' to end the session, 'clear' to clear history"))
	fmt.Println()
}

func printSessionHelp() {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Available Commands"))

	commands := []struct {
		cmd  string
		desc string
	}{
		{"exit, quit", "End the session"},
		{"clear", "Clear conversation history"},
		{"/model [name]", "Show or switch model"},
		{"/history", "Show conversation history"},
		{"/help", "Show this help"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			ValueStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			DimStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render("Tip: Ctrl+D exits"))
	fmt.Println()
}

func printConversation(conv *model.Conversation) {
	if conv.IsEmpty() {
		fmt.Println(DimStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Conversation History"))

	for i, msg := range conv.Messages {
		preview := strings.ReplaceAll(msg.Preview(100), "\n", " ")
		fmt.Printf("  %d. %s: %s\n", i+1,
			LabelStyle.Render(msg.Role.DisplayName()), preview)
	}

	fmt.Println()
}

func sayGoodbye() {
	fmt.Println(DimStyle.Render("Goodbye!"))
}
