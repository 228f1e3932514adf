// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/jeranaias/aigw/internal/gateway"
	"github.com/jeranaias/aigw/internal/model"
)

// =============================================================================
// COMPLETER INTERFACE
// =============================================================================

// Completer is the gateway surface the session depends on. Satisfied by
// *gateway.Client.
type Completer interface {
	Chat(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error)
	ChatStream(ctx context.Context, req gateway.ChatRequest, callback gateway.StreamCallback) error
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State describes where the session loop currently is.
type State int

const (
	// StateIdle means the session is waiting for user input.
	StateIdle State = iota
	// StateAwaitingResponse means a request is in flight.
	StateAwaitingResponse
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return "unknown"
	}
}

// Directive classifies a line of user input.
type Directive int

const (
	// DirectiveSend submits the input as a chat message.
	DirectiveSend Directive = iota
	// DirectiveExit ends the session.
	DirectiveExit
	// DirectiveClear wipes the conversation history.
	DirectiveClear
	// DirectiveSkip ignores the input (blank line).
	DirectiveSkip
)

// ParseInput classifies trimmed user input. The exit, quit, and clear
// keywords match case-insensitively; anything else is sent as-is.
func ParseInput(input string) Directive {
	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "":
		return DirectiveSkip
	case strings.EqualFold(trimmed, "exit"), strings.EqualFold(trimmed, "quit"):
		return DirectiveExit
	case strings.EqualFold(trimmed, "clear"):
		return DirectiveClear
	default:
		return DirectiveSend
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Options carries the per-session request parameters.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Exchange is the result of one successful prompt/response round trip.
type Exchange struct {
	Prompt       string
	Response     string
	Model        string
	FinishReason string
	Usage        gateway.Usage
}

// Session drives a multi-turn conversation against a Completer. It is
// single-threaded: one request is in flight at a time, and history is
// only mutated after an exchange succeeds.
type Session struct {
	client Completer
	conv   *model.Conversation
	opts   Options
	state  State
}

// NewSession creates a session with an empty conversation.
func NewSession(client Completer, opts Options) *Session {
	conv := model.NewConversationWithModel(opts.Model)
	return &Session{
		client: client,
		conv:   conv,
		opts:   opts,
		state:  StateIdle,
	}
}

// NewSessionWithConversation creates a session around an existing
// conversation, preserving its seeded history and system prompt.
func NewSessionWithConversation(client Completer, conv *model.Conversation, opts Options) *Session {
	if conv.Model == "" {
		conv.Model = opts.Model
	}
	return &Session{
		client: client,
		conv:   conv,
		opts:   opts,
		state:  StateIdle,
	}
}

// SetSystemPrompt sets the system prompt used for subsequent requests.
func (s *Session) SetSystemPrompt(prompt string) {
	s.conv.SystemPrompt = prompt
}

// Conversation returns the underlying conversation.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state
}

// Model returns the model the session sends requests to.
func (s *Session) Model() string {
	return s.opts.Model
}

// SetModel switches the model for subsequent requests. History is kept.
func (s *Session) SetModel(m string) {
	s.opts.Model = m
	s.conv.Model = m
}

// Clear wipes the conversation history. The system prompt and model
// binding survive.
func (s *Session) Clear() {
	s.conv.ClearHistory()
}

// HistoryLen returns the number of messages in the conversation.
func (s *Session) HistoryLen() int {
	return s.conv.MessageCount()
}

// request assembles the wire request for the pending input.
func (s *Session) request(input string) gateway.ChatRequest {
	return gateway.ChatRequest{
		Model:       s.opts.Model,
		Messages:    BuildMessages(s.conv, input),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	}
}

// commit records a completed exchange in the conversation history.
func (s *Session) commit(prompt, response string) {
	s.conv.AddUserMessage(prompt)
	s.conv.AddAssistantMessage(response)
}

// Send submits one user message and waits for the complete response.
// On failure the error is returned and the history is left exactly as
// it was: the failed prompt is not recorded.
func (s *Session) Send(ctx context.Context, input string) (*Exchange, error) {
	s.state = StateAwaitingResponse
	defer func() { s.state = StateIdle }()

	resp, err := s.client.Chat(ctx, s.request(input))
	if err != nil {
		return nil, err
	}

	content := resp.GetContent()
	s.commit(input, content)

	return &Exchange{
		Prompt:       input,
		Response:     content,
		Model:        resp.Model,
		FinishReason: resp.GetFinishReason(),
		Usage:        resp.Usage,
	}, nil
}

// SendStream submits one user message and streams the response
// fragments to callback in arrival order. The full response is the
// in-order concatenation of the fragments; it is committed to history
// only when the stream completes cleanly.
func (s *Session) SendStream(ctx context.Context, input string, callback gateway.StreamCallback) (*Exchange, error) {
	s.state = StateAwaitingResponse
	defer func() { s.state = StateIdle }()

	acc := gateway.NewStreamAccumulator()
	err := s.client.ChatStream(ctx, s.request(input), func(chunk gateway.StreamChunk) {
		acc.Add(chunk)
		callback(chunk)
	})
	if err != nil {
		return nil, err
	}

	content := acc.GetContent()
	s.commit(input, content)

	return &Exchange{
		Prompt:       input,
		Response:     content,
		Model:        acc.Model,
		FinishReason: acc.FinishReason,
	}, nil
}
