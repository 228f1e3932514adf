// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jeranaias/aigw/internal/gateway"
)

// fakeCompleter scripts gateway responses for session tests.
type fakeCompleter struct {
	reply    string
	err      error
	requests []gateway.ChatRequest
}

func (f *fakeCompleter) Chat(ctx context.Context, req gateway.ChatRequest) (*gateway.ChatResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	var resp gateway.ChatResponse
	raw := fmt.Sprintf(`{"model":"deepseek/deepseek-v3.2-exp","choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":7,"total_tokens":12}}`, f.reply)
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		panic(err)
	}
	return &resp, nil
}

func (f *fakeCompleter) ChatStream(ctx context.Context, req gateway.ChatRequest, callback gateway.StreamCallback) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	// Deliver the reply in two fragments.
	half := len(f.reply) / 2
	for _, piece := range []string{f.reply[:half], f.reply[half:]} {
		var chunk gateway.StreamChunk
		raw := fmt.Sprintf(`{"choices":[{"delta":{"content":%q},"finish_reason":""}]}`, piece)
		if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
			return err
		}
		callback(chunk)
	}
	return nil
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		input string
		want  Directive
	}{
		{"hello", DirectiveSend},
		{"exit", DirectiveExit},
		{"EXIT", DirectiveExit},
		{"quit", DirectiveExit},
		{"Quit", DirectiveExit},
		{"  exit  ", DirectiveExit},
		{"clear", DirectiveClear},
		{"CLEAR", DirectiveClear},
		{"", DirectiveSkip},
		{"   ", DirectiveSkip},
		{"exit now", DirectiveSend},
		{"clearing", DirectiveSend},
	}

	for _, tt := range tests {
		if got := ParseInput(tt.input); got != tt.want {
			t.Errorf("ParseInput(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSessionSendCommitsExchange(t *testing.T) {
	client := &fakeCompleter{reply: "hi there"}
	session := NewSession(client, Options{Model: "deepseek/deepseek-v3.2-exp", Temperature: 0.7})

	ex, err := session.Send(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if ex.Response != "hi there" {
		t.Errorf("response = %q", ex.Response)
	}
	if ex.Usage.TotalTokens != 12 {
		t.Errorf("total tokens = %d, want 12", ex.Usage.TotalTokens)
	}
	if session.HistoryLen() != 2 {
		t.Errorf("history len = %d, want 2", session.HistoryLen())
	}

	msgs := session.Conversation().GetHistory()
	if msgs[0].Content != "hello" || msgs[1].Content != "hi there" {
		t.Errorf("history = [%q, %q]", msgs[0].Content, msgs[1].Content)
	}
}

func TestSessionHistoryGrowsByTwoPerExchange(t *testing.T) {
	client := &fakeCompleter{reply: "answer"}
	session := NewSession(client, Options{Model: "m"})

	for i := 1; i <= 3; i++ {
		if _, err := session.Send(context.Background(), "question"); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
		if session.HistoryLen() != 2*i {
			t.Errorf("after %d exchanges history len = %d, want %d", i, session.HistoryLen(), 2*i)
		}
	}
}

func TestSessionFailedExchangeLeavesHistoryUntouched(t *testing.T) {
	client := &fakeCompleter{reply: "ok"}
	session := NewSession(client, Options{Model: "m"})

	if _, err := session.Send(context.Background(), "first"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	client.err = gateway.ErrRateLimited
	_, err := session.Send(context.Background(), "second")
	if !errors.Is(err, gateway.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	if session.HistoryLen() != 2 {
		t.Errorf("history len = %d, want 2 (failed exchange must not be recorded)", session.HistoryLen())
	}
	msgs := session.Conversation().GetHistory()
	if msgs[0].Content != "first" || msgs[1].Content != "ok" {
		t.Errorf("history changed after failure: [%q, %q]", msgs[0].Content, msgs[1].Content)
	}

	// A later retry of the same prompt succeeds and is recorded once.
	client.err = nil
	if _, err := session.Send(context.Background(), "second"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if session.HistoryLen() != 4 {
		t.Errorf("history len = %d, want 4", session.HistoryLen())
	}
}

func TestSessionStreamFailureLeavesHistoryUntouched(t *testing.T) {
	client := &fakeCompleter{err: gateway.ErrAuthFailed}
	session := NewSession(client, Options{Model: "m"})

	_, err := session.SendStream(context.Background(), "hello", func(gateway.StreamChunk) {})
	if !errors.Is(err, gateway.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if session.HistoryLen() != 0 {
		t.Errorf("history len = %d, want 0", session.HistoryLen())
	}
}

func TestSessionSendStreamConcatenatesFragments(t *testing.T) {
	client := &fakeCompleter{reply: "streamed response"}
	session := NewSession(client, Options{Model: "m"})

	var received string
	ex, err := session.SendStream(context.Background(), "go", func(chunk gateway.StreamChunk) {
		received += chunk.GetContent()
	})
	if err != nil {
		t.Fatalf("SendStream failed: %v", err)
	}

	if ex.Response != "streamed response" {
		t.Errorf("response = %q", ex.Response)
	}
	if received != ex.Response {
		t.Errorf("callback saw %q, committed %q", received, ex.Response)
	}
	if session.HistoryLen() != 2 {
		t.Errorf("history len = %d, want 2", session.HistoryLen())
	}
}

func TestSessionRequestIncludesSystemAndHistory(t *testing.T) {
	client := &fakeCompleter{reply: "r"}
	session := NewSession(client, Options{Model: "m", Temperature: 0.7})
	session.SetSystemPrompt("sys")

	session.Send(context.Background(), "one")
	session.Send(context.Background(), "two")

	last := client.requests[len(client.requests)-1]
	// system + first exchange + pending user
	if len(last.Messages) != 4 {
		t.Fatalf("request messages = %d, want 4", len(last.Messages))
	}
	if last.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", last.Messages[0].Role)
	}
	if last.Messages[3].Content != "two" {
		t.Errorf("last message = %q, want %q", last.Messages[3].Content, "two")
	}
	if last.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", last.Temperature)
	}
}

func TestSessionClear(t *testing.T) {
	client := &fakeCompleter{reply: "r"}
	session := NewSession(client, Options{Model: "m"})
	session.SetSystemPrompt("sys")

	session.Send(context.Background(), "hello")
	session.Clear()

	if session.HistoryLen() != 0 {
		t.Errorf("history len = %d, want 0 after clear", session.HistoryLen())
	}
	if session.Conversation().SystemPrompt != "sys" {
		t.Error("system prompt lost on clear")
	}

	// The next request starts fresh.
	session.Send(context.Background(), "again")
	last := client.requests[len(client.requests)-1]
	if len(last.Messages) != 2 {
		t.Errorf("request messages = %d, want 2 (system + user)", len(last.Messages))
	}
}

func TestSessionStateTransitions(t *testing.T) {
	client := &fakeCompleter{reply: "r"}
	session := NewSession(client, Options{Model: "m"})

	if session.State() != StateIdle {
		t.Errorf("initial state = %v, want idle", session.State())
	}
	session.Send(context.Background(), "hello")
	if session.State() != StateIdle {
		t.Errorf("state after send = %v, want idle", session.State())
	}
}

func TestScriptedHelloClearExit(t *testing.T) {
	client := &fakeCompleter{reply: "r"}
	session := NewSession(client, Options{Model: "m"})

	script := []string{"hello", "clear", "exit"}
	exited := false
	for _, line := range script {
		switch ParseInput(line) {
		case DirectiveSend:
			if _, err := session.Send(context.Background(), line); err != nil {
				t.Fatalf("Send(%q) failed: %v", line, err)
			}
		case DirectiveClear:
			session.Clear()
		case DirectiveExit:
			exited = true
		}
		if exited {
			break
		}
	}

	if !exited {
		t.Error("script did not exit")
	}
	if session.HistoryLen() != 0 {
		t.Errorf("history len = %d, want 0", session.HistoryLen())
	}
	if len(client.requests) != 1 {
		t.Errorf("gateway calls = %d, want 1", len(client.requests))
	}
}
