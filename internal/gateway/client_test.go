// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientNotConfigured(t *testing.T) {
	client := NewClient("")

	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}

	err = client.ChatStream(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hello")},
	}, func(StreamChunk) {})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("stream err = %v, want ErrNotConfigured", err)
	}
}

func TestChatSuccess(t *testing.T) {
	var gotReq ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"model": "deepseek/deepseek-v3.2-exp",
			"choices": [{"message": {"role": "assistant", "content": "Hello there"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	resp, err := client.Chat(context.Background(), ChatRequest{
		Model:       "deepseek/deepseek-v3.2-exp",
		Messages:    []ChatMessage{NewUserMessage("hi")},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if resp.GetContent() != "Hello there" {
		t.Errorf("content = %q, want %q", resp.GetContent(), "Hello there")
	}
	if resp.GetFinishReason() != "stop" {
		t.Errorf("finish_reason = %q, want stop", resp.GetFinishReason())
	}
	if resp.Usage.TotalTokens != 20 {
		t.Errorf("total_tokens = %d, want 20", resp.Usage.TotalTokens)
	}
	if resp.Usage.PromptTokens+resp.Usage.CompletionTokens != resp.Usage.TotalTokens {
		t.Errorf("usage does not add up: %+v", resp.Usage)
	}

	if gotReq.Stream {
		t.Error("non-streaming request sent stream: true")
	}
	if gotReq.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gotReq.Temperature)
	}
}

func TestChatMaxTokensOmittedWhenZero(t *testing.T) {
	var rawBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&rawBody)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.Chat(context.Background(), ChatRequest{
		Messages:    []ChatMessage{NewUserMessage("hi")},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if _, present := rawBody["max_tokens"]; present {
		t.Error("max_tokens present in payload, want omitted when zero")
	}
	if _, present := rawBody["temperature"]; !present {
		t.Error("temperature missing from payload")
	}
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrAuthFailed},
		{"payment required", http.StatusPaymentRequired, `{"error":{"message":"no credits"}}`, ErrInsufficientCredits},
		{"not found", http.StatusNotFound, `{"error":{"message":"no such model"}}`, ErrModelNotFound},
		{"unauthorized unparseable", http.StatusUnauthorized, `nonsense`, ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient("test-key").WithBaseURL(server.URL)
			_, err := client.Chat(context.Background(), ChatRequest{
				Messages: []ChatMessage{NewUserMessage("hi")},
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"upstream hiccup"}}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"recovered"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	resp, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat failed after retries: %v", err)
	}
	if resp.GetContent() != "recovered" {
		t.Errorf("content = %q, want %q", resp.GetContent(), "recovered")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestChatDoesNotRetryAuthFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	_, err := client.Chat(context.Background(), ChatRequest{
		Messages: []ChatMessage{NewUserMessage("hi")},
	})
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("err = %v, want ErrAuthFailed", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestCalculateBackoff(t *testing.T) {
	client := NewClient("test-key")

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{10, retryMaxDelay},
	}
	for _, tt := range tests {
		if got := client.calculateBackoff(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestListModelsRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{"id":"deepseek/deepseek-v3.2-exp","context_length":128000},{"id":"openai/gpt-4"}]}`))
	}))
	defer server.Close()

	client := NewClient("test-key").WithBaseURL(server.URL)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].ID != "deepseek/deepseek-v3.2-exp" {
		t.Errorf("models[0].ID = %q", models[0].ID)
	}
	if models[0].ContextSize != 128000 {
		t.Errorf("models[0].ContextSize = %d", models[0].ContextSize)
	}
}

func TestPopularModelsCatalog(t *testing.T) {
	if len(PopularModels) != 10 {
		t.Errorf("catalog has %d entries, want 10", len(PopularModels))
	}
	if PopularModels[0] != DefaultModel {
		t.Errorf("catalog[0] = %q, want default model first", PopularModels[0])
	}
}
