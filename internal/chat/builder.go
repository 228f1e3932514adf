// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the conversation engine: request building
// and the interactive session loop.
package chat

import (
	"github.com/jeranaias/aigw/internal/gateway"
	"github.com/jeranaias/aigw/internal/model"
)

// BuildMessages assembles the wire-format message list for a chat
// request: the optional system prompt first, then the conversation
// history in order, then the pending user input last.
//
// The function is pure. It never mutates the conversation; the pending
// input is only committed to history after the exchange succeeds.
func BuildMessages(conv *model.Conversation, userInput string) []gateway.ChatMessage {
	messages := make([]gateway.ChatMessage, 0, len(conv.Messages)+2)

	if conv.SystemPrompt != "" {
		messages = append(messages, gateway.NewSystemMessage(conv.SystemPrompt))
	}

	for _, msg := range conv.Messages {
		if msg.Content == "" {
			continue
		}
		messages = append(messages, gateway.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}

	if userInput != "" {
		messages = append(messages, gateway.NewUserMessage(userInput))
	}

	return messages
}
