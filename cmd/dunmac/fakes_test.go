// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"dunmac/internal/chat"
	"dunmac/internal/tools"
)

// scriptedClient answers each completion with the next scripted reply.
type scriptedClient struct {
	mu      sync.Mutex
	replies []openai.ChatCompletionMessage
	err     error
	calls   int
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	if len(c.replies) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no scripted reply")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: reply}},
	}, nil
}

type stubDispatcher struct {
	outcome tools.Outcome
}

func (d stubDispatcher) Tools() []openai.Tool { return nil }

func (d stubDispatcher) ExecuteCall(ctx context.Context, name, arguments string) (map[string]any, tools.Outcome) {
	return map[string]any{}, d.outcome
}

func text(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

func callTool(name string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:       "call_1",
			Type:     openai.ToolTypeFunction,
			Function: openai.FunctionCall{Name: name, Arguments: "{}"},
		}},
	}
}

func newTestSession(client chat.ChatClient, outcome tools.Outcome) *chat.Session {
	return chat.NewSession(&chat.Loop{
		Client:     client,
		Dispatcher: stubDispatcher{outcome: outcome},
		Model:      "test-model",
		MaxSteps:   10,
		Logger:     zerolog.Nop(),
	})
}
