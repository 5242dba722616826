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

package chat

import (
	"context"
	"sync"

	"github.com/sashabaranov/go-openai"

	"dunmac/internal/tools"
)

// MockChatClient is a mock implementation of ChatClient for testing.
type MockChatClient struct {
	// Functions to override behavior
	CreateCompletionFunc func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)

	// Call tracking
	CompletionCalls []openai.ChatCompletionRequest
}

// CreateChatCompletion implements ChatClient.
func (m *MockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.CompletionCalls = append(m.CompletionCalls, req)
	if m.CreateCompletionFunc != nil {
		return m.CreateCompletionFunc(ctx, req)
	}
	// Default mock response
	return textResponse("mock response"), nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: content,
				},
			},
		},
	}
}

func toolCallResponse(content string, calls ...openai.ToolCall) openai.ChatCompletionResponse {
	resp := textResponse(content)
	resp.Choices[0].Message.ToolCalls = calls
	return resp
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

// scriptedClient answers completions from a fixed list, one per call.
func scriptedClient(responses ...openai.ChatCompletionResponse) *MockChatClient {
	m := &MockChatClient{}
	m.CreateCompletionFunc = func(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
		n := len(m.CompletionCalls) - 1
		if n >= len(responses) {
			return textResponse("script exhausted"), nil
		}
		return responses[n], nil
	}
	return m
}

type dispatchCall struct {
	Name      string
	Arguments string
}

// MockDispatcher records tool calls and answers with ExecuteFunc.
type MockDispatcher struct {
	ExecuteFunc func(ctx context.Context, name, arguments string) (map[string]any, tools.Outcome)
	Definitions []openai.Tool

	mu    sync.Mutex
	calls []dispatchCall
}

func (d *MockDispatcher) Tools() []openai.Tool {
	return d.Definitions
}

func (d *MockDispatcher) ExecuteCall(ctx context.Context, name, arguments string) (map[string]any, tools.Outcome) {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchCall{Name: name, Arguments: arguments})
	d.mu.Unlock()
	if d.ExecuteFunc != nil {
		return d.ExecuteFunc(ctx, name, arguments)
	}
	return map[string]any{}, tools.Succeed(name+" ok", nil)
}

func (d *MockDispatcher) Calls() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}
