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
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"

	"dunmac/internal/config"
	apperrors "dunmac/internal/errors"
	systemprompt "dunmac/system_prompt"
)

// Loop drives one conversation request: it asks the model for the next
// step, runs the tool calls it requests and feeds the outcomes back until
// the model answers in plain text or the step budget is spent.
//
// A Loop holds no per-request state and is safe for concurrent use.
type Loop struct {
	Client       ChatClient
	Dispatcher   Dispatcher
	Model        string
	Temperature  *float32
	MaxTokens    *int
	MaxSteps     int
	Parallelism  int
	SystemPrompt string
	Logger       zerolog.Logger
}

// NewLoop creates a loop backed by an OpenAI-compatible client.
func NewLoop(cfg *config.Config, dispatcher Dispatcher, logger zerolog.Logger) (*Loop, error) {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIURL != "" {
		clientConfig.BaseURL = cfg.APIURL
		clientConfig.HTTPClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return NewLoopWithClient(cfg, openai.NewClientWithConfig(clientConfig), dispatcher, logger)
}

// NewLoopWithClient creates a loop with a provided client (for testing).
func NewLoopWithClient(cfg *config.Config, client ChatClient, dispatcher Dispatcher, logger zerolog.Logger) (*Loop, error) {
	prompt, err := systemprompt.Resolve(cfg.SystemPrompt)
	if err != nil {
		return nil, err
	}
	return &Loop{
		Client:       client,
		Dispatcher:   dispatcher,
		Model:        cfg.Model,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		MaxSteps:     cfg.MaxSteps,
		Parallelism:  cfg.ParallelTools,
		SystemPrompt: prompt,
		Logger:       logger.With().Str("component", "loop").Logger(),
	}, nil
}

func (l *Loop) maxSteps() int {
	if l.MaxSteps <= 0 {
		return config.DefaultMaxSteps
	}
	return l.MaxSteps
}

func (l *Loop) parallelism() int {
	if l.Parallelism <= 0 {
		return config.DefaultParallelTools
	}
	return l.Parallelism
}

// Run answers message in the context of history. history is never modified.
//
// A provider failure aborts the run: the returned response carries a
// user-facing message and the actions recorded so far, and the error is an
// *APIError.
func (l *Loop) Run(ctx context.Context, history []Turn, message string) (*Response, error) {
	if err := ValidateHistory(history); err != nil {
		return nil, err
	}

	resp := &Response{Actions: []Action{}, State: StateAwaitingModel}
	messages := l.initialMessages(history, message)
	definitions := l.Dispatcher.Tools()
	budget := l.maxSteps()
	latest := ""

	for step := 1; step <= budget; step++ {
		resp.State = StateAwaitingModel
		reply, err := l.complete(ctx, messages, definitions)
		if err != nil {
			return l.abort(resp, step, err)
		}
		if strings.TrimSpace(reply.Content) != "" {
			latest = reply.Content
		}

		if len(reply.ToolCalls) == 0 {
			resp.Steps = append(resp.Steps, Step{Index: step, Text: reply.Content})
			resp.Message = reply.Content
			if strings.TrimSpace(resp.Message) == "" {
				resp.Message = latest
			}
			resp.State = StateDone
			l.Logger.Debug().Int("step", step).Int("actions", len(resp.Actions)).Msg("Loop finished")
			return resp, nil
		}

		resp.State = StateDispatchingTools
		l.Logger.Debug().Int("step", step).Int("tool_calls", len(reply.ToolCalls)).Msg("Dispatching tool calls")
		messages = append(messages, openai.ChatCompletionMessage{
			Role:      openai.ChatMessageRoleAssistant,
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})

		actions := l.dispatch(ctx, reply.ToolCalls)
		for i, call := range reply.ToolCalls {
			messages = append(messages, toolResultMessage(call, actions[i]))
		}
		resp.Actions = append(resp.Actions, actions...)
		resp.Steps = append(resp.Steps, Step{Index: step, Text: reply.Content, Actions: actions})
	}

	resp.State = StateDone
	resp.Message = latest
	if strings.TrimSpace(resp.Message) == "" {
		resp.Message = fmt.Sprintf("Stopped after %d steps without a final answer.", budget)
	}
	l.Logger.Warn().Int("steps", budget).Int("actions", len(resp.Actions)).Msg("Step budget exhausted")
	return resp, nil
}

func (l *Loop) initialMessages(history []Turn, message string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if l.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: l.SystemPrompt,
		})
	}
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}

func (l *Loop) complete(ctx context.Context, messages []openai.ChatCompletionMessage, definitions []openai.Tool) (openai.ChatCompletionMessage, error) {
	if err := ctx.Err(); err != nil {
		return openai.ChatCompletionMessage{}, err
	}

	req := openai.ChatCompletionRequest{
		Model:    l.Model,
		Messages: append([]openai.ChatCompletionMessage(nil), messages...),
		Tools:    definitions,
	}
	if l.Temperature != nil {
		req.Temperature = *l.Temperature
	}
	if l.MaxTokens != nil {
		req.MaxTokens = *l.MaxTokens
	}

	resp, err := l.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionMessage{}, err
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, ErrEmptyResponse
	}
	return resp.Choices[0].Message, nil
}

func (l *Loop) abort(resp *Response, step int, err error) (*Response, error) {
	apiErr := &APIError{
		Operation: "create_completion",
		Err:       apperrors.Wrap(apperrors.CodeProvider, "model provider request failed", err),
	}
	resp.State = StateAborted
	resp.Message = "Sorry, I encountered an error: " + err.Error()
	l.Logger.Error().Err(err).Int("step", step).Int("actions", len(resp.Actions)).Msg("Provider call failed")
	return resp, apiErr
}

// dispatch runs the calls of one step concurrently. Results keep the order
// in which the model requested them.
func (l *Loop) dispatch(ctx context.Context, calls []openai.ToolCall) []Action {
	actions := make([]Action, len(calls))
	var g errgroup.Group
	g.SetLimit(l.parallelism())
	for i, call := range calls {
		g.Go(func() error {
			args, out := l.Dispatcher.ExecuteCall(ctx, call.Function.Name, call.Function.Arguments)
			if args == nil {
				args = map[string]any{}
			}
			actions[i] = Action{Tool: call.Function.Name, Args: args, Result: out}
			return nil
		})
	}
	_ = g.Wait()
	return actions
}

func toolResultMessage(call openai.ToolCall, action Action) openai.ChatCompletionMessage {
	name := call.Function.Name
	if name == "" {
		name = "unknown_tool"
	}
	return openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		Content:    modelContent(action.Result),
		Name:       name,
		ToolCallID: call.ID,
	}
}
