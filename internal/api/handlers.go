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

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/hlog"

	"dunmac/internal/chat"
	"dunmac/internal/tools"
)

const (
	maxMessageChars = 10000
	maxHistoryTurns = 50
)

// HealthResponse is the GET / payload.
type HealthResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
	By      string `json:"by"`
	Tools   int    `json:"tools"`
}

// ToolsResponse is the GET /tools payload.
type ToolsResponse struct {
	Tools []tools.Info `json:"tools"`
}

// HistoryEntry is one prior turn in a chat request.
type HistoryEntry struct {
	Role    string `json:"role" jsonschema:"enum=user,enum=assistant"`
	Content string `json:"content"`
}

// ChatRequest is the POST /chat payload.
type ChatRequest struct {
	Message string         `json:"message" jsonschema:"description=What the user wants done,minLength=1,maxLength=10000"`
	History []HistoryEntry `json:"history,omitempty" jsonschema:"description=Earlier turns of the conversation,maxItems=50"`
}

// ChatAction is one tool call made while answering.
type ChatAction struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result ToolOutcome    `json:"result"`
}

// ChatResponse is the POST /chat payload.
type ChatResponse struct {
	Message string       `json:"message"`
	Actions []ChatAction `json:"actions"`
}

// ToolOutcome is the result of one tool execution.
type ToolOutcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Name:    "DunMac",
		Version: Version,
		Status:  "running",
		By:      "THISUX",
		Tools:   s.executor.Catalog().Len(),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: s.executor.Catalog().List()})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := hlog.FromRequest(r)

	var body map[string]json.RawMessage
	if err := decodeBody(w, r, &body); err != nil || body == nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	message, history, problem := parseChatRequest(body)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	logger.Info().Int("history", len(history)).Str("message", message).Msg("Chat request")
	resp, err := s.loop.Run(r.Context(), history, message)
	if err != nil && resp == nil {
		if errors.Is(err, chat.ErrInvalidHistory) {
			writeError(w, http.StatusBadRequest, "Invalid history entry")
			return
		}
		logger.Error().Err(err).Msg("Chat failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Chat aborted")
	}
	logger.Info().Str("state", string(resp.State)).Int("actions", len(resp.Actions)).Msg("Chat answered")

	writeJSON(w, http.StatusOK, toChatResponse(resp))
}

// parseChatRequest checks field types by hand so that a wrong type gets the
// same message as a missing field.
func parseChatRequest(body map[string]json.RawMessage) (string, []chat.Turn, string) {
	var message string
	if raw, ok := body["message"]; !ok || json.Unmarshal(raw, &message) != nil || message == "" {
		return "", nil, "Message is required"
	}
	if utf8.RuneCountInString(message) > maxMessageChars {
		return "", nil, "Message too long"
	}

	raw, ok := body["history"]
	if !ok || string(raw) == "null" {
		return message, nil, ""
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) > maxHistoryTurns {
		return "", nil, "Invalid history"
	}

	history := make([]chat.Turn, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]any
		if err := json.Unmarshal(entry, &fields); err != nil || fields == nil {
			return "", nil, "Invalid history entry"
		}
		role, roleOK := fields["role"].(string)
		content, contentOK := fields["content"].(string)
		if !roleOK || !contentOK {
			return "", nil, "Invalid history entry"
		}
		turn := chat.Turn{Role: chat.Role(role), Content: content}
		if chat.ValidateHistory([]chat.Turn{turn}) != nil {
			return "", nil, "Invalid history entry"
		}
		history = append(history, turn)
	}
	return message, history, ""
}

func toChatResponse(resp *chat.Response) ChatResponse {
	out := ChatResponse{Message: resp.Message, Actions: make([]ChatAction, 0, len(resp.Actions))}
	for _, a := range resp.Actions {
		out.Actions = append(out.Actions, ChatAction{
			Tool:   a.Tool,
			Args:   a.Args,
			Result: ToolOutcome(a.Result),
		})
	}
	return out
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var args map[string]any
	if err := decodeBody(w, r, &args); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if args == nil {
		args = map[string]any{}
	}

	hlog.FromRequest(r).Info().Str("tool", name).Msg("Direct tool call")
	writeJSON(w, http.StatusOK, ToolOutcome(s.executor.Execute(r.Context(), name, args)))
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{}
	if kind := r.URL.Query().Get("type"); kind != "" {
		args["type"] = kind
	}

	out := s.executor.Execute(r.Context(), "screenshot", args)
	image, mimeType, err := tools.DecodeScreenshot(out)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Screenshot failed")
		writeError(w, http.StatusInternalServerError, "Failed to capture screenshot")
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schemas, err := EnvelopeSchemas()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Schema generation failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

// decodeBody reads one JSON value. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
