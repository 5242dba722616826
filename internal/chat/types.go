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
	"encoding/json"
	"fmt"

	"dunmac/internal/tools"
)

// Role of a conversation turn supplied by the caller.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior message of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateHistory checks that every turn has a known role.
func ValidateHistory(history []Turn) error {
	for i, turn := range history {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return fmt.Errorf("%w: entry %d has role %q", ErrInvalidHistory, i, turn.Role)
		}
	}
	return nil
}

// Action records one dispatched tool call and its outcome.
type Action struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args"`
	Result tools.Outcome  `json:"result"`
}

// Step is one model round: the text it produced and the calls it made.
type Step struct {
	Index   int      `json:"index"`
	Text    string   `json:"text,omitempty"`
	Actions []Action `json:"actions,omitempty"`
}

// State of the orchestration loop.
type State string

const (
	StateAwaitingModel    State = "awaiting_model"
	StateDispatchingTools State = "dispatching_tools"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// Response is the terminal result of a loop run.
type Response struct {
	Message string   `json:"message"`
	Actions []Action `json:"actions"`
	Steps   []Step   `json:"steps,omitempty"`
	State   State    `json:"state"`
}

// modelContent renders an outcome for the tool-result message. Image bytes
// are replaced by their size; the full outcome stays in the action log.
func modelContent(out tools.Outcome) string {
	if shot, ok := out.Data.(tools.ScreenshotData); ok {
		out.Data = map[string]any{
			"mimeType":     shot.MimeType,
			"base64_bytes": len(shot.Base64),
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		data, _ = json.Marshal(tools.Outcome{Success: out.Success, Message: out.Message})
	}
	return string(data)
}
