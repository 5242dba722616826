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
)

// DefaultHistoryLimit bounds the turns a Session keeps.
const DefaultHistoryLimit = 50

// Session keeps a local conversation for the REPL and batch modes.
//
// Thread-safety: Session is safe for concurrent use, but turns sent
// concurrently are appended in completion order.
type Session struct {
	loop    *Loop
	limit   int
	mu      sync.Mutex
	history []Turn
}

// NewSession wraps loop with a conversation history.
func NewSession(loop *Loop) *Session {
	return &Session{loop: loop, limit: DefaultHistoryLimit}
}

// Send runs message against the accumulated history. Aborted runs are not
// remembered.
func (s *Session) Send(ctx context.Context, message string) (*Response, error) {
	resp, err := s.loop.Run(ctx, s.History(), message)
	if err != nil {
		return resp, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		Turn{Role: RoleUser, Content: message},
		Turn{Role: RoleAssistant, Content: resp.Message},
	)
	if extra := len(s.history) - s.limit; extra > 0 {
		s.history = append([]Turn(nil), s.history[extra:]...)
	}
	return resp, nil
}

// History returns a copy of the remembered turns.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Turn(nil), s.history...)
}

// Reset forgets the conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
