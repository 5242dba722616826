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

package sandbox

import (
	"fmt"
	"strings"
	"unicode"
)

type lexState int

const (
	stateSpace lexState = iota
	stateWord
	stateSingle
	stateDouble
)

// Tokenize splits a command line into an argument vector.
//
// Whitespace separates tokens. A single- or double-quoted run is part of the
// current token with its quotes removed, so `echo "a b"` yields
// ["echo", "a b"] and `x"y z"` yields ["xy z"]. Inside quotes the other quote
// character is literal. Backslashes carry no meaning. An unterminated quote
// is an error.
func Tokenize(command string) ([]string, error) {
	var (
		tokens []string
		buf    strings.Builder
		state  = stateSpace
		open   int
	)

	emit := func() {
		tokens = append(tokens, buf.String())
		buf.Reset()
	}

	for i, r := range command {
		switch state {
		case stateSpace, stateWord:
			switch {
			case unicode.IsSpace(r):
				if state == stateWord {
					emit()
				}
				state = stateSpace
			case r == '\'':
				state, open = stateSingle, i
			case r == '"':
				state, open = stateDouble, i
			default:
				buf.WriteRune(r)
				state = stateWord
			}
		case stateSingle:
			if r == '\'' {
				state = stateWord
				continue
			}
			buf.WriteRune(r)
		case stateDouble:
			if r == '"' {
				state = stateWord
				continue
			}
			buf.WriteRune(r)
		}
	}

	switch state {
	case stateSingle, stateDouble:
		return nil, fmt.Errorf("unterminated quote at offset %d", open)
	case stateWord:
		emit()
	}
	return tokens, nil
}
