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
	"testing"

	"github.com/chzyer/readline"
)

func TestOperationCanceler(t *testing.T) {
	canceler := &operationCanceler{}
	if canceler.Cancel() {
		t.Fatal("expected no cancel when unset")
	}

	ctx, cancel := context.WithCancel(context.Background())
	canceler.Set(cancel)
	if !canceler.Cancel() {
		t.Fatal("expected cancel to return true")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be canceled")
	}

	if canceler.Cancel() {
		t.Fatal("expected a request to be canceled only once")
	}

	canceler.Set(func() {})
	canceler.Clear()
	if canceler.Cancel() {
		t.Fatal("expected no cancel after clear")
	}
}

func TestOperationCancelerSetReplacesEarlierRequest(t *testing.T) {
	canceler := &operationCanceler{}
	first, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	second, cancelSecond := context.WithCancel(context.Background())
	canceler.Set(cancelFirst)
	canceler.Set(cancelSecond)

	if !canceler.Cancel() {
		t.Fatal("expected cancel to return true")
	}
	if second.Err() == nil {
		t.Fatal("expected the latest request to be canceled")
	}
	if first.Err() != nil {
		t.Fatal("expected the replaced request to be left alone")
	}
}

func TestFilterInterruptRune(t *testing.T) {
	if r, ok := filterInterruptRune(readline.CharBell); ok || r != 0 {
		t.Fatalf("expected ctrl+g to be dropped, got %v %v", r, ok)
	}
	if r, ok := filterInterruptRune('a'); !ok || r != 'a' {
		t.Fatalf("expected rune to pass through, got %v %v", r, ok)
	}
	if r, ok := filterInterruptRune(readline.CharInterrupt); !ok || r != readline.CharInterrupt {
		t.Fatalf("expected ctrl+c to pass through, got %v %v", r, ok)
	}
}
