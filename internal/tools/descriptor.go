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

package tools

import "context"

// ExecuteFunc runs a tool with validated arguments. A returned error is
// turned into a failed Outcome by the Executor.
type ExecuteFunc func(ctx context.Context, args Args) (Outcome, error)

// Descriptor is a registered tool. Descriptors are copied into the catalog
// and never change afterwards.
type Descriptor struct {
	ID          string
	Description string
	Schema      Schema
	Execute     ExecuteFunc
}

// Info is the public identity of a tool.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
