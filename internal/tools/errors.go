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

import (
	"errors"
	"fmt"

	apperrors "dunmac/internal/errors"
	"dunmac/internal/sandbox"
)

// Common tool errors
var (
	// ErrToolNotFound indicates the requested tool doesn't exist in the catalog.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments are invalid or malformed.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrToolRateLimited indicates the tool used up its calls for the minute.
	ErrToolRateLimited = errors.New("tool rate limited")

	// ErrToolInCooldown indicates the tool ran too recently.
	ErrToolInCooldown = errors.New("tool in cooldown")
)

// NewToolExecutionError wraps a failure raised by a tool body with the code
// matching its cause.
func NewToolExecutionError(toolID string, err error) *apperrors.Error {
	return apperrors.Wrap(classify(err), fmt.Sprintf("tool %s failed", toolID), err)
}

func classify(err error) apperrors.Code {
	switch {
	case errors.Is(err, ErrToolNotFound):
		return apperrors.CodeUnknownTool
	case errors.Is(err, ErrInvalidArguments):
		return apperrors.CodeValidation
	case errors.Is(err, sandbox.ErrCommandRejected):
		return apperrors.CodeSandbox
	case errors.Is(err, sandbox.ErrTimeout):
		return apperrors.CodeTimeout
	case errors.Is(err, ErrToolRateLimited), errors.Is(err, ErrToolInCooldown):
		return apperrors.CodeRateLimit
	}
	return apperrors.CodeProcess
}
