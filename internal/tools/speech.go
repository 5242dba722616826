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
	"context"
	"fmt"
	"strings"

	"dunmac/internal/sandbox"
)

func (h *Host) speechTools() []Descriptor {
	return []Descriptor{
		{
			ID:          "say",
			Description: "Make the Mac speak text out loud using text-to-speech. Great for announcements, greetings, or fun interactions.",
			Schema: Object(
				Field{Name: "text", Type: TypeString, Description: "The text to speak out loud", Required: true},
				Field{Name: "voice", Type: TypeString, Description: "Optional voice name (e.g., 'Alex', 'Samantha', 'Daniel'). Default is system voice."},
			),
			Execute: h.say,
		},
		{
			ID:          "notify",
			Description: "Show a macOS notification with a title and message",
			Schema: Object(
				Field{Name: "title", Type: TypeString, Description: "The notification title", Required: true},
				Field{Name: "message", Type: TypeString, Description: "The notification message/body", Required: true},
				Field{Name: "sound", Type: TypeBoolean, Description: "Play notification sound (default: true)", Default: true},
			),
			Execute: h.notify,
		},
	}
}

func (h *Host) say(ctx context.Context, args Args) (Outcome, error) {
	text := args.String("text")
	argv := []string{"say"}
	if voice := strings.TrimSpace(args.String("voice")); voice != "" {
		if strings.HasPrefix(voice, "-") {
			return Fail(fmt.Sprintf("Invalid voice name: %q", voice)), nil
		}
		argv = append(argv, "-v", voice)
	}
	// "--" ends option parsing so text starting with "-" is spoken, not parsed.
	argv = append(argv, "--", text)

	if _, err := h.run(ctx, argv...); err != nil {
		return Fail(fmt.Sprintf("Failed to speak: %v", err)), nil
	}
	return Succeed(fmt.Sprintf("Said: %q", text), nil), nil
}

func (h *Host) notify(ctx context.Context, args Args) (Outcome, error) {
	title := sandbox.StripLiteral(args.String("title"))
	script := fmt.Sprintf("display notification %s with title %s",
		sandbox.Quote(args.String("message")), sandbox.Quote(title))
	if args.Bool("sound") {
		script += ` sound name "default"`
	}
	if _, err := h.appleScript(ctx, script); err != nil {
		return Fail(fmt.Sprintf("Failed to send notification: %v", err)), nil
	}
	return Succeed("Notification sent: "+title, nil), nil
}
