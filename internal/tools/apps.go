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
	"net/url"
	"strings"

	"dunmac/internal/sandbox"
)

func (h *Host) appTools() []Descriptor {
	return []Descriptor{
		{
			ID:          "open_app",
			Description: "Open an application on macOS. Use the app name like 'Visual Studio Code', 'Spotify', 'Safari', 'Finder', 'Terminal', etc.",
			Schema: Object(Field{
				Name:        "name",
				Type:        TypeString,
				Description: "The name of the application to open",
				Required:    true,
			}),
			Execute: h.openApp,
		},
		{
			ID:          "open_url",
			Description: "Open a URL in the default browser",
			Schema: Object(Field{
				Name:        "url",
				Type:        TypeString,
				Description: "The URL to open (must include http:// or https://)",
				Required:    true,
			}),
			Execute: h.openURL,
		},
	}
}

func (h *Host) openApp(ctx context.Context, args Args) (Outcome, error) {
	name := sandbox.StripLiteral(args.String("name"))
	if strings.TrimSpace(name) == "" {
		return Fail("Application name cannot be empty"), nil
	}
	script := fmt.Sprintf("tell application %s to activate", sandbox.Quote(name))
	if _, err := h.appleScript(ctx, script); err != nil {
		return Fail(fmt.Sprintf("Failed to open %s: %v", name, err)), nil
	}
	return Succeed("Opened "+name, nil), nil
}

func (h *Host) openURL(ctx context.Context, args Args) (Outcome, error) {
	raw := strings.TrimSpace(args.String("url"))
	full := raw
	if !strings.HasPrefix(full, "http") {
		full = "https://" + full
	}
	parsed, err := url.Parse(full)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Fail(fmt.Sprintf("Invalid URL: %q", raw)), nil
	}
	if _, err := h.run(ctx, "open", parsed.String()); err != nil {
		return Fail(fmt.Sprintf("Failed to open URL: %v", err)), nil
	}
	return Succeed("Opened "+parsed.String(), nil), nil
}
