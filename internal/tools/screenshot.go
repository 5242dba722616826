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
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	screenshotMimeType = "image/png"
	frontWindowScript  = `tell application "System Events" to id of first window of (first process whose frontmost is true)`
)

func (h *Host) screenshotTool() Descriptor {
	return Descriptor{
		ID:          "screenshot",
		Description: "Take a screenshot of the Mac screen. Returns the image as base64.",
		Schema: Object(Field{
			Name:        "type",
			Type:        TypeString,
			Description: "Type of screenshot: 'full' for entire screen, 'window' for front window. Default: full",
			Enum:        []string{"full", "window"},
			Default:     "full",
		}),
		Execute: h.screenshot,
	}
}

func (h *Host) screenshot(ctx context.Context, args Args) (Outcome, error) {
	file, err := os.CreateTemp(h.tempDir(), "dunmac-screenshot-*.png")
	if err != nil {
		return Fail(fmt.Sprintf("Failed to capture screenshot: %v", err)), nil
	}
	path := file.Name()
	file.Close()
	defer os.Remove(path)

	// -x suppresses the shutter sound.
	argv := []string{"screencapture", "-x"}
	note := ""
	if args.String("type") == "window" {
		if id, ok := h.frontWindowID(ctx); ok {
			argv = append(argv, "-l", id)
		} else {
			note = " (front window unavailable, captured full screen)"
		}
	}
	argv = append(argv, path)

	if _, err := h.run(ctx, argv...); err != nil {
		return Fail(fmt.Sprintf("Failed to capture screenshot: %v", err)), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Fail(fmt.Sprintf("Failed to read screenshot: %v", err)), nil
	}
	if len(data) == 0 {
		return Fail("Failed to capture screenshot: empty image"), nil
	}

	return Succeed("Screenshot captured"+note, ScreenshotData{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: screenshotMimeType,
	}), nil
}

// frontWindowID asks System Events for the numeric id of the front window.
func (h *Host) frontWindowID(ctx context.Context) (string, bool) {
	out, err := h.appleScript(ctx, frontWindowScript)
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	if _, err := strconv.ParseUint(out, 10, 64); err != nil {
		return "", false
	}
	return out, true
}

// DecodeScreenshot extracts the image bytes and MIME type from a screenshot outcome.
func DecodeScreenshot(out Outcome) ([]byte, string, error) {
	if !out.Success {
		return nil, "", fmt.Errorf("%s", out.Message)
	}
	data, ok := out.Data.(ScreenshotData)
	if !ok {
		return nil, "", fmt.Errorf("screenshot outcome carries no image")
	}
	raw, err := base64.StdEncoding.DecodeString(data.Base64)
	if err != nil {
		return nil, "", fmt.Errorf("decode screenshot: %w", err)
	}
	return raw, data.MimeType, nil
}
