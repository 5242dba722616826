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

import "strings"

// Outcome is the normalized result of any tool invocation.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Succeed builds a successful outcome.
func Succeed(message string, data any) Outcome {
	if strings.TrimSpace(message) == "" {
		message = "Done"
	}
	return Outcome{Success: true, Message: message, Data: data}
}

// Fail builds a failed outcome. Failed outcomes carry no data.
func Fail(message string) Outcome {
	if strings.TrimSpace(message) == "" {
		message = "Tool failed"
	}
	return Outcome{Success: false, Message: message}
}

// BatteryData is returned by battery_status.
type BatteryData struct {
	Percentage *int   `json:"percentage"`
	Status     string `json:"status"`
}

// ScreenshotData is returned by screenshot.
type ScreenshotData struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// CommandData is returned by shell.
type CommandData struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Truncated bool   `json:"truncated,omitempty"`
}

// AppsData is returned by running_apps.
type AppsData struct {
	Apps []string `json:"apps"`
}

// FrontAppData is returned by front_app.
type FrontAppData struct {
	App string `json:"app"`
}
